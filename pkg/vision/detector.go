package vision

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/unusual9guy/square-cropper/pkg/types"
)

// DefaultThreshold is the luminance (0-255) below which a pixel counts as foreground.
// Anything at or above it is treated as the near-white studio background.
const DefaultThreshold = 240.0

// ForegroundDetector locates non-background content on a near-white backdrop
type ForegroundDetector struct {
	config DetectionConfig
}

// DetectionConfig holds configuration for foreground detection
type DetectionConfig struct {
	Threshold float64
}

// New creates a new ForegroundDetector with default configuration
func New() *ForegroundDetector {
	return &ForegroundDetector{
		config: DetectionConfig{
			Threshold: DefaultThreshold,
		},
	}
}

// NewWithConfig creates a new ForegroundDetector with custom configuration
func NewWithConfig(config DetectionConfig) *ForegroundDetector {
	return &ForegroundDetector{config: config}
}

// Threshold returns the configured luminance threshold
func (d *ForegroundDetector) Threshold() float64 {
	return d.config.Threshold
}

// DetectBounds returns the tight bounding box of all foreground pixels. Coordinates are
// relative to the image origin. The second return value is false when the image holds
// no foreground at all.
func (d *ForegroundDetector) DetectBounds(img image.Image) (types.BoundingBox, bool) {
	src := imaging.Clone(img)
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	if width == 0 || height == 0 {
		return types.BoundingBox{}, false
	}

	left, top, right, bottom := width, height, -1, -1

	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+width*4]
		for x := 0; x < width; x++ {
			i := x * 4
			if !d.isForeground(row[i], row[i+1], row[i+2]) {
				continue
			}
			if x < left {
				left = x
			}
			if x > right {
				right = x
			}
			if y < top {
				top = y
			}
			bottom = y
		}
	}

	if right < 0 {
		return types.BoundingBox{}, false
	}

	return types.BoundingBox{
		Left:   left,
		Top:    top,
		Right:  right + 1,
		Bottom: bottom + 1,
	}, true
}

// ForegroundRatio returns the fraction of pixels classified as foreground
func (d *ForegroundDetector) ForegroundRatio(img image.Image) float64 {
	src := imaging.Clone(img)
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	if width == 0 || height == 0 {
		return 0
	}

	count := 0
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+width*4]
		for x := 0; x < width; x++ {
			i := x * 4
			if d.isForeground(row[i], row[i+1], row[i+2]) {
				count++
			}
		}
	}

	return float64(count) / float64(width*height)
}

// Luminance is the mean of the three color channels on a 0-255 scale.
// Alpha is deliberately excluded, so opacity never moves a pixel across the threshold.
func Luminance(r, g, b uint8) float64 {
	return float64(int(r)+int(g)+int(b)) / 3.0
}

func (d *ForegroundDetector) isForeground(r, g, b uint8) bool {
	return Luminance(r, g, b) < d.config.Threshold
}
