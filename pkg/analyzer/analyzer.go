package analyzer

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrDecode is returned when the source bytes are not a decodable image
	ErrDecode = errors.New("failed to decode image")
	// ErrUnsupportedFormat is returned for formats outside the configured set
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// DefaultQuality is the JPEG/WebP quality used for saved crops
const DefaultQuality = 95

// ImageAnalyzer loads, validates and encodes images
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	DefaultQuality   int
	SupportedFormats []string
	MinImageSize     int
}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			DefaultQuality:   DefaultQuality,
			SupportedFormats: []string{"jpeg", "png", "gif", "bmp", "tiff", "webp"},
			MinImageSize:     1,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	if config.DefaultQuality <= 0 {
		config.DefaultQuality = DefaultQuality
	}
	return &ImageAnalyzer{config: config}
}

// Quality returns the encoder quality
func (a *ImageAnalyzer) Quality() int {
	return a.config.DefaultQuality
}

// LoadImage loads an image from file and reports its decoded format
func (a *ImageAnalyzer) LoadImage(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return a.LoadImageFromReader(file)
}

// LoadImageFromReader loads an image from an io.Reader
func (a *ImageAnalyzer) LoadImageFromReader(reader io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	format = NormalizeFormat(format)
	if !a.isFormatSupported(format) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return img, format, nil
}

// EncodeImage writes img to w in the given format
func (a *ImageAnalyzer) EncodeImage(w io.Writer, img image.Image, format string) error {
	quality := a.config.DefaultQuality

	switch NormalizeFormat(format) {
	case "jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	case "gif":
		return imaging.Encode(w, img, imaging.GIF)
	case "bmp":
		return imaging.Encode(w, img, imaging.BMP)
	case "tiff":
		return imaging.Encode(w, img, imaging.TIFF)
	case "webp":
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// SaveImage saves an image to file. An empty format is taken from the extension.
func (a *ImageAnalyzer) SaveImage(img image.Image, path, format string) error {
	if format == "" {
		format = FormatFromPath(path)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := a.EncodeImage(file, img, format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}

// GetImageInfo returns basic information about an image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Area        int     `json:"area"`
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, NormalizeFormat(supported)) {
			return true
		}
	}
	return false
}

// ValidateImage checks if an image meets minimum requirements
func (a *ImageAnalyzer) ValidateImage(img image.Image) error {
	if img == nil {
		return errors.New("image is nil")
	}
	bounds := img.Bounds()
	if bounds.Dx() < a.config.MinImageSize || bounds.Dy() < a.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), a.config.MinImageSize)
	}
	return nil
}

// NormalizeFormat maps format names and aliases to the decoder names
// registered with the image package.
func NormalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimPrefix(format, ".")); f {
	case "jpg", "jpeg":
		return "jpeg"
	case "tif", "tiff":
		return "tiff"
	default:
		return f
	}
}

// FormatFromPath returns the format implied by the file extension, or "".
func FormatFromPath(path string) string {
	switch f := NormalizeFormat(filepath.Ext(path)); f {
	case "jpeg", "png", "gif", "bmp", "tiff", "webp":
		return f
	default:
		return ""
	}
}

// Extension returns the file extension (with dot) for a format
func Extension(format string) string {
	switch f := NormalizeFormat(format); f {
	case "jpeg":
		return ".jpg"
	case "":
		return ""
	default:
		return "." + f
	}
}

// ContentType returns the MIME type for a format
func ContentType(format string) string {
	switch f := NormalizeFormat(format); f {
	case "jpeg", "png", "gif", "bmp", "tiff", "webp":
		return "image/" + f
	default:
		return "application/octet-stream"
	}
}
