package cropper

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/unusual9guy/square-cropper/pkg/types"
	"github.com/unusual9guy/square-cropper/pkg/vision"
)

var (
	// ErrEmptyImage is returned for images without pixels
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrDegenerateRegion marks a planned region with zero area
	ErrDegenerateRegion = errors.New("planned crop region is degenerate")
)

// State is a step of the square crop state machine
type State string

const (
	StateDetecting State = "detecting"
	StatePlanning  State = "planning"
	StateExecuting State = "executing"
	StateFallback  State = "fallback"
	StateDone      State = "done"
	StateError     State = "error"
)

// SquareCropper turns a product photo into a square crop centered on the product
type SquareCropper struct {
	detector *vision.ForegroundDetector
	config   CropConfig
	logger   *zap.Logger
}

// CropConfig holds configuration for square cropping
type CropConfig struct {
	PaddingRatio float64
}

// New creates a new SquareCropper with default configuration
func New() *SquareCropper {
	return &SquareCropper{
		detector: vision.New(),
		config: CropConfig{
			PaddingRatio: DefaultPaddingRatio,
		},
		logger: zap.NewNop(),
	}
}

// NewWithConfig creates a new SquareCropper with custom configuration
func NewWithConfig(config CropConfig) *SquareCropper {
	return &SquareCropper{
		detector: vision.New(),
		config:   config,
		logger:   zap.NewNop(),
	}
}

// SetDetector allows setting a custom foreground detector
func (c *SquareCropper) SetDetector(detector *vision.ForegroundDetector) {
	c.detector = detector
}

// SetLogger sets the logger used for state transitions
func (c *SquareCropper) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
}

// Config returns the cropper configuration
func (c *SquareCropper) Config() CropConfig {
	return c.config
}

// Outcome is the in-memory result of a crop: the square image plus the geometry that
// produced it. Bounds and CropArea are set only on the intelligent path.
type Outcome struct {
	Image           image.Image
	Method          types.CropMethod
	CropApplied     bool
	Bounds          *types.BoundingBox
	CropArea        *types.CropRegion
	CropCoordinates *types.CropRegion
	FallbackReason  string
	Trace           []State
}

// Final returns the last state the machine reached
func (o Outcome) Final() State {
	if len(o.Trace) == 0 {
		return ""
	}
	return o.Trace[len(o.Trace)-1]
}

// Crop runs detection, planning and execution on img, falling back to a plain center
// crop when no foreground is found, the plan is degenerate or a step panics.
func (c *SquareCropper) Crop(img image.Image) (Outcome, error) {
	var out Outcome

	if img == nil || img.Bounds().Empty() {
		out.Trace = append(out.Trace, StateError)
		return out, ErrEmptyImage
	}

	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	out.Trace = append(out.Trace, StateDetecting)
	bounds, found, err := c.detect(img)
	if err != nil {
		return c.fallback(img, out, err.Error()), nil
	}
	if !found {
		return c.fallback(img, out, "no foreground detected"), nil
	}
	if ce := c.logger.Check(zap.DebugLevel, "foreground detected"); ce != nil {
		ce.Write(
			zap.Int("left", bounds.Left), zap.Int("top", bounds.Top),
			zap.Int("right", bounds.Right), zap.Int("bottom", bounds.Bottom),
			zap.Float64("foreground_ratio", c.detector.ForegroundRatio(img)))
	}

	out.Trace = append(out.Trace, StatePlanning)
	region := PlanCrop(bounds, width, height, c.config.PaddingRatio)
	if region.Empty() || !region.Within(width, height) {
		return c.fallback(img, out, fmt.Sprintf("%v: %+v", ErrDegenerateRegion, region)), nil
	}
	c.logger.Debug("crop planned",
		zap.Int("left", region.Left), zap.Int("top", region.Top),
		zap.Int("right", region.Right), zap.Int("bottom", region.Bottom))

	out.Trace = append(out.Trace, StateExecuting)
	squared, err := c.execute(img, region)
	if err != nil {
		return c.fallback(img, out, err.Error()), nil
	}

	out.Trace = append(out.Trace, StateDone)
	out.Image = squared
	out.Method = types.MethodIntelligent
	out.CropApplied = true
	out.Bounds = &bounds
	out.CropArea = &region

	return out, nil
}

func (c *SquareCropper) detect(img image.Image) (bounds types.BoundingBox, found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("foreground detection panicked: %v", r)
		}
	}()
	bounds, found = c.detector.DetectBounds(img)
	return bounds, found, nil
}

func (c *SquareCropper) execute(img image.Image, region types.CropRegion) (squared image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crop execution panicked: %v", r)
		}
	}()
	squared = ExecuteCrop(img, region)
	if squared.Bounds().Empty() {
		return nil, ErrDegenerateRegion
	}
	return squared, nil
}

func (c *SquareCropper) fallback(img image.Image, out Outcome, reason string) Outcome {
	c.logger.Debug("falling back to center crop", zap.String("reason", reason))

	squared, region, applied := BasicCenterCrop(img)

	out.Trace = append(out.Trace, StateFallback, StateDone)
	out.Image = squared
	out.Method = types.MethodBasic
	out.CropApplied = applied
	out.FallbackReason = reason
	if applied {
		out.CropCoordinates = &region
	}

	return out
}
