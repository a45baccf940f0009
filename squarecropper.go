// Package squarecropper turns product photographs into square crops for 1:1
// ad canvases.
//
// The product is located as the extent of non-background pixels on a
// near-white background, a padded square is planned around it and cut out.
// When no product is found the image is center-cropped instead.
//
// Basic usage:
//
//	package main
//
//	import (
//		"fmt"
//
//		squarecropper "github.com/unusual9guy/square-cropper"
//	)
//
//	func main() {
//		c := squarecropper.New()
//
//		// Crop one image; an empty output path writes cropped_images/shoe_cropped.jpg
//		result := c.CropToSquare("shoe.jpg", "")
//		if !result.Success {
//			fmt.Println("crop failed:", result.Error)
//			return
//		}
//		fmt.Printf("%s crop saved to %s (%dx%d)\n", result.Method, result.OutputPath,
//			result.CroppedDimensions.Width, result.CroppedDimensions.Height)
//
//		// Crop many images; failures are reported per item
//		report := c.CropMany([]string{"a.png", "b.png"})
//		fmt.Printf("%d/%d cropped\n", report.Successful, report.Total)
//	}
//
// The package consists of these components:
//
// 1. Vision (pkg/vision): foreground bounds detection by luminance threshold
// 2. Cropper (pkg/cropper): square planning, crop execution and the center-crop fallback
// 3. Analyzer (pkg/analyzer): image decoding and encoding
// 4. Storage (pkg/storage): where finished crops are written
//
// CropToSquare and CropMany never panic and never return errors. Every
// failure is reported in the result records.
package squarecropper

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	"go.uber.org/zap"

	"github.com/unusual9guy/square-cropper/internal/utils"
	"github.com/unusual9guy/square-cropper/pkg/analyzer"
	"github.com/unusual9guy/square-cropper/pkg/cropper"
	"github.com/unusual9guy/square-cropper/pkg/storage"
	"github.com/unusual9guy/square-cropper/pkg/types"
	"github.com/unusual9guy/square-cropper/pkg/vision"
)

// Version of the square cropper library
const Version = "1.0.0"

// Config holds the tunables of a Cropper
type Config struct {
	// Threshold is the luminance below which a pixel counts as product.
	Threshold float64
	// PaddingRatio is the margin added on each side, relative to the larger product side.
	PaddingRatio float64
	// OutputDir receives crops written without an explicit output path.
	OutputDir string
	// Suffix is appended to the input base name for derived output names.
	Suffix string
	// Format forces the output encoding. Empty keeps the output path's
	// extension, or the source format when the extension is unknown.
	Format string
	// Quality is the JPEG/WebP encoder quality.
	Quality int
	// Workers bounds batch parallelism. 1 runs sequentially.
	Workers int
	// MinSize rejects images whose width or height is smaller.
	MinSize int
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Threshold:    vision.DefaultThreshold,
		PaddingRatio: cropper.DefaultPaddingRatio,
		OutputDir:    "cropped_images",
		Suffix:       "_cropped",
		Quality:      analyzer.DefaultQuality,
		Workers:      1,
		MinSize:      1,
	}
}

// Cropper provides a high-level interface for square cropping files and uploads
type Cropper struct {
	config   Config
	analyzer *analyzer.ImageAnalyzer
	cropper  *cropper.SquareCropper
	sink     storage.Sink
	logger   *zap.Logger
}

// Option configures a Cropper
type Option func(*Cropper)

// WithLogger sets the logger for crop progress
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cropper) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSink replaces the local filesystem as the destination for crops
func WithSink(sink storage.Sink) Option {
	return func(c *Cropper) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// New creates a new Cropper with default configuration
func New(opts ...Option) *Cropper {
	return NewWithConfig(DefaultConfig(), opts...)
}

// NewWithConfig creates a new Cropper with custom configuration. Zero
// Threshold, Quality, Workers, MinSize and OutputDir take their defaults.
func NewWithConfig(config Config, opts ...Option) *Cropper {
	defaults := DefaultConfig()
	if config.Threshold <= 0 {
		config.Threshold = defaults.Threshold
	}
	if config.Quality <= 0 {
		config.Quality = defaults.Quality
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.OutputDir == "" {
		config.OutputDir = defaults.OutputDir
	}
	if config.MinSize <= 0 {
		config.MinSize = defaults.MinSize
	}

	c := &Cropper{
		config: config,
		analyzer: analyzer.NewWithConfig(analyzer.Config{
			DefaultQuality:   config.Quality,
			SupportedFormats: []string{"jpeg", "png", "gif", "bmp", "tiff", "webp"},
			MinImageSize:     config.MinSize,
		}),
		sink:   storage.NewLocalSink(""),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.cropper = cropper.NewWithConfig(cropper.CropConfig{PaddingRatio: config.PaddingRatio})
	c.cropper.SetDetector(vision.NewWithConfig(vision.DetectionConfig{Threshold: config.Threshold}))
	c.cropper.SetLogger(c.logger)

	return c
}

// Config returns the cropper configuration
func (c *Cropper) Config() Config {
	return c.config
}

// CropToSquare crops the image at inputPath and writes it to outputPath.
// An empty outputPath writes <OutputDir>/<base><Suffix><ext>.
func (c *Cropper) CropToSquare(inputPath, outputPath string) types.CropResult {
	return c.CropToSquareContext(context.Background(), inputPath, outputPath)
}

// CropToSquareContext is CropToSquare with a context for the storage write
func (c *Cropper) CropToSquareContext(ctx context.Context, inputPath, outputPath string) (result types.CropResult) {
	log := c.logger.With(zap.String("input", inputPath))
	defer c.recoverInto(&result, log)

	if inputPath == "" {
		return c.fail(log, types.Dimensions{}, "input path is empty")
	}
	if err := ctx.Err(); err != nil {
		return c.fail(log, types.Dimensions{}, "crop canceled: %v", err)
	}

	img, format, err := c.analyzer.LoadImage(inputPath)
	if err != nil {
		return c.fail(log, types.Dimensions{}, "failed to load %s: %v", inputPath, err)
	}

	if outputPath == "" {
		outputPath = c.OutputPathFor(inputPath)
	}
	return c.process(ctx, log, img, format, outputPath)
}

// CropReader crops an uploaded image. The output key is derived from name
// the same way CropToSquare derives a default output path.
func (c *Cropper) CropReader(ctx context.Context, r io.Reader, name string) (result types.CropResult) {
	log := c.logger.With(zap.String("input", name))
	defer c.recoverInto(&result, log)

	img, format, err := c.analyzer.LoadImageFromReader(r)
	if err != nil {
		return c.fail(log, types.Dimensions{}, "failed to load %s: %v", name, err)
	}

	if analyzer.FormatFromPath(name) == "" && c.config.Format == "" {
		name += analyzer.Extension(format)
	}
	return c.process(ctx, log, img, format, c.OutputPathFor(name))
}

// OutputPathFor returns the derived output path for an input file
func (c *Cropper) OutputPathFor(inputPath string) string {
	return utils.GenerateOutputFilename(inputPath, c.config.OutputDir, c.config.Suffix, analyzer.Extension(c.config.Format))
}

func (c *Cropper) process(ctx context.Context, log *zap.Logger, img image.Image, srcFormat, outputPath string) types.CropResult {
	original := dimensions(img)
	if err := c.analyzer.ValidateImage(img); err != nil {
		return c.fail(log, original, "invalid image: %v", err)
	}

	out, err := c.cropper.Crop(img)
	if err != nil {
		return c.fail(log, original, "crop failed: %v", err)
	}
	if out.FallbackReason != "" {
		log.Warn("Falling back to center crop", zap.String("reason", out.FallbackReason))
	}

	format := c.outputFormat(outputPath, srcFormat)
	var buf bytes.Buffer
	if err := c.analyzer.EncodeImage(&buf, out.Image, format); err != nil {
		return c.fail(log, original, "failed to encode %s: %v", outputPath, err)
	}

	location, err := c.sink.Put(ctx, outputPath, buf.Bytes(), analyzer.ContentType(format))
	if err != nil {
		return c.fail(log, original, "failed to save %s: %v", outputPath, err)
	}

	result := types.CropResult{
		Success:            true,
		Message:            message(out),
		OutputPath:         location,
		OriginalDimensions: original,
		CroppedDimensions:  dimensions(out.Image),
		Method:             out.Method,
		CropApplied:        out.CropApplied,
		Bounds:             out.Bounds,
		CropArea:           out.CropArea,
		CropCoordinates:    out.CropCoordinates,
	}

	log.Info("Image cropped",
		zap.String("output", location),
		zap.String("method", string(result.Method)),
		zap.Bool("crop_applied", result.CropApplied),
		zap.Int("size", result.CroppedDimensions.Width),
		zap.Int("quality", c.analyzer.Quality()))

	return result
}

// outputFormat picks the configured format, then the output extension, then the source format
func (c *Cropper) outputFormat(outputPath, srcFormat string) string {
	if c.config.Format != "" {
		return analyzer.NormalizeFormat(c.config.Format)
	}
	if format := analyzer.FormatFromPath(outputPath); format != "" {
		return format
	}
	return srcFormat
}

func (c *Cropper) fail(log *zap.Logger, original types.Dimensions, format string, args ...any) types.CropResult {
	msg := fmt.Sprintf(format, args...)
	log.Error("Crop failed", zap.String("error", msg))
	return types.CropResult{
		Success:            false,
		OriginalDimensions: original,
		Error:              msg,
	}
}

func (c *Cropper) recoverInto(result *types.CropResult, log *zap.Logger) {
	if r := recover(); r != nil {
		*result = c.fail(log, result.OriginalDimensions, "unexpected error: %v", r)
	}
}

func message(out cropper.Outcome) string {
	switch {
	case out.Method == types.MethodIntelligent:
		return "Image cropped to a square around the detected product"
	case out.CropApplied:
		return "No product detected, image center-cropped to a square"
	default:
		return "No product detected, image is already square"
	}
}

func dimensions(img image.Image) types.Dimensions {
	b := img.Bounds()
	return types.Dimensions{Width: b.Dx(), Height: b.Dy()}
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
