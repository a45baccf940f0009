package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unusual9guy/square-cropper/internal/utils"
	"github.com/unusual9guy/square-cropper/pkg/analyzer"
	"github.com/unusual9guy/square-cropper/pkg/processing"
	"github.com/unusual9guy/square-cropper/pkg/types"
)

var cropCmd = &cobra.Command{
	Use:   "crop <image> [output]",
	Short: "Crop one image to a square",
	Long: `Crops a single image. Without an output path the crop is written to
<out>/<name><suffix><ext>.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCrop,
}

func runCrop(cmd *cobra.Command, args []string) error {
	output := ""
	if len(args) == 2 {
		output = args[1]
	}

	cropper := newCropper(cfg, logger)
	result := cropper.CropToSquareContext(cmd.Context(), args[0], output)

	if debug && result.Success {
		writeOverlay(args[0], result)
	}

	if jsonOut {
		if err := printJSON(cmd.OutOrStdout(), newCropReport(args[0], result)); err != nil {
			return err
		}
	} else {
		printResult(cmd.OutOrStdout(), args[0], result)
	}

	if !result.Success {
		return fmt.Errorf("crop failed: %s", result.Error)
	}
	return nil
}

// cropReport is the --json output of crop: the result plus source image info
type cropReport struct {
	types.CropResult
	Source *analyzer.ImageInfo `json:"source_info,omitempty"`
}

func newCropReport(input string, result types.CropResult) cropReport {
	report := cropReport{CropResult: result}

	imgAnalyzer := analyzer.New()
	img, _, err := imgAnalyzer.LoadImage(input)
	if err != nil {
		return report
	}
	info := imgAnalyzer.GetImageInfo(img)
	report.Source = &info
	return report
}

func printResult(w io.Writer, input string, result types.CropResult) {
	if !result.Success {
		fmt.Fprintf(w, "FAIL  %s: %s\n", input, result.Error)
		return
	}

	size := ""
	if info, err := os.Stat(result.OutputPath); err == nil {
		size = " " + utils.FormatFileSize(info.Size())
	}
	fmt.Fprintf(w, "OK    %s -> %s (%dx%d -> %dx%d, %s%s)\n",
		input, result.OutputPath,
		result.OriginalDimensions.Width, result.OriginalDimensions.Height,
		result.CroppedDimensions.Width, result.CroppedDimensions.Height,
		result.Method, size)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOverlay saves <out>/<name>_debug.png with the detected bounds and crop drawn in
func writeOverlay(input string, result types.CropResult) {
	imgAnalyzer := analyzer.New()
	img, _, err := imgAnalyzer.LoadImage(input)
	if err != nil {
		logger.Warn("Debug overlay skipped", zap.String("input", input), zap.Error(err))
		return
	}

	region := types.CropRegion{Right: result.OriginalDimensions.Width, Bottom: result.OriginalDimensions.Height}
	switch {
	case result.CropArea != nil:
		region = *result.CropArea
	case result.CropCoordinates != nil:
		region = *result.CropCoordinates
	}

	if err := utils.EnsureDir(cfg.Output.Dir); err != nil {
		logger.Warn("Debug overlay skipped", zap.Error(err))
		return
	}
	path := utils.GenerateOutputFilename(input, cfg.Output.Dir, "_debug", ".png")
	overlay := processing.CreateDebugOverlay(img, result.Bounds, region)
	if err := imgAnalyzer.SaveImage(overlay, path, "png"); err != nil {
		logger.Warn("Debug overlay save failed", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("Wrote debug overlay", zap.String("path", filepath.Clean(path)))
}
