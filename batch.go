package squarecropper

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unusual9guy/square-cropper/internal/utils"
	"github.com/unusual9guy/square-cropper/pkg/types"
)

// CropMany crops every path into OutputDir. Results are reported in input order.
func (c *Cropper) CropMany(paths []string) types.BatchReport {
	return c.CropManyContext(context.Background(), paths)
}

// CropManyContext is CropMany with cancellation. Items not started before
// ctx is done are reported as failed.
func (c *Cropper) CropManyContext(ctx context.Context, paths []string) types.BatchReport {
	report := types.BatchReport{
		OutputDir: c.config.OutputDir,
		Results:   make([]types.BatchItem, 0, len(paths)),
	}

	results := make([]types.CropResult, len(paths))
	outputs := c.batchOutputPaths(paths)

	if err := utils.EnsureDir(c.config.OutputDir); err != nil {
		c.logger.Error("Failed to create output directory",
			zap.String("dir", c.config.OutputDir), zap.Error(err))
		for i := range results {
			results[i] = types.CropResult{Error: fmt.Sprintf("failed to create output directory: %v", err)}
		}
	} else if c.config.Workers <= 1 {
		for i, path := range paths {
			results[i] = c.cropItem(ctx, path, outputs[i])
		}
	} else {
		var g errgroup.Group
		g.SetLimit(c.config.Workers)
		for i, path := range paths {
			i, path := i, path
			g.Go(func() error {
				results[i] = c.cropItem(ctx, path, outputs[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, path := range paths {
		report.Add(types.BatchItem{InputPath: path, Result: results[i]})
	}

	c.logger.Info("Batch finished",
		zap.Int("total", report.Total),
		zap.Int("successful", report.Successful),
		zap.Int("failed", report.Failed))

	return report
}

func (c *Cropper) cropItem(ctx context.Context, path, outputPath string) types.CropResult {
	if err := ctx.Err(); err != nil {
		return types.CropResult{Error: fmt.Sprintf("batch canceled before processing: %v", err)}
	}
	return c.CropToSquareContext(ctx, path, outputPath)
}

// batchOutputPaths assigns each input a distinct output path. The first input
// keeps OutputPathFor's name; later inputs mapping to the same file get an
// index suffix (x_cropped.png, x_cropped_2.png). Comparison ignores case.
func (c *Cropper) batchOutputPaths(paths []string) []string {
	outputs := make([]string, len(paths))
	taken := make(map[string]bool, len(paths))
	var dups []int

	for i, path := range paths {
		outputs[i] = c.OutputPathFor(path)
		key := strings.ToLower(filepath.Clean(outputs[i]))
		if taken[key] {
			dups = append(dups, i)
			continue
		}
		taken[key] = true
	}

	for _, i := range dups {
		ext := filepath.Ext(outputs[i])
		stem := strings.TrimSuffix(outputs[i], ext)
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
			key := strings.ToLower(filepath.Clean(candidate))
			if !taken[key] {
				taken[key] = true
				c.logger.Warn("Output name collision, renaming",
					zap.String("input", paths[i]),
					zap.String("output", candidate))
				outputs[i] = candidate
				break
			}
		}
	}

	return outputs
}
