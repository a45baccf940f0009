package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/unusual9guy/square-cropper/internal/utils"
)

var batchCmd = &cobra.Command{
	Use:   "batch <images|dirs...>",
	Short: "Crop many images into the output directory",
	Long: `Crops every image argument. Directories are searched recursively for
images. A failing image does not stop the batch; the command fails only when
no image could be cropped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	paths, err := utils.ExpandInputs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no images found in %v", args)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cropper := newCropper(cfg, logger)
	report := cropper.CropManyContext(ctx, paths)

	if debug {
		for _, item := range report.Results {
			if item.Result.Success {
				writeOverlay(item.InputPath, item.Result)
			}
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := printJSON(out, report); err != nil {
			return err
		}
	} else {
		for _, item := range report.Results {
			printResult(out, item.InputPath, item.Result)
		}
		fmt.Fprintf(out, "\n%d images, %d cropped, %d failed -> %s\n",
			report.Total, report.Successful, report.Failed, report.OutputDir)
	}

	if !report.Success {
		return fmt.Errorf("no images were cropped")
	}
	return nil
}
