package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	squarecropper "github.com/unusual9guy/square-cropper"
	"github.com/unusual9guy/square-cropper/internal/config"
	"github.com/unusual9guy/square-cropper/internal/logging"
	"github.com/unusual9guy/square-cropper/pkg/storage"
)

var (
	cfgFile  string
	logLevel string
	debug    bool
	jsonOut  bool

	threshold float64
	padding   float64
	outDir    string
	suffix    string
	format    string
	quality   int
	workers   int

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "square-cropper",
	Short: "Crop product photos to squares centered on the product",
	Long: `square-cropper finds the product on a near-white background, plans a padded
square around it and writes the crop. Images without a detectable product
are center-cropped instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (JSON or YAML)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")
	flags.BoolVar(&debug, "debug", false, "write debug overlays showing detected bounds and crop")
	flags.BoolVar(&jsonOut, "json", false, "print results as JSON")

	flags.Float64Var(&threshold, "threshold", 240, "luminance below which a pixel is product (0-255]")
	flags.Float64Var(&padding, "padding", 0.2, "padding ratio added on each side of the product")
	flags.StringVar(&outDir, "out", "cropped_images", "output directory")
	flags.StringVar(&suffix, "suffix", "_cropped", "suffix appended to output file names")
	flags.StringVar(&format, "format", "", "output format: jpg|png|gif|bmp|tiff|webp (default: keep source)")
	flags.IntVar(&quality, "quality", 95, "JPEG/WebP output quality (1-100)")
	flags.IntVar(&workers, "workers", 1, "parallel workers for batch runs")

	rootCmd.AddCommand(cropCmd, batchCmd, serveCmd, workerCmd, enqueueCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, the environment and explicit flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c := config.Default()
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(config.GetConfigPath()); err == nil {
			path = config.GetConfigPath()
		}
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		c = loaded
	}

	c.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		c.Detector.Threshold = threshold
	}
	if flags.Changed("padding") {
		c.Cropper.PaddingRatio = padding
	}
	if flags.Changed("out") {
		c.Output.Dir = outDir
	}
	if flags.Changed("suffix") {
		c.Output.Suffix = suffix
	}
	if flags.Changed("format") {
		c.Output.Format = format
	}
	if flags.Changed("quality") {
		c.Output.Quality = quality
	}
	if flags.Changed("workers") {
		c.Batch.Workers = workers
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// newCropper builds the library cropper, uploading to Supabase when configured
func newCropper(c *config.Config, logger *zap.Logger) *squarecropper.Cropper {
	opts := []squarecropper.Option{squarecropper.WithLogger(logger)}
	if c.Supabase.URL != "" {
		opts = append(opts, squarecropper.WithSink(
			storage.NewSupabaseSink(c.Supabase.URL, c.Supabase.Key, c.Supabase.Bucket)))
	}

	return squarecropper.NewWithConfig(squarecropper.Config{
		Threshold:    c.Detector.Threshold,
		PaddingRatio: c.Cropper.PaddingRatio,
		OutputDir:    c.Output.Dir,
		Suffix:       c.Output.Suffix,
		Format:       c.Output.Format,
		Quality:      c.Output.Quality,
		Workers:      c.Batch.Workers,
	}, opts...)
}
