package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-grid/internal/config"
	"github.com/ironsheep/image-grid/internal/imaging"
	"github.com/ironsheep/image-grid/internal/runner"
)

// generateFlags are the command-line overrides of config.Config. Only flags
// the user actually set are applied.
type generateFlags struct {
	config      string
	input       string
	output      string
	generations int
	workers     int
	seed        uint64
	mode        string
	width       int
	height      int
	tolerance   float64
	format      string
	quality     int
	cache       bool
}

func generateCommand() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate collages from a directory of images",
		Example: `  image-grid generate --input ./photos --output ./collages
  image-grid generate --config grid.toml --generations 5 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f.config)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if cfg.OutputDir == "" {
				return fmt.Errorf("%w: output_dir is required", config.ErrInvalid)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runGenerate(cmd, cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.config, "config", "c", "", "TOML configuration file")
	fl.StringVarP(&f.input, "input", "i", "", "directory of candidate images")
	fl.StringVarP(&f.output, "output", "o", "", "directory collages are written to")
	fl.IntVarP(&f.generations, "generations", "n", 0, "number of collages (default 50)")
	fl.IntVarP(&f.workers, "workers", "w", 0, "maximum concurrent generations (default 20)")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed, 0 for time-based")
	fl.StringVar(&f.mode, "mode", "", "packing policy: scanline or grid")
	fl.IntVar(&f.width, "width", 0, "canvas width in pixels (default 7680)")
	fl.IntVar(&f.height, "height", 0, "canvas height in pixels (default 8640)")
	fl.Float64Var(&f.tolerance, "tolerance", 0, "native-size deviation threshold (default 0.5)")
	fl.StringVar(&f.format, "format", "", "output format: jpeg or png")
	fl.IntVar(&f.quality, "quality", 0, "JPEG quality 1-100 (default 90)")
	fl.BoolVar(&f.cache, "cache", false, "keep decoded images in memory across generations")

	return cmd
}

func (f *generateFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.InputDir = f.input
	}
	if changed("output") {
		cfg.OutputDir = f.output
	}
	if changed("generations") {
		cfg.Generations = f.generations
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("mode") {
		cfg.Mode = f.mode
	}
	if changed("width") {
		cfg.Canvas.Width = f.width
	}
	if changed("height") {
		cfg.Canvas.Height = f.height
	}
	if changed("tolerance") {
		cfg.Packer.Tolerance = f.tolerance
	}
	if changed("format") {
		cfg.Output.Format = f.format
	}
	if changed("quality") {
		cfg.Output.Quality = f.quality
	}
	if changed("cache") {
		cfg.CacheImages = f.cache
	}
}

func runGenerate(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	src := imaging.NewDirectorySource(cfg.InputDir, imaging.NewImageCache(cfg.CacheImages))
	ids, err := src.List()
	if err != nil {
		return err
	}
	logger.Info("Listed candidates", "dir", cfg.InputDir, "count", len(ids))

	plan := cfg.Plan(src, ids, logger)
	logger.Debug("Plan", "mode", plan.Mode, "seed", plan.Seed,
		"canvas", fmt.Sprintf("%dx%d", cfg.Canvas.Width, cfg.Canvas.Height))

	prog := newProgress(logger)
	r := runner.New(runner.Options{
		Generations: cfg.Generations,
		Workers:     cfg.Workers,
		Saver:       cfg.Sink(),
		Logger:      logger,
		Progress: func(job runner.JobResult, done, total int) {
			if job.Err != nil {
				logger.Error("Generation failed", "job", job.Index, "progress", fmt.Sprintf("%d/%d", done, total), "err", job.Err)
				return
			}
			logger.Info("Generated", "job", job.Index, "progress", fmt.Sprintf("%d/%d", done, total),
				"placed", job.Placed, "coverage", fmt.Sprintf("%.1f%%", job.Coverage*100))
		},
	}, plan.Factory())

	report, runErr := r.Run(ctx)
	if report == nil {
		return runErr
	}
	prog.done(fmt.Sprintf("Generated %d of %d collages", report.Succeeded(), len(report.Jobs)))

	printReport(cmd, report, plan.Seed)
	if runErr != nil {
		return runErr
	}
	if report.Failed() > 0 {
		return fmt.Errorf("%d of %d generations failed: %w", report.Failed(), len(report.Jobs), report.Err())
	}
	return nil
}

func printReport(cmd *cobra.Command, report *runner.Report, seed uint64) {
	out := cmd.OutOrStdout()

	if report.Failed() == 0 {
		printSuccess(out, "Generated %s collages (%s images placed)", number(report.Succeeded()), number(report.Placed()))
	} else if report.Succeeded() > 0 {
		printWarning(out, "Generated %d collages, %d failed", report.Succeeded(), report.Failed())
	} else {
		printError(out, "All %d generations failed", report.Failed())
	}
	printKeyValue(out, "Run", report.RunID)
	printKeyValue(out, "Seed", fmt.Sprint(seed))

	var failures []string
	for _, j := range report.Jobs {
		if j.Err != nil {
			failures = append(failures, fmt.Sprintf("job %d: %v", j.Index, j.Err))
			continue
		}
		printFile(out, j.Path)
	}
	if len(failures) > 0 {
		printDetail(out, "%s", strings.Join(failures, "\n  "))
	}
}
