package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/astdiff/pkg/astdiff"
	"github.com/Sumatoshi-tech/astdiff/pkg/config"
	"github.com/Sumatoshi-tech/astdiff/pkg/javamodel"
	"github.com/Sumatoshi-tech/astdiff/pkg/observability"
	"github.com/Sumatoshi-tech/astdiff/pkg/report"
	"github.com/Sumatoshi-tech/astdiff/pkg/syntax"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
	"github.com/Sumatoshi-tech/astdiff/pkg/version"
)

// diffArgCount is the number of arguments expected by the diff command.
const diffArgCount = 2

// diffFlags are the options of the diff command.
type diffFlags struct {
	format      string
	output      string
	metricsFile string
	validate    bool
	workers     int
}

func diffCmd(root *rootFlags) *cobra.Command {
	flags := &diffFlags{}

	cmd := &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Compare two files or directories",
		Long: `Compare two versions of Java code node by node and print the edit scripts.

Directories are compared file by file on their relative paths; classes that
moved between files are paired by name.

Examples:
  astdiff diff old/A.java new/A.java        # Summary table
  astdiff diff -f actions old/ new/         # Colored action listing
  astdiff diff -f json --validate old/ new/ # Schema-checked JSON`,
		Args: cobra.ExactArgs(diffArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(root.cfgFile)
			if err != nil {
				return err
			}

			applyDiffFlags(cmd, cfg, flags)

			return runDiff(cmd.Context(), cmd.OutOrStdout(), cfg, root, flags, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", config.DefaultOutputFormat,
		"output format (summary, json, yaml, actions)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	cmd.Flags().BoolVar(&flags.validate, "validate", false, "check JSON output against the report schema")
	cmd.Flags().IntVar(&flags.workers, "workers", config.DefaultWorkers, "parallel workers (0 = unbounded)")

	return cmd
}

// applyDiffFlags lets explicitly set flags override the configuration.
func applyDiffFlags(cmd *cobra.Command, cfg *config.Config, flags *diffFlags) {
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = flags.format
	}

	if cmd.Flags().Changed("metrics-file") {
		cfg.Telemetry.MetricsFile = flags.metricsFile
	}

	if cmd.Flags().Changed("workers") {
		cfg.Matching.Workers = flags.workers
	}
}

func runDiff(ctx context.Context, stdout io.Writer, cfg *config.Config, root *rootFlags, flags *diffFlags,
	beforePath, afterPath string,
) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return fmt.Errorf("invalid configuration: %w", validateErr)
	}

	obsCfg := cfg.Observability(version.Version)

	switch {
	case root.verbose:
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	case root.quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		err = errors.Join(err, providers.Shutdown(context.WithoutCancel(ctx)))
	}()

	logger := providers.Logger

	before, after, err := loadSides(ctx, cfg, logger, beforePath, afterPath)
	if err != nil {
		return err
	}

	metrics, err := observability.NewDiffMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	differ := astdiff.NewDiffer(cfg.DiffOptions(), astdiff.Deps{
		Logger:  logger,
		Tracer:  providers.Tracer,
		Metrics: metrics,
	})

	pd, err := differ.Diff(ctx, javamodel.Builder{Logger: logger}.Build(before, after))
	if err != nil {
		return fmt.Errorf("diff: %w", err)
	}

	if err := writeReport(stdout, cfg, flags, report.New(pd)); err != nil {
		return err
	}

	if cfg.Telemetry.MetricsFile != "" {
		if err := providers.WriteTextfile(cfg.Telemetry.MetricsFile); err != nil {
			return err
		}
	}

	return nil
}

// loadSides reads and parses both versions.
func loadSides(ctx context.Context, cfg *config.Config, logger *slog.Logger, beforePath, afterPath string,
) (before, after *tree.Context, err error) {
	maxSize, err := cfg.MaxFileSize()
	if err != nil {
		return nil, nil, err
	}

	filter := inputFilter{extensions: cfg.Input.Extensions, maxFileSize: maxSize, logger: logger}
	parser := syntax.NewParser()

	load := func(path string) (*tree.Context, error) {
		files, collectErr := filter.collect(path)
		if collectErr != nil {
			return nil, collectErr
		}

		logger.DebugContext(ctx, "parsing", "path", path, "files", len(files))

		parsed, parseErr := parser.ParseAll(ctx, files, cfg.Matching.Workers)
		if parseErr != nil {
			return nil, fmt.Errorf("parse %s: %w", path, parseErr)
		}

		return parsed, nil
	}

	if before, err = load(beforePath); err != nil {
		return nil, nil, err
	}

	if after, err = load(afterPath); err != nil {
		return nil, nil, err
	}

	return before, after, nil
}

func writeReport(stdout io.Writer, cfg *config.Config, flags *diffFlags, r *report.Report) (err error) {
	writer := stdout

	if flags.output != "" {
		//nolint:gosec // output path is chosen by the user.
		outputFile, createErr := os.Create(flags.output)
		if createErr != nil {
			return fmt.Errorf("failed to create output file: %w", createErr)
		}

		defer func() {
			if closeErr := outputFile.Close(); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("close output file: %w", closeErr))
			}
		}()

		writer = outputFile
	}

	opts := cfg.ReportOptions()
	opts.Validate = flags.validate

	if flags.output != "" {
		opts.Color = false
	}

	return report.Write(writer, r, opts)
}
