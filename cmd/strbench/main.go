// Package main provides the CLI entry point for strbench, a
// parametrized substring-search benchmark sweep.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/weiihann/strbench/config"
	"github.com/weiihann/strbench/harness"
	"github.com/weiihann/strbench/metrics"
	"github.com/weiihann/strbench/report"
	"github.com/weiihann/strbench/sampler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "strbench",
		Short: "Parametrized substring-search benchmark sweep",
		Long: `Strbench compiles one native benchmark binary per (haystack size,
needle size) grid point, runs it to a confidence target and plots the
average search time of every operator variant as a 3-D scatter.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())

	return root
}

type runOptions struct {
	configPath  string
	outputPath  string
	metricsPath string
	outputJSON  bool
	verbose     bool
}

func newRunCmd() *cobra.Command {
	var o runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sample every variant over the grid and render the chart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if o.verbose {
				level = slog.LevelDebug
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))

			cfg, err := config.Load(o.configPath)
			if err != nil {
				return err
			}

			return runSweep(cmd.Context(), logger, cfg, o)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.configPath, "config", "",
		"Path to a YAML config file (defaults apply when empty)")
	flags.StringVar(&o.outputPath, "output", "strbench.html",
		"Path of the rendered 3-D scatter chart")
	flags.StringVar(&o.metricsPath, "metrics-file", "",
		"Write Prometheus metrics in text format to this path")
	flags.BoolVar(&o.outputJSON, "json", false,
		"Output results as JSON instead of a table")
	flags.BoolVarP(&o.verbose, "verbose", "v", false,
		"Log every grid point")

	return cmd
}

func runSweep(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	o runOptions,
) error {
	logger.InfoContext(ctx, "starting sweep",
		slog.Int("pool_size", cfg.PoolSize),
		slog.Int("points", cfg.Grid.Len()),
		slog.Int("confidence", cfg.ConfidenceTarget),
		slog.Any("variants", cfg.Variants),
	)

	reg := prometheus.NewRegistry()

	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	runner := harness.NewRunner(
		cfg.HarnessCompiler(), cfg.ConfidenceTarget, cfg.TaskTimeout, logger,
	)
	s := sampler.New(runner, cfg.Grid, cfg.PoolSize, logger, m)

	series := make([]report.Series, 0, len(cfg.Variants))

	for _, variant := range cfg.Variants {
		samples, err := s.Sample(ctx, variant)
		if err != nil {
			return fmt.Errorf("sample %s: %w", variant, err)
		}

		series = append(series, report.Series{Label: variant, Samples: samples})
	}

	if o.metricsPath != "" {
		if err := metrics.WriteTextfile(o.metricsPath, reg); err != nil {
			return err
		}
	}

	if err := writeChart(o.outputPath, series); err != nil {
		return err
	}

	logger.InfoContext(ctx, "chart written", slog.String("path", o.outputPath))

	if o.outputJSON {
		if err := report.GenerateJSON(os.Stdout, series); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(os.Stdout, series); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.InfoContext(ctx, "sweep complete")

	return nil
}

func writeChart(path string, series []report.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}

	if err := report.Plot(f, series); err != nil {
		f.Close()
		os.Remove(path)

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close chart file: %w", err)
	}

	return nil
}
