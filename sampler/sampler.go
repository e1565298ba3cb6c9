// Package sampler measures one operator variant over every point of a
// grid using a bounded pool of concurrent pipelines.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/weiihann/strbench/grid"
	"github.com/weiihann/strbench/harness"
	"github.com/weiihann/strbench/metrics"
)

// Sample is the measurement of one grid point.
type Sample struct {
	HaystackSize       int     `json:"haystack_size"`
	NeedleSize         int     `json:"needle_size"`
	AvgTimeNs          int64   `json:"avg_time_ns"`
	ConfidenceRelative float64 `json:"confidence_relative"`
}

// Executor runs the full compile, run and parse pipeline for one
// parametrization. *harness.Runner implements it.
type Executor interface {
	Run(ctx context.Context, p harness.Parametrization) (*harness.Result, error)
}

// Sampler maps an Executor over a Grid.
type Sampler struct {
	Executor Executor
	Grid     grid.Grid
	PoolSize int
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// New creates a Sampler. m may be nil.
func New(
	exec Executor,
	g grid.Grid,
	poolSize int,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Sampler {
	return &Sampler{
		Executor: exec,
		Grid:     g,
		PoolSize: poolSize,
		Logger:   logger,
		Metrics:  m,
	}
}

// Sample measures variant at every grid point. At most PoolSize
// pipelines run at once. The returned samples follow grid order. The
// first failing point cancels the rest and no samples are returned.
func (s *Sampler) Sample(ctx context.Context, variant string) ([]Sample, error) {
	if s.PoolSize < 1 {
		return nil, fmt.Errorf("pool size %d must be at least 1", s.PoolSize)
	}

	points := s.Grid.Points()
	samples := make([]Sample, len(points))

	logger := s.Logger.With(
		slog.String("run_id", uuid.NewString()),
		slog.String("variant", variant),
	)

	logger.InfoContext(ctx, "sampling variant",
		slog.Int("points", len(points)),
		slog.Int("pool_size", s.PoolSize),
	)

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.PoolSize)

	for i, pt := range points {
		g.Go(func() error {
			p := harness.Parametrization{
				Operator:     variant,
				HaystackSize: pt.HaystackSize,
				NeedleSize:   pt.NeedleSize,
			}

			res, err := s.measure(gctx, logger, p)
			if err != nil {
				return fmt.Errorf("sample %s: %w", p, err)
			}

			samples[i] = Sample{
				HaystackSize:       pt.HaystackSize,
				NeedleSize:         pt.NeedleSize,
				AvgTimeNs:          res.AvgTimeNs,
				ConfidenceRelative: res.ConfidenceRelative,
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "sampling failed", slog.String("error", err.Error()))

		return nil, err
	}

	logger.InfoContext(ctx, "variant sampled",
		slog.Duration("elapsed", time.Since(start)),
	)

	return samples, nil
}

func (s *Sampler) measure(
	ctx context.Context,
	logger *slog.Logger,
	p harness.Parametrization,
) (*harness.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := s.Metrics.TrackInFlight()
	defer done()

	start := time.Now()
	res, err := s.Executor.Run(ctx, p)
	s.Metrics.ObservePoint(p.Operator, time.Since(start), err)

	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "point measured",
		slog.Int("haystack_size", p.HaystackSize),
		slog.Int("needle_size", p.NeedleSize),
		slog.Int64("avg_time_ns", res.AvgTimeNs),
		slog.Float64("confidence", res.ConfidenceRelative),
	)

	return res, nil
}
