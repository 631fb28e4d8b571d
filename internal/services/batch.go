package services

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dpup/chainage/internal/config"
	"github.com/dpup/chainage/internal/lib/chainage"
	"github.com/dpup/chainage/internal/lib/crs"
	"github.com/dpup/chainage/internal/lib/geo"
	"github.com/dpup/chainage/internal/lib/source"
	"github.com/dpup/chainage/internal/metrics"
)

// BatchService stamps chainage points on every feature of a layer
type BatchService struct {
	generator *chainage.Generator
	policy    chainage.Policy
	crs       crs.Context
	config    *config.Config
	logger    *zap.SugaredLogger
	metrics   *metrics.Metrics
}

// Failure records a feature that produced no points
type Failure struct {
	FeatureID any
	Err       error
}

// Summary describes one Run
type Summary struct {
	RunID     string
	Processed int
	Skipped   int
	Points    int
	Failures  []Failure
	Duration  time.Duration
}

// NewBatchService creates a new BatchService from a validated configuration.
// A nil logger discards logs and nil metrics are kept unregistered.
func NewBatchService(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*BatchService, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	ctx, err := cfg.CRS()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &BatchService{
		generator: chainage.NewGenerator(cfg.Project.Ellipsoid),
		policy:    policy,
		crs:       ctx,
		config:    cfg,
		logger:    logger.Sugar(),
		metrics:   m,
	}, nil
}

// CRS returns the coordinate system the service interprets features in.
func (s *BatchService) CRS() crs.Context {
	return s.crs
}

// job is one line to process; exploded multi-part features yield several.
type job struct {
	feature source.Feature
	part    int
}

type outcome struct {
	points []chainage.Point
	err    error
}

// Run generates points for every feature. Feature errors never abort the
// run; they are logged and reported in the summary. Points come back in
// input order regardless of how workers interleave. Run only fails when ctx
// is cancelled.
func (s *BatchService) Run(ctx context.Context, features []source.Feature) ([]chainage.Point, Summary, error) {
	started := time.Now()
	summary := Summary{RunID: uuid.NewString()}

	jobs := s.jobs(features)
	outcomes := make([]outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i := range jobs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.metrics.ActiveWorkers.Inc()
			defer s.metrics.ActiveWorkers.Dec()

			outcomes[i] = s.process(jobs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, summary, err
	}

	var points []chainage.Point
	for i, o := range outcomes {
		id := jobs[i].feature.ID
		if o.err != nil {
			summary.Skipped++
			summary.Failures = append(summary.Failures, Failure{FeatureID: id, Err: o.err})
			s.metrics.FeaturesSkipped.WithLabelValues(reason(o.err)).Inc()
			s.logger.Warnw("Skipping feature",
				"run_id", summary.RunID,
				"feature_id", id,
				"part", jobs[i].part,
				"error", o.err,
			)
			continue
		}
		summary.Processed++
		summary.Points += len(o.points)
		s.metrics.FeaturesProcessed.Inc()
		s.metrics.PointsGenerated.Add(float64(len(o.points)))
		points = append(points, o.points...)
	}

	summary.Duration = time.Since(started)
	s.logger.Infow("Chainage run complete",
		"run_id", summary.RunID,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"points", summary.Points,
		"duration", summary.Duration,
	)
	return points, summary, nil
}

func (s *BatchService) process(j job) outcome {
	if j.feature.Err != nil {
		return outcome{err: &chainage.InvalidGeometryError{Err: j.feature.Err}}
	}
	timer := time.Now()
	defer func() { s.metrics.LineDuration.Observe(time.Since(timer).Seconds()) }()

	points, err := s.generator.Generate(j.feature.Geometry, s.policy, s.crs,
		chainage.WithSource(j.feature.ID),
		chainage.WithAttributes(j.feature.Properties, s.config.Chainage.CopyAttributes...),
	)
	return outcome{points: points, err: err}
}

// jobs expands the feature list, splitting multi-part lines when configured.
func (s *BatchService) jobs(features []source.Feature) []job {
	out := make([]job, 0, len(features))
	for _, f := range features {
		if !s.config.Batch.ExplodeMultipart {
			out = append(out, job{feature: f})
			continue
		}
		parts, err := geo.Parts(f.Geometry)
		if err != nil || len(parts) <= 1 {
			out = append(out, job{feature: f})
			continue
		}
		for i, part := range parts {
			pf := f
			pf.Geometry = part
			out = append(out, job{feature: pf, part: i})
		}
	}
	return out
}

func (s *BatchService) workers() int {
	if n := s.config.Batch.Workers; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// reason is the metrics label for a feature error.
func reason(err error) string {
	switch {
	case errors.Is(err, chainage.ErrInvalidGeometry):
		return "invalid_geometry"
	case errors.Is(err, chainage.ErrInvalidSpacing):
		return "invalid_spacing"
	case errors.Is(err, chainage.ErrInvalidPolicy):
		return "invalid_policy"
	case errors.Is(err, chainage.ErrMeasurementUnavailable):
		return "measurement_unavailable"
	}
	return "other"
}
