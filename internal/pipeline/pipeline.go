package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/couchcryptid/climate-risk-dashboard/internal/observability"
)

// Extractor reads the raw dataset from its source.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawDataset, error)
}

// Transformer turns the raw dataset into scored records.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawDataset) (domain.ScoredDataset, error)
}

// Loader writes the scored dataset to a destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, ds domain.ScoredDataset) error
}

// Summary reports the outcome of a run.
type Summary struct {
	RunID    string
	Source   string
	RowsRead int
	Records  int
	Skipped  map[domain.SkipReason]int
	Duration time.Duration
}

// Pipeline runs one extract-transform-load pass. The first loader is the
// artifact of record: its failure fails the run. Loaders added with
// WithOptional are retried with backoff and only logged when they give up.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	optional    []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics

	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOptional adds best-effort loaders such as the Kafka publisher.
func WithOptional(loaders ...Loader) Option {
	return func(p *Pipeline) { p.optional = append(p.optional, loaders...) }
}

// WithRetry sets the attempt budget and initial backoff for optional loaders.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(p *Pipeline) {
		p.maxAttempts = max(1, maxAttempts)
		p.backoff = backoff
	}
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		maxAttempts: 3,
		backoff:     200 * time.Millisecond,
		maxBackoff:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline once. Extraction and transform errors fail fast
// and are returned wrapped, so callers can match domain sentinel errors.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	p.logger.Info("pipeline started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	raw, err := p.extractor.Extract(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("extract: %w", err)
	}
	p.metrics.RowsRead.Add(float64(len(raw.Rows)))

	scored, err := p.transformer.Transform(ctx, raw)
	if err != nil {
		return Summary{}, fmt.Errorf("transform: %w", err)
	}
	if scored.RunID == "" {
		scored.RunID = uuid.NewString()
	}

	summary := Summary{
		RunID:    scored.RunID,
		Source:   scored.Source,
		RowsRead: len(raw.Rows),
		Records:  len(scored.Records),
		Skipped:  scored.SkipCounts(),
	}
	for reason, n := range summary.Skipped {
		p.metrics.RowsSkipped.WithLabelValues(string(reason)).Add(float64(n))
	}

	if err := p.loader.Load(ctx, scored); err != nil {
		p.metrics.LoadErrors.WithLabelValues(p.loader.Name()).Inc()
		return Summary{}, fmt.Errorf("load %s: %w", p.loader.Name(), err)
	}
	p.metrics.RecordsWritten.Add(float64(len(scored.Records)))

	for _, l := range p.optional {
		p.loadWithRetry(ctx, l, scored)
	}

	summary.Duration = time.Since(start)
	p.metrics.TransformDuration.Observe(summary.Duration.Seconds())
	p.logger.Info("pipeline finished",
		"run_id", summary.RunID,
		"source", summary.Source,
		"rows_read", summary.RowsRead,
		"records", summary.Records,
		"skipped", summary.Skipped,
		"duration", summary.Duration,
	)
	return summary, nil
}

// loadWithRetry attempts an optional loader with exponential backoff. It
// reports whether the load eventually succeeded.
func (p *Pipeline) loadWithRetry(ctx context.Context, l Loader, ds domain.ScoredDataset) bool {
	backoff := p.backoff
	for attempt := 1; ; attempt++ {
		err := l.Load(ctx, ds)
		if err == nil {
			return true
		}
		p.metrics.LoadErrors.WithLabelValues(l.Name()).Inc()
		p.logger.Warn("optional load failed",
			"loader", l.Name(),
			"attempt", attempt,
			"error", err,
		)
		if attempt >= p.maxAttempts || ctx.Err() != nil {
			p.logger.Error("optional load abandoned", "loader", l.Name(), "attempts", attempt)
			return false
		}
		if !sleepWithContext(ctx, backoff) {
			return false
		}
		backoff = nextBackoff(backoff, p.maxBackoff)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
