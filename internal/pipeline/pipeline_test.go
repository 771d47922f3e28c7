package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/couchcryptid/climate-risk-dashboard/internal/observability"
	"github.com/couchcryptid/climate-risk-dashboard/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	ds  domain.RawDataset
	err error
}

func (m *mockExtractor) Extract(_ context.Context) (domain.RawDataset, error) {
	return m.ds, m.err
}

type mockTransformer struct {
	err   error
	calls int
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawDataset) (domain.ScoredDataset, error) {
	m.calls++
	if m.err != nil {
		return domain.ScoredDataset{}, m.err
	}
	out := domain.ScoredDataset{Source: raw.Source, Skipped: raw.Skipped}
	for _, r := range raw.Rows {
		out.Records = append(out.Records, domain.CountryYearRecord{Country: r.Country, Year: r.Year})
	}
	return out, nil
}

type mockLoader struct {
	name     string
	failures int // number of leading calls that fail
	calls    int
	loaded   []domain.ScoredDataset
}

func (m *mockLoader) Name() string { return m.name }

func (m *mockLoader) Load(_ context.Context, ds domain.ScoredDataset) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("sink unavailable")
	}
	m.loaded = append(m.loaded, ds)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Unregistered metrics avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawFixture() domain.RawDataset {
	return domain.RawDataset{
		Source: "fixture.csv",
		Rows: []domain.RawRow{
			{Country: "Testland", Year: 2010},
			{Country: "Aland", Year: 2010},
		},
		Skipped: []domain.SkippedRow{{Line: 4, Reason: domain.SkipDuplicate}},
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{ds: rawFixture()}
	tfm := &mockTransformer{}
	ldr := &mockLoader{name: "artifact"}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, discardLogger(), metrics)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ldr.loaded, 1)
	assert.Len(t, ldr.loaded[0].Records, 2)
	assert.Equal(t, "fixture.csv", summary.Source)
	assert.Len(t, summary.RunID, 36)
	assert.Equal(t, summary.RunID, ldr.loaded[0].RunID, "loaders see the run ID")
	assert.Equal(t, 2, summary.RowsRead)
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, map[domain.SkipReason]int{domain.SkipDuplicate: 1}, summary.Skipped)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RowsRead))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RowsSkipped.WithLabelValues("duplicate")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ExtractError(t *testing.T) {
	ext := &mockExtractor{err: domain.ErrDataUnavailable}
	tfm := &mockTransformer{}
	ldr := &mockLoader{name: "artifact"}

	p := pipeline.New(ext, tfm, ldr, discardLogger(), newTestMetrics())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
	assert.Zero(t, tfm.calls)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_TransformError(t *testing.T) {
	ext := &mockExtractor{ds: rawFixture()}
	tfm := &mockTransformer{err: errors.New("bad config")}
	ldr := &mockLoader{name: "artifact"}

	p := pipeline.New(ext, tfm, ldr, discardLogger(), newTestMetrics())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform")
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_PrimaryLoadErrorFails(t *testing.T) {
	ldr := &mockLoader{name: "artifact", failures: 1}
	opt := &mockLoader{name: "kafka"}
	metrics := newTestMetrics()

	p := pipeline.New(&mockExtractor{ds: rawFixture()}, &mockTransformer{}, ldr, discardLogger(), metrics,
		pipeline.WithOptional(opt))

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load artifact")
	assert.Equal(t, 1, ldr.calls, "primary loader is not retried")
	assert.Zero(t, opt.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoadErrors.WithLabelValues("artifact")))
}

func TestPipeline_Run_OptionalLoaderRetries(t *testing.T) {
	ldr := &mockLoader{name: "artifact"}
	opt := &mockLoader{name: "kafka", failures: 2}
	metrics := newTestMetrics()

	p := pipeline.New(&mockExtractor{ds: rawFixture()}, &mockTransformer{}, ldr, discardLogger(), metrics,
		pipeline.WithOptional(opt), pipeline.WithRetry(3, time.Millisecond))

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, opt.calls)
	assert.Len(t, opt.loaded, 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.LoadErrors.WithLabelValues("kafka")))
}

func TestPipeline_Run_OptionalLoaderGivesUp(t *testing.T) {
	ldr := &mockLoader{name: "artifact"}
	opt := &mockLoader{name: "kafka", failures: 10}

	p := pipeline.New(&mockExtractor{ds: rawFixture()}, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(),
		pipeline.WithOptional(opt), pipeline.WithRetry(2, time.Millisecond))

	_, err := p.Run(context.Background())
	require.NoError(t, err, "optional loader failures do not fail the run")
	assert.Equal(t, 2, opt.calls)
	assert.Len(t, ldr.loaded, 1)
}

func TestPipeline_Run_OptionalLoaderStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ldr := &mockLoader{name: "artifact"}
	opt := &cancelingLoader{cancel: cancel}

	p := pipeline.New(&mockExtractor{ds: rawFixture()}, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(),
		pipeline.WithOptional(opt), pipeline.WithRetry(5, time.Hour))

	_, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, opt.calls)
}

type cancelingLoader struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancelingLoader) Name() string { return "kafka" }

func (c *cancelingLoader) Load(_ context.Context, _ domain.ScoredDataset) error {
	c.calls++
	c.cancel()
	return errors.New("broker gone")
}

func TestScoreTransformer_Transform(t *testing.T) {
	raw := domain.RawDataset{
		HasGrowth: true,
		Rows: []domain.RawRow{
			{Country: "Testland", Year: 2010, TempAnomaly: domain.Float(1.2), CO2Growth: domain.Float(0.03), SeaLevel: domain.Float(2.1)},
			{Country: "Aland", Year: 2010, TempAnomaly: domain.Float(0.8), CO2Growth: domain.Float(0.01), SeaLevel: domain.Float(1.5)},
			{Line: 9, Country: "Borduria", Year: 2010, TempAnomaly: domain.Float(1.0), SeaLevel: domain.Float(3.0)},
		},
	}

	tfm := pipeline.NewTransformer(domain.DefaultScoringConfig(), discardLogger())
	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	require.Len(t, out.Records, 2)
	assert.Equal(t, "Aland", out.Records[0].Country)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, domain.SkipMissingValue, out.Skipped[0].Reason)
}

func TestScoreTransformer_Simulate(t *testing.T) {
	cfg := domain.DefaultScoringConfig()
	cfg.BaseYear = 2019
	cfg.Simulate.Enabled = true
	cfg.Simulate.FromYear, cfg.Simulate.ToYear = 2020, 2022

	raw := domain.RawDataset{
		Rows: []domain.RawRow{
			{Country: "Mozambique", Year: 2019, TempAnomaly: domain.Float(6.2), CO2Emission: domain.Float(4930), SeaLevel: domain.Float(1016)},
			{Country: "Zimbabwe", Year: 2019, TempAnomaly: domain.Float(6.7), CO2Emission: domain.Float(1169), SeaLevel: domain.Float(352)},
		},
	}

	out, err := pipeline.NewTransformer(cfg, discardLogger()).Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Len(t, out.Records, 6)
	assert.Equal(t, []int{2020, 2021, 2022}, domain.Years(out.Records))
}

func TestScoreTransformer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.NewTransformer(domain.DefaultScoringConfig(), discardLogger()).Transform(ctx, domain.RawDataset{})
	assert.ErrorIs(t, err, context.Canceled)
}
