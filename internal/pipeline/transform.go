package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
)

// ScoreTransformer implements Transformer using the domain scoring functions,
// with optional multi-year simulation ahead of feature engineering.
type ScoreTransformer struct {
	cfg    domain.ScoringConfig
	logger *slog.Logger
}

// NewTransformer creates a ScoreTransformer for a validated scoring config.
func NewTransformer(cfg domain.ScoringConfig, logger *slog.Logger) *ScoreTransformer {
	return &ScoreTransformer{cfg: cfg, logger: logger}
}

func (t *ScoreTransformer) Transform(ctx context.Context, raw domain.RawDataset) (domain.ScoredDataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.ScoredDataset{}, err
	}

	if t.cfg.Simulate.Enabled {
		before := len(raw.Rows)
		raw = domain.SimulateYears(raw, t.cfg.BaseYear, t.cfg.Simulate)
		t.logger.Info("simulated yearly series",
			"base_year", t.cfg.BaseYear,
			"from_year", t.cfg.Simulate.FromYear,
			"to_year", t.cfg.Simulate.ToYear,
			"seed", t.cfg.Simulate.Seed,
			"rows_in", before,
			"rows_out", len(raw.Rows),
		)
	}

	scored, err := domain.ComputeFeatures(raw, t.cfg)
	if err != nil {
		return domain.ScoredDataset{}, err
	}

	dropped := len(scored.Skipped) - len(raw.Skipped)
	for _, s := range scored.Skipped[len(raw.Skipped):] {
		t.logger.Warn("dropping row with missing values",
			"line", s.Line,
			"country", s.Country,
			"year", s.Year,
			"detail", s.Detail,
		)
	}
	t.logger.Info("features computed",
		"records", len(scored.Records),
		"dropped_missing", dropped,
		"scope", t.cfg.Scope,
		"growth_method", t.cfg.GrowthMethod,
		"missing_policy", t.cfg.MissingPolicy,
	)
	return scored, nil
}
