package domain

import (
	"errors"
	"fmt"
	"math"
)

// NormalizationScope selects the population a value is compared against.
type NormalizationScope string

const (
	ScopeYear    NormalizationScope = "year"
	ScopeCountry NormalizationScope = "country"
	ScopeGlobal  NormalizationScope = "global"
)

// GrowthMethod selects the bounded scaling applied to CO2 growth.
type GrowthMethod string

const (
	GrowthPercentile GrowthMethod = "percentile"
	GrowthMinMax     GrowthMethod = "minmax"
)

// MissingPolicy decides what happens to rows with missing indicators.
type MissingPolicy string

const (
	MissingDrop       MissingPolicy = "drop"
	MissingImputeZero MissingPolicy = "impute_zero"
	MissingImputeMean MissingPolicy = "impute_mean"
)

// Weights are the coefficients of the composite score.
type Weights struct {
	TempAnomaly float64 `json:"temp_anomaly" mapstructure:"temp_anomaly"`
	CO2Growth   float64 `json:"co2_growth" mapstructure:"co2_growth"`
	SeaLevel    float64 `json:"sea_level" mapstructure:"sea_level"`
}

// Score combines the three derived features.
func (w Weights) Score(tempZ, growthNorm, seaZ float64) float64 {
	return w.TempAnomaly*tempZ + w.CO2Growth*growthNorm + w.SeaLevel*seaZ
}

// SimulationConfig expands a single-year dataset into a synthetic multi-year
// series. Each indicator is scaled by a factor drawn uniformly from
// [1-variation, 1+variation] using a seeded generator.
type SimulationConfig struct {
	Enabled           bool    `json:"enabled" mapstructure:"enabled"`
	FromYear          int     `json:"from_year" mapstructure:"from_year"`
	ToYear            int     `json:"to_year" mapstructure:"to_year"`
	Seed              uint64  `json:"seed" mapstructure:"seed"`
	TempVariation     float64 `json:"temp_variation" mapstructure:"temp_variation"`
	EmissionVariation float64 `json:"emission_variation" mapstructure:"emission_variation"`
	SeaVariation      float64 `json:"sea_variation" mapstructure:"sea_variation"`
}

// ScoringConfig holds every knob of the feature-engineering step.
type ScoringConfig struct {
	Weights       Weights            `json:"weights" mapstructure:"weights"`
	Scope         NormalizationScope `json:"scope" mapstructure:"scope"`
	GrowthMethod  GrowthMethod       `json:"growth_method" mapstructure:"growth_method"`
	MissingPolicy MissingPolicy      `json:"missing_policy" mapstructure:"missing_policy"`

	// BaseYear is assigned to rows when the dataset has no year column, and is
	// the year simulation projects from. Zero makes the year column mandatory.
	BaseYear int              `json:"base_year,omitempty" mapstructure:"base_year"`
	Simulate SimulationConfig `json:"simulate" mapstructure:"simulate"`
}

// DefaultScoringConfig returns the documented formula: 0.5/0.3/0.2 weights,
// per-year z-scores, percentile-ranked growth, rows with missing values dropped.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:       Weights{TempAnomaly: 0.5, CO2Growth: 0.3, SeaLevel: 0.2},
		Scope:         ScopeYear,
		GrowthMethod:  GrowthPercentile,
		MissingPolicy: MissingDrop,
		Simulate: SimulationConfig{
			FromYear:          MinYear,
			ToYear:            MaxYear,
			Seed:              42,
			TempVariation:     0.30,
			EmissionVariation: 0.25,
			SeaVariation:      0.30,
		},
	}
}

// Validate reports the first invalid setting.
func (c ScoringConfig) Validate() error {
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"weights.temp_anomaly", c.Weights.TempAnomaly},
		{"weights.co2_growth", c.Weights.CO2Growth},
		{"weights.sea_level", c.Weights.SeaLevel},
	} {
		if math.IsNaN(w.value) || math.IsInf(w.value, 0) {
			return fmt.Errorf("%s must be finite", w.name)
		}
	}

	switch c.Scope {
	case ScopeYear, ScopeCountry, ScopeGlobal:
	default:
		return fmt.Errorf("unknown normalization scope %q", c.Scope)
	}

	switch c.GrowthMethod {
	case GrowthPercentile, GrowthMinMax:
	default:
		return fmt.Errorf("unknown growth method %q", c.GrowthMethod)
	}

	switch c.MissingPolicy {
	case MissingDrop, MissingImputeZero, MissingImputeMean:
	default:
		return fmt.Errorf("unknown missing policy %q", c.MissingPolicy)
	}

	if c.BaseYear != 0 && (c.BaseYear < MinYear || c.BaseYear > MaxYear) {
		return fmt.Errorf("base_year %d outside [%d, %d]", c.BaseYear, MinYear, MaxYear)
	}

	if c.Simulate.Enabled {
		s := c.Simulate
		if c.BaseYear == 0 {
			return errors.New("simulate requires base_year")
		}
		if s.FromYear < MinYear || s.ToYear > MaxYear || s.FromYear > s.ToYear {
			return fmt.Errorf("simulate years [%d, %d] outside [%d, %d]", s.FromYear, s.ToYear, MinYear, MaxYear)
		}
		for _, v := range []float64{s.TempVariation, s.EmissionVariation, s.SeaVariation} {
			if v < 0 || v >= 1 {
				return fmt.Errorf("simulate variation %g outside [0, 1)", v)
			}
		}
	}
	return nil
}
