package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
)

// ScoringEnvPrefix prefixes environment overrides of scoring keys, e.g.
// CLIMATE_WEIGHTS_TEMP_ANOMALY=0.6 or CLIMATE_SCOPE=global.
const ScoringEnvPrefix = "CLIMATE"

// LoadScoring reads the scoring formula from a YAML file. An empty path
// searches ./scoring.yaml and falls back to the defaults when it is absent;
// an explicit path must exist. Environment overrides apply in both cases.
func LoadScoring(path string) (domain.ScoringConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(ScoringEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setScoringDefaults(v, domain.DefaultScoringConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scoring")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return domain.ScoringConfig{}, fmt.Errorf("read scoring config: %w", err)
		}
	}

	var cfg domain.ScoringConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.ScoringConfig{}, fmt.Errorf("decode scoring config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return domain.ScoringConfig{}, fmt.Errorf("invalid scoring config: %w", err)
	}
	return cfg, nil
}

// setScoringDefaults registers every key so AutomaticEnv can override it
// during Unmarshal.
func setScoringDefaults(v *viper.Viper, d domain.ScoringConfig) {
	v.SetDefault("weights.temp_anomaly", d.Weights.TempAnomaly)
	v.SetDefault("weights.co2_growth", d.Weights.CO2Growth)
	v.SetDefault("weights.sea_level", d.Weights.SeaLevel)
	v.SetDefault("scope", string(d.Scope))
	v.SetDefault("growth_method", string(d.GrowthMethod))
	v.SetDefault("missing_policy", string(d.MissingPolicy))
	v.SetDefault("base_year", d.BaseYear)
	v.SetDefault("simulate.enabled", d.Simulate.Enabled)
	v.SetDefault("simulate.from_year", d.Simulate.FromYear)
	v.SetDefault("simulate.to_year", d.Simulate.ToYear)
	v.SetDefault("simulate.seed", d.Simulate.Seed)
	v.SetDefault("simulate.temp_variation", d.Simulate.TempVariation)
	v.SetDefault("simulate.emission_variation", d.Simulate.EmissionVariation)
	v.SetDefault("simulate.sea_variation", d.Simulate.SeaVariation)
}
