package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScoring(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScoring_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadScoring("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultScoringConfig(), cfg)
}

func TestLoadScoring_File(t *testing.T) {
	path := writeScoring(t, `
weights:
  temp_anomaly: 0.4
  co2_growth: 0.4
  sea_level: 0.2
scope: global
growth_method: minmax
missing_policy: impute_mean
base_year: 2019
simulate:
  enabled: true
  seed: 7
`)

	cfg, err := LoadScoring(path)
	require.NoError(t, err)

	assert.Equal(t, domain.Weights{TempAnomaly: 0.4, CO2Growth: 0.4, SeaLevel: 0.2}, cfg.Weights)
	assert.Equal(t, domain.ScopeGlobal, cfg.Scope)
	assert.Equal(t, domain.GrowthMinMax, cfg.GrowthMethod)
	assert.Equal(t, domain.MissingImputeMean, cfg.MissingPolicy)
	assert.Equal(t, 2019, cfg.BaseYear)
	assert.True(t, cfg.Simulate.Enabled)
	assert.Equal(t, uint64(7), cfg.Simulate.Seed)
	// unspecified keys keep their defaults
	assert.Equal(t, domain.MinYear, cfg.Simulate.FromYear)
	assert.Equal(t, 0.25, cfg.Simulate.EmissionVariation)
}

func TestLoadScoring_EnvOverride(t *testing.T) {
	path := writeScoring(t, "scope: country\n")
	t.Setenv("CLIMATE_SCOPE", "global")
	t.Setenv("CLIMATE_WEIGHTS_TEMP_ANOMALY", "0.7")

	cfg, err := LoadScoring(path)
	require.NoError(t, err)
	assert.Equal(t, domain.ScopeGlobal, cfg.Scope)
	assert.Equal(t, 0.7, cfg.Weights.TempAnomaly)
	assert.Equal(t, 0.3, cfg.Weights.CO2Growth)
}

func TestLoadScoring_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantMsg string
	}{
		{"missing explicit file", filepath.Join(t.TempDir(), "absent.yaml"), "read scoring config"},
		{"malformed yaml", writeScoring(t, "weights: [unclosed\n"), "read scoring config"},
		{"unknown scope", writeScoring(t, "scope: continent\n"), "continent"},
		{"simulate without base year", writeScoring(t, "simulate:\n  enabled: true\n"), "base_year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScoring(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadScoring_ShippedExampleMatchesDefaults(t *testing.T) {
	cfg, err := LoadScoring(filepath.Join("..", "..", "configs", "scoring.yaml"))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultScoringConfig(), cfg)
}
