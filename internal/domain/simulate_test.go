package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulationBase() RawDataset {
	return RawDataset{
		Source: "kaggle",
		Rows: []RawRow{
			{Country: "Mozambique", Year: 2019, TempAnomaly: Float(10), CO2Emission: Float(100), SeaLevel: Float(5)},
			{Country: "Zimbabwe", Year: 2019, TempAnomaly: Float(8), CO2Emission: Float(50), SeaLevel: nil},
			{Country: "Zimbabwe", Year: 2018, TempAnomaly: Float(1), CO2Emission: Float(1), SeaLevel: Float(1)},
		},
		Skipped: []SkippedRow{{Line: 7, Reason: SkipMalformed}},
	}
}

func TestSimulateYears(t *testing.T) {
	sim := DefaultScoringConfig().Simulate
	sim.FromYear, sim.ToYear = 2000, 2004

	out := SimulateYears(simulationBase(), 2019, sim)

	require.Len(t, out.Rows, 10, "two base rows across five years")
	assert.Equal(t, "kaggle", out.Source)
	assert.Len(t, out.Skipped, 1)

	for _, r := range out.Rows {
		assert.True(t, r.Year >= 2000 && r.Year <= 2004)
		switch r.Country {
		case "Mozambique":
			assert.InDelta(t, 10, *r.TempAnomaly, 10*sim.TempVariation)
			assert.InDelta(t, 100, *r.CO2Emission, 100*sim.EmissionVariation)
			assert.InDelta(t, 5, *r.SeaLevel, 5*sim.SeaVariation)
		case "Zimbabwe":
			assert.Nil(t, r.SeaLevel, "missing stays missing")
			assert.InDelta(t, 8, *r.TempAnomaly, 8*sim.TempVariation)
		default:
			t.Fatalf("unexpected country %q", r.Country)
		}
	}
}

func TestSimulateYears_Deterministic(t *testing.T) {
	sim := DefaultScoringConfig().Simulate

	a := SimulateYears(simulationBase(), 2019, sim)
	b := SimulateYears(simulationBase(), 2019, sim)
	assert.Equal(t, a, b)

	sim.Seed++
	c := SimulateYears(simulationBase(), 2019, sim)
	assert.NotEqual(t, *a.Rows[0].TempAnomaly, *c.Rows[0].TempAnomaly)
}

func TestSimulateYears_ZeroVariation(t *testing.T) {
	sim := SimulationConfig{Enabled: true, FromYear: 2020, ToYear: 2021, Seed: 1}

	out := SimulateYears(simulationBase(), 2019, sim)

	require.Len(t, out.Rows, 4)
	assert.Equal(t, 10.0, *out.Rows[0].TempAnomaly)
	assert.Equal(t, 2020, out.Rows[0].Year)
	assert.Equal(t, 2021, out.Rows[3].Year)
}

func TestSimulatedScoresCoverEveryYear(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.BaseYear = 2019
	raw := SimulateYears(simulationBase(), cfg.BaseYear, cfg.Simulate)

	out, err := ComputeFeatures(raw, cfg)
	require.NoError(t, err)

	assert.Equal(t, 25, len(Years(out.Records)))
	// Zimbabwe has no sea level and is dropped every year.
	assert.Equal(t, []string{"Mozambique"}, Countries(out.Records))
	assert.Equal(t, 25+1, len(out.Skipped))
}
