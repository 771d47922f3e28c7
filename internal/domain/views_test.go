package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewRecords() []CountryYearRecord {
	return []CountryYearRecord{
		{Country: "Chad", Year: 2011, RiskScore: 0.9, TempAnomaly: 1.4},
		{Country: "Aland", Year: 2010, RiskScore: 0.5, TempAnomaly: 1.0},
		{Country: "Borduria", Year: 2010, RiskScore: 0.5, TempAnomaly: 0.6},
		{Country: "Chad", Year: 2010, RiskScore: 0.8, TempAnomaly: 1.1},
		{Country: "Dorne", Year: 2010, RiskScore: -0.3, TempAnomaly: 0.1},
		{Country: "Aland", Year: 2011, RiskScore: 0.2, TempAnomaly: 1.2},
	}
}

func TestLeaderboard(t *testing.T) {
	tests := []struct {
		name      string
		year, k   int
		countries []string
	}{
		{"descending with country tiebreak", 2010, 3, []string{"Chad", "Aland", "Borduria"}},
		{"k larger than year", 2010, 50, []string{"Chad", "Aland", "Borduria", "Dorne"}},
		{"default k", 2010, 0, []string{"Chad", "Aland", "Borduria", "Dorne"}},
		{"other year", 2011, 1, []string{"Chad"}},
		{"empty year", 1999, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := Leaderboard(viewRecords(), tt.year, tt.k)
			var got []string
			for i, e := range board {
				assert.Equal(t, i+1, e.Rank)
				got = append(got, e.Country)
			}
			assert.Equal(t, tt.countries, got)
		})
	}
}

func TestLeaderboard_NonIncreasing(t *testing.T) {
	board := Leaderboard(viewRecords(), 2010, 10)
	for i := 1; i < len(board); i++ {
		assert.GreaterOrEqual(t, board[i-1].RiskScore, board[i].RiskScore)
	}
}

func TestTrend(t *testing.T) {
	series := Trend(viewRecords(), []string{"Chad", "Atlantis", "Aland", "Chad"}, MetricTempAnomaly)

	want := []TrendSeries{
		{Country: "Chad", Points: []TrendPoint{{2010, 1.1}, {2011, 1.4}}},
		{Country: "Aland", Points: []TrendPoint{{2010, 1.0}, {2011, 1.2}}},
	}
	if diff := cmp.Diff(want, series); diff != "" {
		t.Errorf("Trend mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	ov := Summarize(viewRecords(), 2010)

	assert.Equal(t, 2010, ov.Year)
	assert.Equal(t, 4, ov.Countries)
	assert.InDelta(t, 0.375, ov.AvgRiskScore, 1e-9)
	assert.InDelta(t, 0.7, ov.AvgTempAnomaly, 1e-9)
	assert.Equal(t, "Chad", ov.TopCountry)
	assert.Equal(t, 0.8, ov.TopRiskScore)
}

func TestSummarize_EmptyYear(t *testing.T) {
	ov := Summarize(viewRecords(), 1999)
	assert.Equal(t, Overview{Year: 1999, TopCountry: "-"}, ov)
}

func TestYearsCountriesLatest(t *testing.T) {
	records := viewRecords()
	assert.Equal(t, []int{2010, 2011}, Years(records))
	assert.Equal(t, []string{"Aland", "Borduria", "Chad", "Dorne"}, Countries(records))
	assert.Equal(t, 2011, LatestYear(records))
	assert.Zero(t, LatestYear(nil))
}

func TestDefaultCountries(t *testing.T) {
	assert.Equal(t, []string{"India", "Honduras"}, DefaultCountries([]string{"Chile", "Honduras", "India"}))
	assert.Equal(t, []string{"A", "B", "C"}, DefaultCountries([]string{"A", "B", "C", "D"}))
	assert.Equal(t, []string{"A"}, DefaultCountries([]string{"A"}))
	assert.Empty(t, DefaultCountries(nil))
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricRiskScore, m)

	for _, want := range Metrics() {
		got, err := ParseMetric(string(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = ParseMetric("gdp")
	assert.Error(t, err)
}

func TestMetricValue(t *testing.T) {
	r := CountryYearRecord{
		TempAnomaly: 1, CO2Growth: 2, SeaLevel: 3,
		TempAnomalyZ: 4, CO2GrowthNorm: 5, SeaLevelZ: 6, RiskScore: 7,
	}
	want := map[Metric]float64{
		MetricTempAnomaly: 1, MetricCO2Growth: 2, MetricSeaLevel: 3,
		MetricTempAnomalyZ: 4, MetricCO2GrowthNorm: 5, MetricSeaLevelZ: 6, MetricRiskScore: 7,
	}
	for m, v := range want {
		assert.Equal(t, v, m.Value(r), string(m))
	}
}
