package domain

import (
	"fmt"
	"sort"
)

// DefaultTopK is the leaderboard size when none is requested.
const DefaultTopK = 10

// preferredCountries seed the trend view when present in the data.
var preferredCountries = []string{"India", "Bangladesh", "Philippines", "Honduras"}

// Metric names a plottable column of CountryYearRecord.
type Metric string

const (
	MetricRiskScore     Metric = "risk_score"
	MetricTempAnomaly   Metric = "temp_anomaly"
	MetricCO2Growth     Metric = "co2_growth"
	MetricSeaLevel      Metric = "sea_level"
	MetricTempAnomalyZ  Metric = "temp_anomaly_z"
	MetricCO2GrowthNorm Metric = "co2_growth_norm"
	MetricSeaLevelZ     Metric = "sea_level_z"
)

// Metrics lists every selectable metric in display order.
func Metrics() []Metric {
	return []Metric{
		MetricRiskScore, MetricTempAnomaly, MetricCO2Growth, MetricSeaLevel,
		MetricTempAnomalyZ, MetricCO2GrowthNorm, MetricSeaLevelZ,
	}
}

// ParseMetric validates a metric name. Empty selects the risk score.
func ParseMetric(s string) (Metric, error) {
	if s == "" {
		return MetricRiskScore, nil
	}
	for _, m := range Metrics() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Value reads the metric from a record.
func (m Metric) Value(r CountryYearRecord) float64 {
	switch m {
	case MetricTempAnomaly:
		return r.TempAnomaly
	case MetricCO2Growth:
		return r.CO2Growth
	case MetricSeaLevel:
		return r.SeaLevel
	case MetricTempAnomalyZ:
		return r.TempAnomalyZ
	case MetricCO2GrowthNorm:
		return r.CO2GrowthNorm
	case MetricSeaLevelZ:
		return r.SeaLevelZ
	default:
		return r.RiskScore
	}
}

// Years returns the distinct years in ascending order.
func Years(records []CountryYearRecord) []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range records {
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}
	sort.Ints(years)
	return years
}

// Countries returns the distinct countries in ascending order.
func Countries(records []CountryYearRecord) []string {
	seen := make(map[string]bool)
	var countries []string
	for _, r := range records {
		if !seen[r.Country] {
			seen[r.Country] = true
			countries = append(countries, r.Country)
		}
	}
	sort.Strings(countries)
	return countries
}

// LatestYear returns the most recent year, or 0 for an empty dataset.
func LatestYear(records []CountryYearRecord) int {
	latest := 0
	for _, r := range records {
		latest = max(latest, r.Year)
	}
	return latest
}

// DefaultCountries picks the trend selection: the preferred countries that are
// present, otherwise the first three alphabetically.
func DefaultCountries(countries []string) []string {
	present := make(map[string]bool, len(countries))
	for _, c := range countries {
		present[c] = true
	}
	var picked []string
	for _, c := range preferredCountries {
		if present[c] {
			picked = append(picked, c)
		}
	}
	if len(picked) > 0 {
		return picked
	}
	return countries[:min(3, len(countries))]
}

// FilterYear returns the records of one year, in input order.
func FilterYear(records []CountryYearRecord, year int) []CountryYearRecord {
	var out []CountryYearRecord
	for _, r := range records {
		if r.Year == year {
			out = append(out, r)
		}
	}
	return out
}

// LeaderboardEntry is a ranked record.
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	CountryYearRecord
}

// Leaderboard ranks a year's records by risk score descending, breaking ties
// by country name ascending, and keeps the top k. k <= 0 selects DefaultTopK.
func Leaderboard(records []CountryYearRecord, year, k int) []LeaderboardEntry {
	if k <= 0 {
		k = DefaultTopK
	}
	rows := FilterYear(records, year)
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].RiskScore != rows[b].RiskScore {
			return rows[a].RiskScore > rows[b].RiskScore
		}
		return rows[a].Country < rows[b].Country
	})

	rows = rows[:min(k, len(rows))]
	out := make([]LeaderboardEntry, len(rows))
	for i, r := range rows {
		out[i] = LeaderboardEntry{Rank: i + 1, CountryYearRecord: r}
	}
	return out
}

// TrendPoint is one year of a series.
type TrendPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// TrendSeries is one country's metric across years.
type TrendSeries struct {
	Country string       `json:"country"`
	Points  []TrendPoint `json:"points"`
}

// Trend builds one series per requested country, ordered by year. Countries
// absent from the data yield no series.
func Trend(records []CountryYearRecord, countries []string, metric Metric) []TrendSeries {
	byCountry := make(map[string][]TrendPoint)
	for _, r := range records {
		byCountry[r.Country] = append(byCountry[r.Country], TrendPoint{Year: r.Year, Value: metric.Value(r)})
	}

	var out []TrendSeries
	seen := make(map[string]bool)
	for _, c := range countries {
		points, ok := byCountry[c]
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		sort.Slice(points, func(a, b int) bool { return points[a].Year < points[b].Year })
		out = append(out, TrendSeries{Country: c, Points: points})
	}
	return out
}

// Overview holds the headline figures for a year.
type Overview struct {
	Year           int     `json:"year"`
	Countries      int     `json:"countries"`
	AvgRiskScore   float64 `json:"avg_risk_score"`
	TopCountry     string  `json:"top_country"`
	TopRiskScore   float64 `json:"top_risk_score"`
	AvgTempAnomaly float64 `json:"avg_temp_anomaly"`
}

// Summarize computes the overview for a year. An empty year yields zero
// values and TopCountry "-".
func Summarize(records []CountryYearRecord, year int) Overview {
	ov := Overview{Year: year, TopCountry: "-"}
	rows := FilterYear(records, year)
	if len(rows) == 0 {
		return ov
	}

	var risk, temp float64
	for _, r := range rows {
		risk += r.RiskScore
		temp += r.TempAnomaly
	}
	top := Leaderboard(rows, year, 1)[0]

	ov.Countries = len(rows)
	ov.AvgRiskScore = risk / float64(len(rows))
	ov.AvgTempAnomaly = temp / float64(len(rows))
	ov.TopCountry = top.Country
	ov.TopRiskScore = top.RiskScore
	return ov
}
