package domain

import "time"

// Valid year range for dataset rows.
const (
	MinYear = 2000
	MaxYear = 2024
)

// RawRow is one parsed input row before feature engineering. A nil indicator
// means the cell was empty or a recognized missing-value token.
type RawRow struct {
	Line        int
	Country     string
	Year        int
	TempAnomaly *float64
	CO2Growth   *float64
	CO2Emission *float64
	SeaLevel    *float64
}

// SkipReason classifies why an input row did not reach the artifact.
type SkipReason string

const (
	SkipMalformed      SkipReason = "malformed"
	SkipYearOutOfRange SkipReason = "year_out_of_range"
	SkipEmptyCountry   SkipReason = "empty_country"
	SkipDuplicate      SkipReason = "duplicate"
	SkipMissingValue   SkipReason = "missing_value"
)

// SkippedRow records an input row excluded from the output.
type SkippedRow struct {
	Line    int        `json:"line"`
	Country string     `json:"country,omitempty"`
	Year    int        `json:"year,omitempty"`
	Reason  SkipReason `json:"reason"`
	Detail  string     `json:"detail,omitempty"`
}

// RawDataset is the extracted input table.
type RawDataset struct {
	Source  string
	Rows    []RawRow
	Skipped []SkippedRow

	// HasGrowth is true when the source carries CO2 growth directly. When false,
	// growth is derived from CO2 emission levels.
	HasGrowth bool
}

// CountryYearRecord is one row of the processed artifact.
type CountryYearRecord struct {
	Country       string  `json:"country"`
	Year          int     `json:"year"`
	TempAnomaly   float64 `json:"temp_anomaly"`
	CO2Growth     float64 `json:"co2_growth"`
	SeaLevel      float64 `json:"sea_level"`
	TempAnomalyZ  float64 `json:"temp_anomaly_z"`
	CO2GrowthNorm float64 `json:"co2_growth_norm"`
	SeaLevelZ     float64 `json:"sea_level_z"`
	RiskScore     float64 `json:"risk_score"`
}

// ScoredDataset is the transform output handed to loaders.
type ScoredDataset struct {
	RunID   string
	Source  string
	Records []CountryYearRecord
	Skipped []SkippedRow
	Config  ScoringConfig
}

// SkipCounts tallies skipped rows by reason.
func (d ScoredDataset) SkipCounts() map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, s := range d.Skipped {
		counts[s.Reason]++
	}
	return counts
}

// Manifest describes an artifact: provenance, coverage and the formula used.
// It is written as a JSON sidecar next to the CSV.
type Manifest struct {
	RunID       string             `json:"run_id,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
	Source      string             `json:"source"`
	Records     int                `json:"records"`
	Countries   int                `json:"countries"`
	FirstYear   int                `json:"first_year"`
	LastYear    int                `json:"last_year"`
	Skipped     map[SkipReason]int `json:"skipped,omitempty"`
	Scoring     ScoringConfig      `json:"scoring"`
}

// NewManifest summarizes a scored dataset, stamping it with the package clock.
func NewManifest(ds ScoredDataset) Manifest {
	m := Manifest{
		RunID:       ds.RunID,
		GeneratedAt: clock.Now().UTC(),
		Source:      ds.Source,
		Records:     len(ds.Records),
		Countries:   len(Countries(ds.Records)),
		Scoring:     ds.Config,
	}
	if years := Years(ds.Records); len(years) > 0 {
		m.FirstYear = years[0]
		m.LastYear = years[len(years)-1]
	}
	if len(ds.Skipped) > 0 {
		m.Skipped = ds.SkipCounts()
	}
	return m
}
