package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/artifact"
	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/tealeg/xlsx/v2"
)

// Sheet names in the exported workbook.
const (
	ScoresSheet   = "Scores"
	ManifestSheet = "Manifest"
)

// WriteXLSX writes a workbook with one row per record on the Scores sheet and
// the manifest as key/value rows on the Manifest sheet.
func WriteXLSX(path string, records []domain.CountryYearRecord, m domain.Manifest) error {
	f := xlsx.NewFile()

	scores, err := f.AddSheet(ScoresSheet)
	if err != nil {
		return fmt.Errorf("xlsx: add sheet: %w", err)
	}
	header := scores.AddRow()
	for _, name := range artifact.Header {
		header.AddCell().SetString(name)
	}
	for _, r := range records {
		row := scores.AddRow()
		row.AddCell().SetString(r.Country)
		row.AddCell().SetInt(r.Year)
		for _, v := range []float64{
			r.TempAnomaly, r.CO2Growth, r.SeaLevel,
			r.TempAnomalyZ, r.CO2GrowthNorm, r.SeaLevelZ,
			r.RiskScore,
		} {
			row.AddCell().SetFloat(v)
		}
	}

	meta, err := f.AddSheet(ManifestSheet)
	if err != nil {
		return fmt.Errorf("xlsx: add sheet: %w", err)
	}
	for _, kv := range manifestRows(m) {
		row := meta.AddRow()
		row.AddCell().SetString(kv[0])
		row.AddCell().SetString(kv[1])
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("xlsx: save %s: %w", path, err)
	}
	return nil
}

// manifestRows flattens a manifest into ordered key/value pairs.
func manifestRows(m domain.Manifest) [][2]string {
	s := m.Scoring
	rows := [][2]string{
		{"run_id", m.RunID},
		{"generated_at", m.GeneratedAt.Format(time.RFC3339)},
		{"source", m.Source},
		{"records", strconv.Itoa(m.Records)},
		{"countries", strconv.Itoa(m.Countries)},
		{"first_year", strconv.Itoa(m.FirstYear)},
		{"last_year", strconv.Itoa(m.LastYear)},
		{"weights.temp_anomaly", fmtFloat(s.Weights.TempAnomaly)},
		{"weights.co2_growth", fmtFloat(s.Weights.CO2Growth)},
		{"weights.sea_level", fmtFloat(s.Weights.SeaLevel)},
		{"growth_method", string(s.GrowthMethod)},
		{"scope", string(s.Scope)},
		{"missing_policy", string(s.MissingPolicy)},
	}
	for _, reason := range []domain.SkipReason{
		domain.SkipMalformed, domain.SkipYearOutOfRange, domain.SkipEmptyCountry,
		domain.SkipDuplicate, domain.SkipMissingValue,
	} {
		if n, ok := m.Skipped[reason]; ok {
			rows = append(rows, [2]string{"skipped." + string(reason), strconv.Itoa(n)})
		}
	}
	return rows
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
