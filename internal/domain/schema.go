package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Canonical input columns.
const (
	ColCountry     = "country"
	ColYear        = "year"
	ColTempAnomaly = "temp_anomaly"
	ColCO2Growth   = "co2_growth"
	ColCO2Emission = "co2_emission"
	ColSeaLevel    = "sea_level"
)

// Schema maps each canonical column to the header aliases that may carry it.
type Schema map[string][]string

// DefaultSchema is the input contract. The CRI, losses and fatalities aliases
// cover the Kaggle release, which has no climate columns of its own.
func DefaultSchema() Schema {
	return Schema{
		ColCountry:     {"country", "rw_country_name", "country_name"},
		ColYear:        {"year"},
		ColTempAnomaly: {"temp_anomaly", "temperature_anomaly", "cri_score", "climate_risk_index", "cri"},
		ColCO2Growth:   {"co2_growth"},
		ColCO2Emission: {"co2_emission", "co2_emissions", "losses_usdm_ppp_total", "losses_per_gdp_total"},
		ColSeaLevel:    {"sea_level", "sea_level_change", "fatalities_total", "fatalities_per_100k_total"},
	}
}

// ColumnMap holds the header index of each canonical column, -1 when absent.
type ColumnMap map[string]int

// Index returns the header index for a canonical column, or -1.
func (m ColumnMap) Index(col string) int {
	if i, ok := m[col]; ok {
		return i
	}
	return -1
}

// NormalizeColumn lowercases a header and collapses non-alphanumeric runs to "_".
func NormalizeColumn(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Resolve matches raw headers against the schema. requireYear is false when a
// base year can stand in for a missing year column.
func (s Schema) Resolve(headers []string, requireYear bool) (ColumnMap, error) {
	positions := make(map[string]int, len(headers))
	for i, h := range headers {
		n := NormalizeColumn(h)
		if _, dup := positions[n]; !dup {
			positions[n] = i
		}
	}

	cols := make(ColumnMap, len(s))
	for canonical, aliases := range s {
		cols[canonical] = -1
		for _, alias := range aliases {
			if i, ok := positions[alias]; ok {
				cols[canonical] = i
				break
			}
		}
	}

	var missing []string
	for _, col := range []string{ColCountry, ColTempAnomaly, ColSeaLevel} {
		if cols.Index(col) < 0 {
			missing = append(missing, col)
		}
	}
	if requireYear && cols.Index(ColYear) < 0 {
		missing = append(missing, ColYear)
	}
	if cols.Index(ColCO2Growth) < 0 && cols.Index(ColCO2Emission) < 0 {
		missing = append(missing, ColCO2Growth+"|"+ColCO2Emission)
	}

	if len(missing) > 0 {
		available := make([]string, 0, len(positions))
		for n := range positions {
			available = append(available, n)
		}
		sort.Strings(available)
		return nil, fmt.Errorf("%w: missing columns %v, available %v", ErrSchemaMismatch, missing, available)
	}
	return cols, nil
}
