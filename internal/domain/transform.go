package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ComputeFeatures derives z-scores, normalized growth and the composite risk
// score for every row that survives the missing-value policy. Output records
// are sorted by country, then year. The input dataset is not modified.
func ComputeFeatures(ds RawDataset, cfg ScoringConfig) (ScoredDataset, error) {
	if err := cfg.Validate(); err != nil {
		return ScoredDataset{}, fmt.Errorf("scoring config: %w", err)
	}

	rows := make([]RawRow, len(ds.Rows))
	copy(rows, ds.Rows)

	if !ds.HasGrowth {
		deriveCO2Growth(rows)
	}

	skipped := make([]SkippedRow, 0, len(ds.Skipped))
	skipped = append(skipped, ds.Skipped...)

	rows, dropped := applyMissingPolicy(rows, cfg)
	skipped = append(skipped, dropped...)

	records := make([]CountryYearRecord, len(rows))
	for _, idx := range groupByScope(rows, cfg.Scope) {
		temps := make([]float64, len(idx))
		growths := make([]float64, len(idx))
		seas := make([]float64, len(idx))
		for k, i := range idx {
			temps[k] = *rows[i].TempAnomaly
			growths[k] = *rows[i].CO2Growth
			seas[k] = *rows[i].SeaLevel
		}

		tempZ := zScores(temps)
		growthNorm := normalizeGrowth(cfg.GrowthMethod, growths)
		seaZ := zScores(seas)

		for k, i := range idx {
			records[i] = CountryYearRecord{
				Country:       rows[i].Country,
				Year:          rows[i].Year,
				TempAnomaly:   temps[k],
				CO2Growth:     growths[k],
				SeaLevel:      seas[k],
				TempAnomalyZ:  tempZ[k],
				CO2GrowthNorm: growthNorm[k],
				SeaLevelZ:     seaZ[k],
				RiskScore:     cfg.Weights.Score(tempZ[k], growthNorm[k], seaZ[k]),
			}
		}
	}

	SortRecords(records)

	return ScoredDataset{
		Source:  ds.Source,
		Records: records,
		Skipped: skipped,
		Config:  cfg,
	}, nil
}

// SortRecords orders records by country, then year.
func SortRecords(records []CountryYearRecord) {
	sort.Slice(records, func(a, b int) bool {
		if records[a].Country != records[b].Country {
			return records[a].Country < records[b].Country
		}
		return records[a].Year < records[b].Year
	})
}

// deriveCO2Growth fills CO2Growth with the per-country percent change of
// CO2Emission between consecutive years. The first year of a country, or a
// year whose predecessor is missing or zero, gets 0. Rows without an emission
// value keep a nil growth.
func deriveCO2Growth(rows []RawRow) {
	byCountry := make(map[string][]int)
	for i, r := range rows {
		byCountry[r.Country] = append(byCountry[r.Country], i)
	}

	for _, idx := range byCountry {
		sort.SliceStable(idx, func(a, b int) bool { return rows[idx[a]].Year < rows[idx[b]].Year })

		var prev *float64
		for _, i := range idx {
			cur := rows[i].CO2Emission
			switch {
			case cur == nil:
				rows[i].CO2Growth = nil
			case prev == nil || *prev == 0:
				rows[i].CO2Growth = Float(0)
			default:
				rows[i].CO2Growth = Float((*cur - *prev) / *prev)
			}
			prev = cur
		}
	}
}

// applyMissingPolicy drops or imputes rows with nil indicators.
func applyMissingPolicy(rows []RawRow, cfg ScoringConfig) ([]RawRow, []SkippedRow) {
	switch cfg.MissingPolicy {
	case MissingImputeZero:
		for i := range rows {
			fillMissing(&rows[i], 0, 0, 0)
		}
		return rows, nil

	case MissingImputeMean:
		for _, idx := range groupByScope(rows, cfg.Scope) {
			var temps, growths, seas []float64
			for _, i := range idx {
				if v := rows[i].TempAnomaly; v != nil {
					temps = append(temps, *v)
				}
				if v := rows[i].CO2Growth; v != nil {
					growths = append(growths, *v)
				}
				if v := rows[i].SeaLevel; v != nil {
					seas = append(seas, *v)
				}
			}
			mt, mg, ms := mean(temps), mean(growths), mean(seas)
			for _, i := range idx {
				fillMissing(&rows[i], mt, mg, ms)
			}
		}
		return rows, nil

	default:
		kept := rows[:0:0]
		var dropped []SkippedRow
		for _, r := range rows {
			if missing := missingColumns(r); len(missing) > 0 {
				dropped = append(dropped, SkippedRow{
					Line:    r.Line,
					Country: r.Country,
					Year:    r.Year,
					Reason:  SkipMissingValue,
					Detail:  "missing " + strings.Join(missing, ","),
				})
				continue
			}
			kept = append(kept, r)
		}
		return kept, dropped
	}
}

func fillMissing(r *RawRow, temp, growth, sea float64) {
	if r.TempAnomaly == nil {
		r.TempAnomaly = Float(temp)
	}
	if r.CO2Growth == nil {
		r.CO2Growth = Float(growth)
	}
	if r.SeaLevel == nil {
		r.SeaLevel = Float(sea)
	}
}

func missingColumns(r RawRow) []string {
	var missing []string
	if r.TempAnomaly == nil {
		missing = append(missing, ColTempAnomaly)
	}
	if r.CO2Growth == nil {
		missing = append(missing, ColCO2Growth)
	}
	if r.SeaLevel == nil {
		missing = append(missing, ColSeaLevel)
	}
	return missing
}

// groupByScope buckets row indices by the normalization population they
// belong to, preserving input order within each bucket.
func groupByScope(rows []RawRow, scope NormalizationScope) map[string][]int {
	groups := make(map[string][]int)
	for i, r := range rows {
		var key string
		switch scope {
		case ScopeYear:
			key = strconv.Itoa(r.Year)
		case ScopeCountry:
			key = r.Country
		}
		groups[key] = append(groups[key], i)
	}
	return groups
}
