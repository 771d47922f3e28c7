package domain

import "math/rand/v2"

// SimulateYears projects the base-year rows of ds across the configured year
// range, scaling each indicator by an independent uniform factor. Rows from
// other years are discarded. The same seed always yields the same dataset.
func SimulateYears(ds RawDataset, baseYear int, sim SimulationConfig) RawDataset {
	rng := rand.New(rand.NewPCG(sim.Seed, sim.Seed^0x9e3779b97f4a7c15))

	var base []RawRow
	for _, r := range ds.Rows {
		if r.Year == baseYear {
			base = append(base, r)
		}
	}

	out := RawDataset{
		Source:    ds.Source,
		Skipped:   ds.Skipped,
		HasGrowth: ds.HasGrowth,
		Rows:      make([]RawRow, 0, len(base)*(sim.ToYear-sim.FromYear+1)),
	}
	for year := sim.FromYear; year <= sim.ToYear; year++ {
		for _, r := range base {
			p := r
			p.Year = year
			p.TempAnomaly = vary(rng, r.TempAnomaly, sim.TempVariation)
			p.CO2Emission = vary(rng, r.CO2Emission, sim.EmissionVariation)
			p.CO2Growth = vary(rng, r.CO2Growth, sim.EmissionVariation)
			p.SeaLevel = vary(rng, r.SeaLevel, sim.SeaVariation)
			out.Rows = append(out.Rows, p)
		}
	}
	return out
}

func vary(rng *rand.Rand, v *float64, variation float64) *float64 {
	factor := 1 + (rng.Float64()*2-1)*variation
	if v == nil {
		return nil
	}
	return Float(*v * factor)
}
