package domain

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// zScores standardizes values against their population mean and standard
// deviation. A zero deviation divides by 1, which maps every value to 0.
func zScores(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if std == 0 {
		std = 1
	}
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}

// percentileRanks returns rank/n with tied values sharing their average rank.
func percentileRanks(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	for start := 0; start < n; {
		end := start + 1
		for end < n && values[idx[end]] == values[idx[start]] {
			end++
		}
		// 1-based ranks start+1..end share their average.
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			out[idx[k]] = avg / float64(n)
		}
		start = end
	}
	return out
}

// minMaxScale maps values onto [0, 1]. Equal values all map to 0.
func minMaxScale(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

func normalizeGrowth(method GrowthMethod, values []float64) []float64 {
	if method == GrowthMinMax {
		return minMaxScale(values)
	}
	return percentileRanks(values)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
