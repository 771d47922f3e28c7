package dashboard

import (
	"errors"
	"io"
	"math"
	"strconv"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	chart "github.com/wcharczuk/go-chart/v2"
)

// ErrNoChartData means there is nothing to plot for the selection.
var ErrNoChartData = errors.New("no data for chart")

const (
	chartWidth  = 900
	chartHeight = 420
)

// RenderTrendSVG draws one line per country for a metric across years.
func RenderTrendSVG(w io.Writer, series []domain.TrendSeries, metric domain.Metric) error {
	var lines []chart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	xMin, xMax := math.Inf(1), math.Inf(-1)

	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i] = float64(p.Year)
			ys[i] = p.Value
			lo, hi = math.Min(lo, p.Value), math.Max(hi, p.Value)
		}
		// go-chart needs two x values to draw a line.
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}
		xMin, xMax = math.Min(xMin, xs[0]), math.Max(xMax, xs[len(xs)-1])
		lines = append(lines, chart.ContinuousSeries{
			Name:    s.Country,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeWidth: 2, DotWidth: 3},
		})
	}
	if len(lines) == 0 {
		return ErrNoChartData
	}

	var ticks []chart.Tick
	for y := xMin; y <= xMax; y++ {
		ticks = append(ticks, chart.Tick{Value: y, Label: strconv.Itoa(int(y))})
	}
	lo, hi = padRange(lo, hi)

	ch := chart.Chart{
		Title:      string(metric) + " by year",
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "year",
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  string(metric),
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: lines,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.SVG, w)
}

// RenderLeaderboardSVG draws the ranked risk scores as bars from zero.
func RenderLeaderboardSVG(w io.Writer, entries []domain.LeaderboardEntry, year int) error {
	if len(entries) == 0 {
		return ErrNoChartData
	}

	bars := make([]chart.Value, len(entries))
	lo, hi := 0.0, 0.0
	for i, e := range entries {
		bars[i] = chart.Value{Label: e.Country, Value: e.RiskScore}
		lo, hi = math.Min(lo, e.RiskScore), math.Max(hi, e.RiskScore)
	}
	lo, hi = padRange(lo, hi)

	bc := chart.BarChart{
		Title:        "Top " + strconv.Itoa(len(entries)) + " risk scores, " + strconv.Itoa(year),
		Width:        max(chartWidth, 80*len(entries)),
		Height:       chartHeight,
		Background:   chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:     48,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Name:  "risk_score",
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}
	return bc.Render(chart.SVG, w)
}

// padRange widens a value range by 5% on each side, and to a unit range when
// all values are equal.
func padRange(lo, hi float64) (float64, float64) {
	if hi <= lo {
		return lo - 0.5, hi + 0.5
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}
