// Command genmock generates a deterministic raw climate indicator CSV for
// local runs and tests. With -scored-out it also runs the real reader and
// scoring code over the generated file and writes the expected artifact, so
// fixtures always match pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/climate_risk_generated.csv \
//	  -scored-out data/mock/climate_risk_generated_scored.csv \
//	  -countries 25 -from 2000 -to 2024 -seed 7 -missing-rate 0.02 -bad-rows
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/artifact"
	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/csvsource"
	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/couchcryptid/climate-risk-dashboard/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// countries are drawn in order; -countries takes a prefix.
var countries = []string{
	"Bangladesh", "India", "Philippines", "Honduras", "Mozambique", "Zimbabwe",
	"Haiti", "Pakistan", "Myanmar", "Viet Nam", "Kenya", "Nepal", "Thailand",
	"Guatemala", "Puerto Rico", "Madagascar", "Sri Lanka", "Fiji", "Dominica",
	"Bahamas", "Japan", "Germany", "Canada", "Norway", "Chile", "Peru",
	"Brazil", "Australia", "Nigeria", "Egypt",
}

var header = []string{"Country", "Year", "Temp_Anomaly", "CO2_Growth", "Sea_Level"}

type options struct {
	countries   int
	fromYear    int
	toYear      int
	seed        uint64
	missingRate float64
	badRows     bool
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the raw CSV")
	scoredOut := flag.String("scored-out", "", "optional output path for the scored artifact")
	var opts options
	flag.IntVar(&opts.countries, "countries", 12, "number of countries (max 30)")
	flag.IntVar(&opts.fromYear, "from", 2015, "first year")
	flag.IntVar(&opts.toYear, "to", 2024, "last year")
	flag.Uint64Var(&opts.seed, "seed", 42, "random seed")
	flag.Float64Var(&opts.missingRate, "missing-rate", 0, "fraction of indicator cells left as NA")
	flag.BoolVar(&opts.badRows, "bad-rows", false, "append malformed rows exercising every skip reason")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := opts.validate(); err != nil {
		return err
	}

	rows := generate(opts)
	if err := writeCSV(*out, rows); err != nil {
		return fmt.Errorf("writing raw CSV: %w", err)
	}
	log.Printf("wrote %d rows to %s", len(rows)-1, *out)

	if *scoredOut == "" {
		return nil
	}

	// Fixed clock for a reproducible manifest timestamp.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	scored, err := score(*out, domain.DefaultScoringConfig())
	if err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if err := artifact.NewWriter(*scoredOut, quietLogger()).Load(context.Background(), scored); err != nil {
		return fmt.Errorf("writing scored artifact: %w", err)
	}
	log.Printf("wrote %d scored records to %s", len(scored.Records), *scoredOut)

	printStats(os.Stdout, scored)
	return nil
}

func (o options) validate() error {
	if o.countries < 1 || o.countries > len(countries) {
		return fmt.Errorf("-countries must be in [1, %d]", len(countries))
	}
	if o.fromYear < domain.MinYear || o.toYear > domain.MaxYear || o.fromYear > o.toYear {
		return fmt.Errorf("years must satisfy %d <= from <= to <= %d", domain.MinYear, domain.MaxYear)
	}
	if o.missingRate < 0 || o.missingRate >= 1 {
		return fmt.Errorf("-missing-rate must be in [0, 1)")
	}
	return nil
}

// generate builds the CSV rows, header first. Each country gets a baseline
// per indicator and drifts upward year over year with seeded noise.
func generate(o options) [][]string {
	rng := rand.New(rand.NewPCG(o.seed, o.seed^0x5851f42d4c957f2d))
	rows := [][]string{header}

	for _, country := range countries[:o.countries] {
		temp := 0.4 + rng.Float64()*0.9
		growth := -0.02 + rng.Float64()*0.07
		sea := 0.8 + rng.Float64()*4

		for year := o.fromYear; year <= o.toYear; year++ {
			temp += 0.02 + rng.NormFloat64()*0.03
			growth += rng.NormFloat64() * 0.004
			sea += 0.05 + rng.NormFloat64()*0.04

			rows = append(rows, []string{
				country,
				strconv.Itoa(year),
				cell(rng, o.missingRate, temp, 3),
				cell(rng, o.missingRate, growth, 4),
				cell(rng, o.missingRate, sea, 2),
			})
		}
	}

	if o.badRows {
		first := rows[1]
		rows = append(rows,
			[]string{first[0], first[1], "9.99", "0.999", "9.9"}, // duplicate
			[]string{"Atlantis", "1999", "0.5", "0.01", "1.0"},   // year out of range
			[]string{"", strconv.Itoa(o.fromYear), "0.5", "0.01", "1.0"},
			[]string{"Atlantis", strconv.Itoa(o.fromYear), "warm", "0.01", "1.0"},
		)
	}
	return rows
}

func cell(rng *rand.Rand, missingRate, v float64, decimals int) string {
	if missingRate > 0 && rng.Float64() < missingRate {
		return "NA"
	}
	p := math.Pow10(decimals)
	return strconv.FormatFloat(math.Round(v*p)/p, 'f', -1, 64)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// score runs the same reader and transformer the transform command uses.
func score(path string, cfg domain.ScoringConfig) (domain.ScoredDataset, error) {
	ctx := context.Background()
	raw, err := csvsource.NewReader(path, cfg.BaseYear, quietLogger()).Extract(ctx)
	if err != nil {
		return domain.ScoredDataset{}, err
	}
	return pipeline.NewTransformer(cfg, quietLogger()).Transform(ctx, raw)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func printStats(w io.Writer, ds domain.ScoredDataset) {
	fmt.Fprintln(w, "\n=== Stats for updating test assertions ===")
	fmt.Fprintf(w, "Records: %d\n", len(ds.Records))

	counts := ds.SkipCounts()
	reasons := make([]string, 0, len(counts))
	for r, n := range counts {
		reasons = append(reasons, fmt.Sprintf("%s=%d", r, n))
	}
	sort.Strings(reasons)
	fmt.Fprintf(w, "Skipped: %v\n", reasons)

	for _, year := range domain.Years(ds.Records) {
		ov := domain.Summarize(ds.Records, year)
		fmt.Fprintf(w, "  %d: countries=%d avg_risk=%.4f top=%s (%.4f)\n",
			year, ov.Countries, ov.AvgRiskScore, ov.TopCountry, ov.TopRiskScore)
	}
}
