// Command validate checks a processed artifact against the raw dataset it was
// built from: schema, the weighted-sum formula, per-year country coverage,
// exact recomputation, ordering and value bounds.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw data/raw/climate_risk_index.csv \
//	  -artifact data/processed/processed_data.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"sort"

	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/artifact"
	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/csvsource"
	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/couchcryptid/climate-risk-dashboard/internal/pipeline"
)

const scoreTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawPath := flag.String("raw", "", "raw dataset CSV file or directory")
	artifactPath := flag.String("artifact", artifact.DefaultPath, "processed artifact CSV")
	flag.Parse()

	if *rawPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rawPath, *artifactPath, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(rawPath, artifactPath string, out io.Writer) int {
	fmt.Fprintln(out, "=== Climate Risk Artifact Validation ===")
	fmt.Fprintln(out)

	records, err := artifact.Read(artifactPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load artifact: %v\n", err)
		return 1
	}

	cfg := domain.DefaultScoringConfig()
	manifest, err := artifact.ReadManifest(artifactPath)
	hasManifest := err == nil
	switch {
	case hasManifest:
		cfg = manifest.Scoring
	case errors.Is(err, domain.ErrArtifactMissing):
		fmt.Fprintln(out, "WARN: no manifest, assuming the default scoring config")
	default:
		fmt.Fprintf(out, "FATAL: load manifest: %v\n", err)
		return 1
	}

	expected, err := recompute(rawPath, cfg)
	if err != nil {
		fmt.Fprintf(out, "FATAL: recompute from raw: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateManifest(records, manifest, hasManifest),
		validateWeightedSum(records, cfg.Weights),
		validateCoverage(records, expected.Records),
		validateRecomputation(records, expected.Records),
		validateOrdering(records),
		validateBounds(records),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d artifact, %d recomputed from %s\n", len(records), len(expected.Records), expected.Source)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// recompute runs the raw input through the same reader and transformer the
// transform command uses.
func recompute(rawPath string, cfg domain.ScoringConfig) (domain.ScoredDataset, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	raw, err := csvsource.NewReader(rawPath, cfg.BaseYear, logger).Extract(ctx)
	if err != nil {
		return domain.ScoredDataset{}, err
	}
	return pipeline.NewTransformer(cfg, logger).Transform(ctx, raw)
}

// ── Phases ──

func validateManifest(records []domain.CountryYearRecord, m domain.Manifest, ok bool) *phase {
	p := &phase{name: "Phase 1: Manifest consistency"}
	if !ok {
		return p
	}
	if m.Records != len(records) {
		p.errorf("manifest records=%d, artifact has %d", m.Records, len(records))
	}
	if n := len(domain.Countries(records)); m.Countries != n {
		p.errorf("manifest countries=%d, artifact has %d", m.Countries, n)
	}
	if years := domain.Years(records); len(years) > 0 {
		if m.FirstYear != years[0] || m.LastYear != years[len(years)-1] {
			p.errorf("manifest years %d-%d, artifact spans %d-%d", m.FirstYear, m.LastYear, years[0], years[len(years)-1])
		}
	}
	if err := m.Scoring.Validate(); err != nil {
		p.errorf("manifest scoring config invalid: %v", err)
	}
	return p
}

func validateWeightedSum(records []domain.CountryYearRecord, w domain.Weights) *phase {
	p := &phase{name: "Phase 2: Risk score = weighted sum"}
	for _, r := range records {
		want := w.Score(r.TempAnomalyZ, r.CO2GrowthNorm, r.SeaLevelZ)
		if math.Abs(want-r.RiskScore) > scoreTolerance {
			p.errorf("%s/%d: risk_score %g, weighted sum %g", r.Country, r.Year, r.RiskScore, want)
		}
	}
	return p
}

func validateCoverage(got, want []domain.CountryYearRecord) *phase {
	p := &phase{name: "Phase 3: Per-year country coverage"}
	gotSets, wantSets := countriesByYear(got), countriesByYear(want)

	years := make(map[int]bool)
	for y := range gotSets {
		years[y] = true
	}
	for y := range wantSets {
		years[y] = true
	}
	sorted := make([]int, 0, len(years))
	for y := range years {
		sorted = append(sorted, y)
	}
	sort.Ints(sorted)

	for _, y := range sorted {
		if !slices.Equal(gotSets[y], wantSets[y]) {
			p.errorf("%d: artifact countries %v, raw input yields %v", y, gotSets[y], wantSets[y])
		}
	}
	return p
}

func validateRecomputation(got, want []domain.CountryYearRecord) *phase {
	p := &phase{name: "Phase 4: Exact recomputation"}
	if len(got) != len(want) {
		p.errorf("artifact has %d records, recomputation %d", len(got), len(want))
		return p
	}
	for i := range got {
		if got[i] != want[i] {
			p.errorf("row %d: artifact %+v, recomputed %+v", i+1, got[i], want[i])
		}
	}
	return p
}

func validateOrdering(records []domain.CountryYearRecord) *phase {
	p := &phase{name: "Phase 5: Ordering (artifact and leaderboard)"}
	for i := 1; i < len(records); i++ {
		a, b := records[i-1], records[i]
		if a.Country > b.Country || (a.Country == b.Country && a.Year >= b.Year) {
			p.errorf("row %d: %s/%d sorts after %s/%d", i+1, a.Country, a.Year, b.Country, b.Year)
		}
	}
	for _, year := range domain.Years(records) {
		board := domain.Leaderboard(records, year, len(records))
		for i := 1; i < len(board); i++ {
			a, b := board[i-1], board[i]
			if a.RiskScore < b.RiskScore || (a.RiskScore == b.RiskScore && a.Country > b.Country) {
				p.errorf("%d leaderboard: %s (%g) ranked above %s (%g)", year, a.Country, a.RiskScore, b.Country, b.RiskScore)
			}
		}
	}
	return p
}

func validateBounds(records []domain.CountryYearRecord) *phase {
	p := &phase{name: "Phase 6: Value bounds"}
	for _, r := range records {
		if r.Country == "" {
			p.errorf("empty country in year %d", r.Year)
		}
		if !domain.ValidYear(r.Year) {
			p.errorf("%s: year %d outside [%d, %d]", r.Country, r.Year, domain.MinYear, domain.MaxYear)
		}
		if r.CO2GrowthNorm < 0 || r.CO2GrowthNorm > 1 {
			p.errorf("%s/%d: co2_growth_norm %g outside [0, 1]", r.Country, r.Year, r.CO2GrowthNorm)
		}
		for name, v := range map[string]float64{
			"temp_anomaly_z": r.TempAnomalyZ,
			"sea_level_z":    r.SeaLevelZ,
			"risk_score":     r.RiskScore,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				p.errorf("%s/%d: %s is %g", r.Country, r.Year, name, v)
			}
		}
	}
	return p
}

func countriesByYear(records []domain.CountryYearRecord) map[int][]string {
	out := make(map[int][]string)
	for _, y := range domain.Years(records) {
		out[y] = domain.Countries(domain.FilterYear(records, y))
	}
	return out
}
