// Package artifact persists the scored dataset as a CSV file with a JSON
// manifest sidecar, and reads it back for presentation.
package artifact

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
)

// DefaultPath is where transform writes and serve reads by default.
const DefaultPath = "data/processed/processed_data.csv"

// Header is the artifact column order.
var Header = []string{
	"country", "year",
	"temp_anomaly", "co2_growth", "sea_level",
	"temp_anomaly_z", "co2_growth_norm", "sea_level_z",
	"risk_score",
}

// ManifestPath returns the sidecar location for an artifact.
func ManifestPath(path string) string {
	return path + ".manifest.json"
}

// Writer implements pipeline.Loader by writing the artifact atomically.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a Writer for the given artifact path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Name identifies the loader in logs and metrics.
func (w *Writer) Name() string { return "artifact" }

// Load writes the CSV and its manifest.
func (w *Writer) Load(_ context.Context, ds domain.ScoredDataset) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	if err := writeAtomic(w.path, func(f io.Writer) error { return WriteCSV(f, ds.Records) }); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	manifest := domain.NewManifest(ds)
	err := writeAtomic(ManifestPath(w.path), func(f io.Writer) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	})
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	w.logger.Info("artifact written",
		"path", w.path,
		"records", manifest.Records,
		"countries", manifest.Countries,
		"first_year", manifest.FirstYear,
		"last_year", manifest.LastYear,
	)
	return nil
}

// writeAtomic writes through a temp file in the target directory and renames
// it into place, so readers never observe a partial file. The result is
// world-readable so a dashboard running as another user can serve it.
func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// WriteCSV encodes records in artifact format. Floats use the shortest
// representation that parses back to the same value.
func WriteCSV(w io.Writer, records []domain.CountryYearRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{
			r.Country,
			strconv.Itoa(r.Year),
			formatFloat(r.TempAnomaly),
			formatFloat(r.CO2Growth),
			formatFloat(r.SeaLevel),
			formatFloat(r.TempAnomalyZ),
			formatFloat(r.CO2GrowthNorm),
			formatFloat(r.SeaLevelZ),
			formatFloat(r.RiskScore),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Read loads an artifact. A missing file yields domain.ErrArtifactMissing and
// an unexpected header yields domain.ErrSchemaMismatch.
func Read(path string) ([]domain.CountryYearRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactMissing, path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return records, nil
}

// ReadCSV decodes records in artifact format.
func ReadCSV(r io.Reader) ([]domain.CountryYearRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty artifact", domain.ErrSchemaMismatch)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSchemaMismatch, err)
	}
	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("%w: artifact header %v, want %v", domain.ErrSchemaMismatch, header, Header)
	}

	var records []domain.CountryYearRecord
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseRecord(fields)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(fields []string) (domain.CountryYearRecord, error) {
	year, err := strconv.Atoi(fields[1])
	if err != nil {
		return domain.CountryYearRecord{}, fmt.Errorf("year: %w", err)
	}
	rec := domain.CountryYearRecord{Country: fields[0], Year: year}

	dsts := []*float64{
		&rec.TempAnomaly, &rec.CO2Growth, &rec.SeaLevel,
		&rec.TempAnomalyZ, &rec.CO2GrowthNorm, &rec.SeaLevelZ,
		&rec.RiskScore,
	}
	for i, dst := range dsts {
		v, err := strconv.ParseFloat(fields[i+2], 64)
		if err != nil {
			return domain.CountryYearRecord{}, fmt.Errorf("%s: %w", Header[i+2], err)
		}
		*dst = v
	}
	return rec, nil
}

// ReadManifest loads the sidecar of an artifact. A missing sidecar yields
// domain.ErrArtifactMissing.
func ReadManifest(path string) (domain.Manifest, error) {
	data, err := os.ReadFile(ManifestPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Manifest{}, fmt.Errorf("%w: %s", domain.ErrArtifactMissing, ManifestPath(path))
	}
	if err != nil {
		return domain.Manifest{}, err
	}
	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}
