// Package csvsource extracts the raw climate indicator table from a CSV file.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
)

// Reader implements pipeline.Extractor over a local CSV file or directory.
type Reader struct {
	path     string
	baseYear int
	schema   domain.Schema
	logger   *slog.Logger
}

// NewReader creates a Reader. baseYear stands in for a missing year column;
// pass 0 to require one.
func NewReader(path string, baseYear int, logger *slog.Logger) *Reader {
	return &Reader{
		path:     path,
		baseYear: baseYear,
		schema:   domain.DefaultSchema(),
		logger:   logger,
	}
}

// Extract reads and validates every row. Rows that cannot be used are skipped
// with a warning and reported in RawDataset.Skipped; schema problems and
// missing input abort the run.
func (r *Reader) Extract(ctx context.Context) (domain.RawDataset, error) {
	path, err := ResolveDatasetPath(r.path)
	if err != nil {
		return domain.RawDataset{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.RawDataset{}, fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
	}
	defer f.Close()

	ds, err := r.parse(ctx, f)
	if err != nil {
		return domain.RawDataset{}, fmt.Errorf("read %s: %w", path, err)
	}
	ds.Source = path

	r.logger.Info("dataset extracted",
		"path", path,
		"rows", len(ds.Rows),
		"skipped", len(ds.Skipped),
		"has_growth", ds.HasGrowth,
	)
	return ds, nil
}

func (r *Reader) parse(ctx context.Context, src io.Reader) (domain.RawDataset, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.RawDataset{}, fmt.Errorf("%w: empty file", domain.ErrSchemaMismatch)
	}
	if err != nil {
		return domain.RawDataset{}, fmt.Errorf("header: %w", err)
	}

	cols, err := r.schema.Resolve(header, r.baseYear == 0)
	if err != nil {
		return domain.RawDataset{}, err
	}

	ds := domain.RawDataset{HasGrowth: cols.Index(domain.ColCO2Growth) >= 0}
	seen := make(map[string]bool)

	for {
		if err := ctx.Err(); err != nil {
			return domain.RawDataset{}, err
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				r.skip(&ds, domain.SkippedRow{Line: perr.StartLine, Reason: domain.SkipMalformed, Detail: perr.Err.Error()})
				continue
			}
			return domain.RawDataset{}, err
		}
		line, _ := cr.FieldPos(0)
		if len(fields) != len(header) {
			r.skip(&ds, domain.SkippedRow{
				Line:   line,
				Reason: domain.SkipMalformed,
				Detail: fmt.Sprintf("expected %d fields, got %d", len(header), len(fields)),
			})
			continue
		}

		row, skip := r.parseRow(fields, cols, line)
		if skip != nil {
			r.skip(&ds, *skip)
			continue
		}

		key := row.Country + "|" + fmt.Sprint(row.Year)
		if seen[key] {
			r.skip(&ds, domain.SkippedRow{Line: line, Country: row.Country, Year: row.Year, Reason: domain.SkipDuplicate})
			continue
		}
		seen[key] = true
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// parseRow converts one record. A non-nil SkippedRow means the row is unusable.
func (r *Reader) parseRow(fields []string, cols domain.ColumnMap, line int) (domain.RawRow, *domain.SkippedRow) {
	row := domain.RawRow{Line: line, Country: strings.TrimSpace(fields[cols.Index(domain.ColCountry)])}
	if row.Country == "" {
		return row, &domain.SkippedRow{Line: line, Reason: domain.SkipEmptyCountry}
	}

	row.Year = r.baseYear
	if i := cols.Index(domain.ColYear); i >= 0 {
		y, err := domain.ParseYear(fields[i])
		if err != nil {
			return row, &domain.SkippedRow{Line: line, Country: row.Country, Reason: domain.SkipMalformed, Detail: err.Error()}
		}
		row.Year = y
	}
	if !domain.ValidYear(row.Year) {
		return row, &domain.SkippedRow{
			Line: line, Country: row.Country, Year: row.Year,
			Reason: domain.SkipYearOutOfRange,
			Detail: fmt.Sprintf("year %d outside [%d, %d]", row.Year, domain.MinYear, domain.MaxYear),
		}
	}

	targets := []struct {
		col string
		dst **float64
	}{
		{domain.ColTempAnomaly, &row.TempAnomaly},
		{domain.ColCO2Growth, &row.CO2Growth},
		{domain.ColCO2Emission, &row.CO2Emission},
		{domain.ColSeaLevel, &row.SeaLevel},
	}
	for _, tg := range targets {
		i := cols.Index(tg.col)
		if i < 0 {
			continue
		}
		v, err := domain.ParseIndicator(fields[i])
		if err != nil {
			return row, &domain.SkippedRow{
				Line: line, Country: row.Country, Year: row.Year,
				Reason: domain.SkipMalformed,
				Detail: tg.col + ": " + err.Error(),
			}
		}
		*tg.dst = v
	}
	return row, nil
}

func (r *Reader) skip(ds *domain.RawDataset, s domain.SkippedRow) {
	r.logger.Warn("skipping row",
		"line", s.Line,
		"reason", s.Reason,
		"country", s.Country,
		"detail", s.Detail,
	)
	ds.Skipped = append(ds.Skipped, s)
}

// ResolveDatasetPath returns path itself when it is a file. For a directory it
// picks the CSV whose name mentions "risk", falling back to the first CSV in
// lexical order.
func ResolveDatasetPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
	}
	if !info.IsDir() {
		return path, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
	}
	var csvs []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			csvs = append(csvs, e.Name())
		}
	}
	if len(csvs) == 0 {
		return "", fmt.Errorf("%w: no CSV file in %s", domain.ErrDataUnavailable, path)
	}
	sort.Strings(csvs)
	for _, name := range csvs {
		if strings.Contains(strings.ToLower(name), "risk") {
			return filepath.Join(path, name), nil
		}
	}
	return filepath.Join(path, csvs[0]), nil
}
