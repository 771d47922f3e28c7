// Package export converts the processed artifact into formats for ad-hoc
// analysis: an Excel workbook or a SQLite database.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
)

// Format selects the export target.
type Format string

const (
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatSQLite, "sqlite3", "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want xlsx or sqlite)", s)
	}
}

// DefaultPath derives the output file from the artifact path.
func DefaultPath(artifactPath string, f Format) string {
	base := strings.TrimSuffix(artifactPath, filepath.Ext(artifactPath))
	if f == FormatSQLite {
		return base + ".db"
	}
	return base + ".xlsx"
}

// Write exports records and their manifest to path in the given format.
func Write(ctx context.Context, f Format, path string, records []domain.CountryYearRecord, m domain.Manifest) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(path, records, m)
	case FormatSQLite:
		return WriteSQLite(ctx, path, records, m)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}
