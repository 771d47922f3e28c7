package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE scores (
	country         TEXT    NOT NULL,
	year            INTEGER NOT NULL,
	temp_anomaly    REAL    NOT NULL,
	co2_growth      REAL    NOT NULL,
	sea_level       REAL    NOT NULL,
	temp_anomaly_z  REAL    NOT NULL,
	co2_growth_norm REAL    NOT NULL,
	sea_level_z     REAL    NOT NULL,
	risk_score      REAL    NOT NULL,
	PRIMARY KEY (country, year)
);

CREATE INDEX idx_scores_year ON scores(year);
CREATE INDEX idx_scores_year_risk ON scores(year, risk_score DESC);

CREATE TABLE manifest (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// WriteSQLite writes records into a fresh database at path, replacing any
// existing file. Rows go in a single transaction.
func WriteSQLite(ctx context.Context, path string, records []domain.CountryYearRecord, m domain.Manifest) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("sqlite: remove existing %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("sqlite: open: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := insertScores(ctx, tx, records); err != nil {
		return err
	}
	for _, kv := range manifestRows(m) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO manifest (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("sqlite: insert manifest %s: %w", kv[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func insertScores(ctx context.Context, tx *sql.Tx, records []domain.CountryYearRecord) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scores (
		country, year, temp_anomaly, co2_growth, sea_level,
		temp_anomaly_z, co2_growth_norm, sea_level_z, risk_score
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Country, r.Year, r.TempAnomaly, r.CO2Growth, r.SeaLevel,
			r.TempAnomalyZ, r.CO2GrowthNorm, r.SeaLevelZ, r.RiskScore,
		); err != nil {
			return fmt.Errorf("sqlite: insert %s/%d: %w", r.Country, r.Year, err)
		}
	}
	return nil
}
