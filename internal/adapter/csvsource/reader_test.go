package csvsource_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/csvsource"
	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func extract(t *testing.T, content string, baseYear int) (domain.RawDataset, error) {
	t.Helper()
	path := writeFile(t, t.TempDir(), "input.csv", content)
	return csvsource.NewReader(path, baseYear, discardLogger()).Extract(context.Background())
}

func TestExtract_ValidRows(t *testing.T) {
	ds, err := extract(t, "Country,Year,Temp Anomaly,CO2 Growth,Sea Level\n"+
		"Testland,2010,1.2,3.0%,2.1\n"+
		"Aland,2011,0.8,0.01,NA\n", 0)
	require.NoError(t, err)

	assert.True(t, ds.HasGrowth)
	assert.Empty(t, ds.Skipped)
	require.Len(t, ds.Rows, 2)

	r := ds.Rows[0]
	assert.Equal(t, 2, r.Line)
	assert.Equal(t, "Testland", r.Country)
	assert.Equal(t, 2010, r.Year)
	assert.Equal(t, 1.2, *r.TempAnomaly)
	assert.InDelta(t, 0.03, *r.CO2Growth, 1e-12)
	assert.Equal(t, 2.1, *r.SeaLevel)
	assert.Nil(t, r.CO2Emission)

	assert.Nil(t, ds.Rows[1].SeaLevel)
}

func TestExtract_SkipsMalformedRows(t *testing.T) {
	ds, err := extract(t, "country,year,temp_anomaly,co2_growth,sea_level\n"+
		"A,2010,1,0.1,1\n"+ // 2 ok
		"B,2010,1,0.1\n"+ // 3 wrong field count
		"C,2010,hot,0.1,1\n"+ // 4 non-numeric
		"D,1999,1,0.1,1\n"+ // 5 year out of range
		",2010,1,0.1,1\n"+ // 6 empty country
		"A,2010,9,0.9,9\n"+ // 7 duplicate
		"E,2010.5,1,0.1,1\n"+ // 8 non-integer year
		"F,2024,1,0.1,1\n"+ // 9 ok
		"G,2010,+Infinity,0.1,1\n", 0) // 10 non-finite
	require.NoError(t, err)

	var countries []string
	for _, r := range ds.Rows {
		countries = append(countries, r.Country)
	}
	assert.Equal(t, []string{"A", "F"}, countries)
	assert.Equal(t, 1.0, *ds.Rows[0].TempAnomaly, "first occurrence wins")

	reasons := make(map[int]domain.SkipReason)
	for _, s := range ds.Skipped {
		reasons[s.Line] = s.Reason
	}
	assert.Equal(t, map[int]domain.SkipReason{
		3: domain.SkipMalformed,
		4: domain.SkipMalformed,
		5: domain.SkipYearOutOfRange,
		6: domain.SkipEmptyCountry,
		7: domain.SkipDuplicate,
		8: domain.SkipMalformed,
		10: domain.SkipMalformed,
	}, reasons)
}

func TestExtract_EmissionColumnAndBaseYear(t *testing.T) {
	ds, err := extract(t, "index,rw_country_name,cri_score,losses_usdm_ppp_total,fatalities_total\n"+
		"1,Mozambique,6.17,4930.36,1016\n"+
		"2,Zimbabwe,6.67,1168.81,352\n", 2019)
	require.NoError(t, err)

	assert.False(t, ds.HasGrowth)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, 2019, ds.Rows[0].Year)
	assert.Equal(t, 4930.36, *ds.Rows[0].CO2Emission)
	assert.Nil(t, ds.Rows[0].CO2Growth)
}

func TestExtract_SchemaMismatch(t *testing.T) {
	_, err := extract(t, "country,year,temp_anomaly\nA,2010,1\n", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "sea_level")

	_, err = extract(t, "", 0)
	assert.True(t, errors.Is(err, domain.ErrSchemaMismatch))
}

func TestExtract_MissingYearColumnWithoutBaseYear(t *testing.T) {
	_, err := extract(t, "country,temp_anomaly,co2_growth,sea_level\nA,1,0.1,1\n", 0)
	assert.True(t, errors.Is(err, domain.ErrSchemaMismatch))
}

func TestExtract_MissingFile(t *testing.T) {
	r := csvsource.NewReader(filepath.Join(t.TempDir(), "nope.csv"), 0, discardLogger())
	_, err := r.Extract(context.Background())
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
}

func TestExtract_CanceledContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "input.csv", "country,year,temp_anomaly,co2_growth,sea_level\nA,2010,1,0.1,1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := csvsource.NewReader(path, 0, discardLogger()).Extract(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveDatasetPath(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "data.csv", "x")
		got, err := csvsource.ResolveDatasetPath(path)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("prefers risk", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a_losses.csv", "x")
		writeFile(t, dir, "climate_risk_index.csv", "x")
		writeFile(t, dir, "readme.txt", "x")
		got, err := csvsource.ResolveDatasetPath(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "climate_risk_index.csv"), got)
	})

	t.Run("first lexical", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "b.csv", "x")
		writeFile(t, dir, "a.CSV", "x")
		got, err := csvsource.ResolveDatasetPath(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "a.CSV"), got)
	})

	t.Run("no csv", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "notes.txt", "x")
		_, err := csvsource.ResolveDatasetPath(dir)
		assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
	})
}
