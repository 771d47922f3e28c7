package kaggle

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser    = "analyst"
	testKey     = "s3cret"
	testDataset = "thedevastator/global-climate-risk-index"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testClient(baseURL string, progress io.Writer) *Client {
	c := NewClient(testUser, testKey, 5*time.Second, progress, discardLogger())
	c.baseURL = baseURL
	return c
}

func TestFetch_ExtractsArchive(t *testing.T) {
	archive := zipBytes(t, map[string]string{
		"climate_risk_index.csv": "country,year\n",
		"docs/readme.txt":        "hello",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datasets/download/thedevastator/global-climate-risk-index", r.URL.Path)
		user, key, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, testUser, user)
		assert.Equal(t, testKey, key)
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	files, err := testClient(srv.URL, io.Discard).Fetch(context.Background(), testDataset, dir)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "climate_risk_index.csv"),
		filepath.Join(dir, "docs", "readme.txt"),
	}, files)
	data, err := os.ReadFile(filepath.Join(dir, "climate_risk_index.csv"))
	require.NoError(t, err)
	assert.Equal(t, "country,year\n", string(data))

	// No temp download left behind.
	matches, err := filepath.Glob(filepath.Join(dir, ".download-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFetch_UncompressedCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("country,year\nA,2010\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	files, err := testClient(srv.URL, nil).Fetch(context.Background(), testDataset, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "global-climate-risk-index.csv")}, files)
}

func TestFetch_ProgressWithContentLength(t *testing.T) {
	archive := zipBytes(t, map[string]string{"climate_risk_index.csv": "country,year\nA,2010\n"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	var progress bytes.Buffer
	dir := t.TempDir()
	files, err := testClient(srv.URL, &progress).Fetch(context.Background(), testDataset, dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "climate_risk_index.csv")}, files)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "country,year\nA,2010\n", string(data))
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, "credentials"},
		{"forbidden", http.StatusForbidden, "credentials"},
		{"not found", http.StatusNotFound, "404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			_, err := testClient(srv.URL, nil).Fetch(context.Background(), testDataset, t.TempDir())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFetch_MissingCredentials(t *testing.T) {
	c := NewClient("", "", time.Second, nil, discardLogger())
	_, err := c.Fetch(context.Background(), testDataset, t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
	assert.Contains(t, err.Error(), "KAGGLE_USERNAME")
}

func TestFetch_InvalidDataset(t *testing.T) {
	for _, ds := range []string{"noslash", "/slug", "owner/", "a/b/c"} {
		_, err := testClient("http://unused", nil).Fetch(context.Background(), ds, t.TempDir())
		assert.True(t, errors.Is(err, domain.ErrDataUnavailable), ds)
	}
}

func TestFetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := testClient(url, nil).Fetch(context.Background(), testDataset, t.TempDir())
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
}

func TestExtractZIP_RejectsZipSlip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(archive, zipBytes(t, map[string]string{"../escape.csv": "x"}), 0o644))

	dest := filepath.Join(dir, "out")
	_, err := ExtractZIP(archive, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal path")
	assert.NoFileExists(t, filepath.Join(dir, "escape.csv"))
}
