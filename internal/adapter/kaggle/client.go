// Package kaggle downloads the raw dataset archive from the Kaggle REST API
// and extracts it into the raw data directory.
package kaggle

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
)

const defaultBaseURL = "https://www.kaggle.com/api/v1"

// Client fetches Kaggle datasets with basic-auth API credentials.
type Client struct {
	baseURL    string
	username   string
	key        string
	httpClient *http.Client
	progress   io.Writer
	logger     *slog.Logger
}

// NewClient creates a Kaggle client. progress receives a byte progress bar
// while downloading; pass nil to disable it.
func NewClient(username, key string, timeout time.Duration, progress io.Writer, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		username:   username,
		key:        key,
		httpClient: &http.Client{Timeout: timeout},
		progress:   progress,
		logger:     logger,
	}
}

// Fetch downloads dataset ("owner/slug") and extracts it into destDir,
// returning the extracted file paths. Any failure is reported as
// domain.ErrDataUnavailable.
func (c *Client) Fetch(ctx context.Context, dataset, destDir string) ([]string, error) {
	if c.username == "" || c.key == "" {
		return nil, fmt.Errorf("%w: KAGGLE_USERNAME and KAGGLE_KEY are required to download %s", domain.ErrDataUnavailable, dataset)
	}
	owner, slug, ok := strings.Cut(dataset, "/")
	if !ok || owner == "" || slug == "" || strings.Contains(slug, "/") {
		return nil, fmt.Errorf("%w: dataset must be owner/slug, got %q", domain.ErrDataUnavailable, dataset)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create raw dir: %w", err)
	}

	archive, err := c.download(ctx, owner, slug, destDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
	}
	defer os.Remove(archive) //nolint:errcheck // temp download

	files, err := ExtractZIP(archive, destDir)
	if errors.Is(err, zip.ErrFormat) {
		// Single-file datasets may be served uncompressed.
		target := filepath.Join(destDir, slug+".csv")
		if err := os.Rename(archive, target); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
		}
		files, err = []string{target}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
	}

	c.logger.Info("dataset extracted", "dataset", dataset, "dir", destDir, "files", len(files))
	return files, nil
}

// download streams the archive into a temp file in destDir.
func (c *Client) download(ctx context.Context, owner, slug, destDir string) (string, error) {
	u := fmt.Sprintf("%s/datasets/download/%s/%s", c.baseURL, path.Clean(owner), path.Clean(slug))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.key)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s/%s: %w", owner, slug, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("kaggle rejected credentials: status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("kaggle API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	tmp, err := os.CreateTemp(destDir, ".download-*.zip")
	if err != nil {
		return "", err
	}

	var body io.Reader = resp.Body
	if c.progress != nil {
		bar := pb.Full.New(0).SetTotal(max(resp.ContentLength, 0))
		bar.Set(pb.Bytes, true)
		bar.Set("prefix", slug+" ")
		bar.Set(pb.CleanOnFinish, true)
		bar.SetWriter(c.progress)
		bar.Start()
		defer bar.Finish()
		body = bar.NewProxyReader(resp.Body)
	}

	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck // partial download
		return "", fmt.Errorf("write download: %w", err)
	}

	c.logger.Info("dataset downloaded",
		"dataset", owner+"/"+slug,
		"size", humanize.Bytes(uint64(n)),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return tmp.Name(), nil
}

// ExtractZIP extracts all files from a ZIP archive into destDir and returns
// their paths. Entries escaping destDir are rejected.
func ExtractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("zip: open archive: %w", err)
	}
	defer r.Close() //nolint:errcheck

	var extracted []string
	for _, f := range r.File {
		p, err := extractZIPEntry(f, destDir)
		if err != nil {
			return extracted, err
		}
		if p != "" {
			extracted = append(extracted, p)
		}
	}
	return extracted, nil
}

// extractZIPEntry writes one entry, returning "" for directories.
func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("zip: illegal path %q", f.Name)
	}

	if f.FileInfo().IsDir() {
		return "", os.MkdirAll(destPath, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("zip: create parent directory: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("zip: open %s: %w", f.Name, err)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("zip: create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return "", fmt.Errorf("zip: write %s: %w", destPath, err)
	}
	return destPath, out.Close()
}
