// Package dashboard holds the read side of the presentation server: the
// artifact snapshot shared by request handlers and the server-rendered charts.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/couchcryptid/climate-risk-dashboard/internal/adapter/artifact"
	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/couchcryptid/climate-risk-dashboard/internal/observability"
)

// Snapshot is an immutable view of one artifact version.
type Snapshot struct {
	Records   []domain.CountryYearRecord
	Manifest  *domain.Manifest // nil when the sidecar is absent
	Years     []int
	Countries []string
	ModTime   time.Time
}

// LatestYear is the default year selection.
func (s *Snapshot) LatestYear() int {
	if len(s.Years) == 0 {
		return 0
	}
	return s.Years[len(s.Years)-1]
}

// Store serves the artifact at a fixed path, reloading it when the file's
// modification time or size changes. Snapshots are never mutated.
type Store struct {
	path    string
	metrics *observability.Metrics
	logger  *slog.Logger

	mu      sync.RWMutex
	snap    *Snapshot
	size    int64
	missing bool
}

// NewStore creates a Store for the artifact at path. Nothing is read until
// the first Snapshot call.
func NewStore(path string, metrics *observability.Metrics, logger *slog.Logger) *Store {
	return &Store{path: path, metrics: metrics, logger: logger}
}

// Path returns the artifact location.
func (s *Store) Path() string { return s.path }

// Snapshot returns the current artifact contents. A missing artifact yields
// an error matching domain.ErrArtifactMissing; it is counted once per
// disappearance, not once per call.
func (s *Store) Snapshot() (*Snapshot, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		if !s.missing {
			s.missing = true
			s.metrics.ArtifactLoads.WithLabelValues("missing").Inc()
			s.metrics.ArtifactRecords.Set(0)
		}
		s.snap = nil
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactMissing, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}

	s.mu.RLock()
	snap := s.snap
	fresh := snap != nil && snap.ModTime.Equal(info.ModTime()) && s.size == info.Size()
	s.mu.RUnlock()
	if fresh {
		return snap, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have reloaded while we waited.
	if s.snap != nil && s.snap.ModTime.Equal(info.ModTime()) && s.size == info.Size() {
		return s.snap, nil
	}

	s.missing = false
	snap, err = s.load(info.ModTime())
	if err != nil {
		s.metrics.ArtifactLoads.WithLabelValues("error").Inc()
		return nil, err
	}
	s.snap = snap
	s.size = info.Size()
	s.metrics.ArtifactLoads.WithLabelValues("loaded").Inc()
	s.metrics.ArtifactRecords.Set(float64(len(snap.Records)))
	s.logger.Info("artifact loaded",
		"path", s.path,
		"records", len(snap.Records),
		"years", len(snap.Years),
		"countries", len(snap.Countries),
	)
	return snap, nil
}

func (s *Store) load(modTime time.Time) (*Snapshot, error) {
	records, err := artifact.Read(s.path)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Records:   records,
		Years:     domain.Years(records),
		Countries: domain.Countries(records),
		ModTime:   modTime,
	}

	m, err := artifact.ReadManifest(s.path)
	switch {
	case err == nil:
		snap.Manifest = &m
	case errors.Is(err, domain.ErrArtifactMissing):
		s.logger.Debug("artifact has no manifest", "path", s.path)
	default:
		s.logger.Warn("ignoring unreadable manifest", "path", s.path, "error", err)
	}
	return snap, nil
}

// CheckReadiness reports ready once the artifact can be loaded.
func (s *Store) CheckReadiness(_ context.Context) error {
	_, err := s.Snapshot()
	return err
}
