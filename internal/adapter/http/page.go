package http

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/dustin/go-humanize"
)

var templateFuncs = template.FuncMap{
	"score": func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) },
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"contains": func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	},
	"join": strings.Join,
}

type indexPage struct {
	Overview     domain.Overview
	Years        []int
	Countries    []string
	Metrics      []domain.Metric
	Selection    selection
	MapPoints    []domain.MapPoint
	Trend        []domain.TrendSeries
	Leaderboard  []domain.LeaderboardEntry
	Manifest     *domain.Manifest
	Scoring      domain.ScoringConfig
	Geocoded     bool
	TrendChart   template.URL
	BoardChart   template.URL
	ArtifactPath string
}

type missingPage struct {
	Message string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot()
	if errors.Is(err, domain.ErrArtifactMissing) {
		s.renderPage(w, http.StatusServiceUnavailable, "missing.html",
			missingPage{Message: domain.ArtifactMissingMessage(s.store.Path())})
		return
	}
	if err != nil {
		s.logger.Error("artifact unavailable", "path", s.store.Path(), "error", err)
		s.renderPage(w, http.StatusInternalServerError, "missing.html",
			missingPage{Message: "Processed data could not be read: " + err.Error()})
		return
	}

	sel, err := parseSelection(r.URL.Query(), snap, s.topK)
	if err != nil {
		s.renderPage(w, http.StatusBadRequest, "missing.html", missingPage{Message: err.Error()})
		return
	}

	page := indexPage{
		Overview:     domain.Summarize(snap.Records, sel.Year),
		Years:        snap.Years,
		Countries:    snap.Countries,
		Metrics:      domain.Metrics(),
		Selection:    sel,
		MapPoints:    s.mapPoints(r, snap, sel.Year),
		Trend:        nonNil(domain.Trend(snap.Records, sel.Countries, sel.Metric)),
		Leaderboard:  domain.Leaderboard(snap.Records, sel.Year, sel.K),
		Manifest:     snap.Manifest,
		Scoring:      domain.DefaultScoringConfig(),
		Geocoded:     s.geocoder != nil,
		TrendChart:   template.URL("/charts/trend.svg?" + sel.query().Encode()),
		BoardChart:   template.URL("/charts/leaderboard.svg?" + sel.query().Encode()),
		ArtifactPath: s.store.Path(),
	}
	if snap.Manifest != nil {
		page.Scoring = snap.Manifest.Scoring
	}
	s.renderPage(w, http.StatusOK, "index.html", page)
}

// renderPage executes into a buffer so template errors become a clean 500.
func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("page render failed", "template", name, "error", err)
		http.Error(w, "page render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck // client may have gone away
}
