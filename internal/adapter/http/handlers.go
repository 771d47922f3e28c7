package http

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/couchcryptid/climate-risk-dashboard/internal/dashboard"
	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
)

type yearsResponse struct {
	Years      []int           `json:"years"`
	Countries  []string        `json:"countries"`
	LatestYear int             `json:"latest_year"`
	Metrics    []domain.Metric `json:"metrics"`
}

type mapResponse struct {
	Year   int               `json:"year"`
	Points []domain.MapPoint `json:"points"`
}

type trendResponse struct {
	Metric    domain.Metric        `json:"metric"`
	Countries []string             `json:"countries"`
	Series    []domain.TrendSeries `json:"series"`
}

type leaderboardResponse struct {
	Year    int                       `json:"year"`
	K       int                       `json:"k"`
	Entries []domain.LeaderboardEntry `json:"entries"`
}

func (s *Server) handleYears(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, yearsResponse{
		Years:      nonNil(snap.Years),
		Countries:  nonNil(snap.Countries),
		LatestYear: snap.LatestYear(),
		Metrics:    domain.Metrics(),
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	snap, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, domain.Summarize(snap.Records, sel.Year))
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	snap, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapResponse{Year: sel.Year, Points: s.mapPoints(r, snap, sel.Year)})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	snap, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, trendResponse{
		Metric:    sel.Metric,
		Countries: sel.Countries,
		Series:    nonNil(domain.Trend(snap.Records, sel.Countries, sel.Metric)),
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	snap, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{
		Year:    sel.Year,
		K:       sel.K,
		Entries: nonNil(domain.Leaderboard(snap.Records, sel.Year, sel.K)),
	})
}

func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	snap, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := dashboard.RenderTrendSVG(&buf, domain.Trend(snap.Records, sel.Countries, sel.Metric), sel.Metric)
	s.writeSVG(w, buf.Bytes(), err)
}

func (s *Server) handleLeaderboardChart(w http.ResponseWriter, r *http.Request) {
	snap, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := dashboard.RenderLeaderboardSVG(&buf, domain.Leaderboard(snap.Records, sel.Year, sel.K), sel.Year)
	s.writeSVG(w, buf.Bytes(), err)
}

// selection loads the snapshot and parses the query. Bad parameters are
// answered with 400.
func (s *Server) selection(w http.ResponseWriter, r *http.Request) (*dashboard.Snapshot, selection, bool) {
	snap, ok := s.snapshot(w)
	if !ok {
		return nil, selection{}, false
	}
	sel, err := parseSelection(r.URL.Query(), snap, s.topK)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, selection{}, false
	}
	return snap, sel, true
}

func (s *Server) mapPoints(r *http.Request, snap *dashboard.Snapshot, year int) []domain.MapPoint {
	points := domain.MapPoints(snap.Records, year)
	return domain.EnrichWithGeocoding(r.Context(), points, s.geocoder, s.logger)
}

func (s *Server) writeSVG(w http.ResponseWriter, svg []byte, err error) {
	if errors.Is(err, dashboard.ErrNoChartData) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("chart render failed", "error", err)
		writeError(w, http.StatusInternalServerError, "chart render failed")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(svg) //nolint:errcheck // client may have gone away
}

// nonNil keeps empty results as [] rather than null in JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
