package domain

import (
	"context"
	"log/slog"
)

// MapPoint is one country on the risk map.
type MapPoint struct {
	Country   string  `json:"country"`
	Year      int     `json:"year"`
	RiskScore float64 `json:"risk_score"`
	Lat       float64 `json:"lat,omitempty"`
	Lon       float64 `json:"lon,omitempty"`
	PlaceName string  `json:"place_name,omitempty"`
	GeoSource string  `json:"geo_source,omitempty"` // "geocoded", "failed", "empty"
}

// MapPoints builds the map layer for a year, keyed by country name.
func MapPoints(records []CountryYearRecord, year int) []MapPoint {
	rows := FilterYear(records, year)
	points := make([]MapPoint, len(rows))
	for i, r := range rows {
		points[i] = MapPoint{Country: r.Country, Year: r.Year, RiskScore: r.RiskScore}
	}
	return points
}

// EnrichWithGeocoding attaches coordinates to map points. If geocoder is nil
// the points are returned unchanged; individual failures are logged and
// marked on the point (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, points []MapPoint, geocoder Geocoder, logger *slog.Logger) []MapPoint {
	if geocoder == nil {
		return points
	}

	out := make([]MapPoint, len(points))
	for i, p := range points {
		if ctx.Err() != nil {
			copy(out[i:], points[i:])
			break
		}

		result, err := geocoder.GeocodeCountry(ctx, p.Country)
		if err != nil {
			logger.Warn("country geocoding failed", "country", p.Country, "error", err)
			p.GeoSource = "failed"
			out[i] = p
			continue
		}
		if result.Lat == 0 && result.Lon == 0 {
			p.GeoSource = "empty"
			out[i] = p
			continue
		}
		p.Lat = result.Lat
		p.Lon = result.Lon
		p.PlaceName = result.PlaceName
		p.GeoSource = "geocoded"
		out[i] = p
	}
	return out
}
