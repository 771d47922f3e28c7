package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves country names to a representative point.
type Geocoder interface {
	// GeocodeCountry returns the centroid and canonical name of a country.
	GeocodeCountry(ctx context.Context, country string) (GeocodingResult, error)
}
