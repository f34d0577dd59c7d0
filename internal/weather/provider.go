package weather

import (
	"context"
)

// Geocoder resolves free text to a location and coordinates to a display name.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
	Search(ctx context.Context, query string) (ResolvedLocation, error)
}

// ForecastSource fetches daily and hourly forecasts for a coordinate pair.
type ForecastSource interface {
	FetchForecast(ctx context.Context, lat, lon float64) (ForecastResult, error)
}

// LocationStore is the contract the saved-location store must satisfy.
type LocationStore interface {
	GetAll(ctx context.Context) map[string]Coordinates
	Add(ctx context.Context, name string, lat, lon float64) error
	Remove(ctx context.Context, name string) (bool, error)
	Get(ctx context.Context, name string) (Coordinates, bool)
	Names(ctx context.Context) []string
	FindNameByCoordinates(ctx context.Context, lat, lon float64) (string, bool)
}
