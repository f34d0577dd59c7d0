package weather

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// UnknownLocation is shown when a location name cannot be resolved.
const UnknownLocation = "Unknown Location"

// Service orchestrates geocoding, forecast fetching and the saved-location store.
type Service struct {
	geocoder  Geocoder
	forecasts ForecastSource
	store     LocationStore
	logger    *zap.SugaredLogger
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, forecasts ForecastSource, store LocationStore, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		geocoder:  geocoder,
		forecasts: forecasts,
		store:     store,
		logger:    logger,
	}
}

// Store exposes the saved-location store used by the service.
func (s *Service) Store() LocationStore {
	return s.store
}

// CurrentWeather is the forecast view for a pair of coordinates.
type CurrentWeather struct {
	LocationName   string          `json:"locationName"`
	SavedName      string          `json:"savedName,omitempty"`
	Latitude       float64         `json:"latitude"`
	Longitude      float64         `json:"longitude"`
	Forecast       []WeatherPeriod `json:"forecast"`
	HourlyForecast []WeatherPeriod `json:"hourlyForecast"`
}

// SearchResult is the forecast view for a searched location. A failed lookup
// is reported through Success and Error instead of an error return.
type SearchResult struct {
	Success        bool            `json:"success"`
	Error          string          `json:"error,omitempty"`
	LocationName   string          `json:"locationName"`
	Latitude       float64         `json:"latitude"`
	Longitude      float64         `json:"longitude"`
	Forecast       []WeatherPeriod `json:"forecast"`
	HourlyForecast []WeatherPeriod `json:"hourlyForecast"`
}

// CompareSide is one location's half of a comparison.
type CompareSide struct {
	Location NamedCoordinates `json:"location"`
	Forecast []WeatherPeriod  `json:"forecast"`
	Error    string           `json:"error,omitempty"`
}

// CompareResult holds both sides and, when both fetched, the derived charts.
type CompareResult struct {
	Current    CompareSide `json:"current"`
	Comparison CompareSide `json:"comparison"`
	Charts     *Comparison `json:"charts,omitempty"`
}

// Forecast fetches the forecast for the given coordinates.
func (s *Service) Forecast(ctx context.Context, lat, lon float64) (ForecastResult, error) {
	return s.forecasts.FetchForecast(ctx, lat, lon)
}

// Current resolves the display name and the forecast for the given coordinates
// concurrently. A failed reverse lookup falls back to UnknownLocation.
func (s *Service) Current(ctx context.Context, lat, lon float64) (CurrentWeather, error) {
	var (
		wg          sync.WaitGroup
		name        string
		forecast    ForecastResult
		forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		n, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			s.logger.Warnw("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
			n = UnknownLocation
		}
		name = n
	}()
	go func() {
		defer wg.Done()
		forecast, forecastErr = s.forecasts.FetchForecast(ctx, lat, lon)
	}()
	wg.Wait()

	if forecastErr != nil {
		s.logger.Errorw("forecast fetch failed", "lat", lat, "lon", lon, "error", forecastErr)
		return CurrentWeather{}, forecastErr
	}

	cw := CurrentWeather{
		LocationName:   name,
		Latitude:       lat,
		Longitude:      lon,
		Forecast:       forecast.Forecast,
		HourlyForecast: forecast.HourlyForecast,
	}
	if s.store != nil {
		if saved, ok := s.store.FindNameByCoordinates(ctx, lat, lon); ok {
			cw.SavedName = saved
		}
	}
	return cw, nil
}

// Search geocodes query and fetches the forecast for the first hit.
// Only an empty query is returned as an error.
func (s *Service) Search(ctx context.Context, query string) (SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return SearchResult{}, Validation("Search query is required")
	}

	loc, err := s.geocoder.Search(ctx, query)
	if err != nil {
		s.logger.Warnw("location search failed", "query", query, "error", err)
		return failedSearch(query, err), nil
	}

	forecast, err := s.forecasts.FetchForecast(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		s.logger.Warnw("forecast fetch failed", "query", query, "location", loc.Name, "error", err)
		return failedSearch(query, err), nil
	}

	return SearchResult{
		Success:        true,
		LocationName:   loc.Name,
		Latitude:       loc.Latitude,
		Longitude:      loc.Longitude,
		Forecast:       forecast.Forecast,
		HourlyForecast: forecast.HourlyForecast,
	}, nil
}

func failedSearch(query string, err error) SearchResult {
	return SearchResult{
		Success:        false,
		Error:          Message(err),
		LocationName:   query,
		Forecast:       []WeatherPeriod{},
		HourlyForecast: []WeatherPeriod{},
	}
}

// Compare fetches both forecasts concurrently. A failure on one side is
// recorded on that side only; charts are built when both sides succeeded.
func (s *Service) Compare(ctx context.Context, current, comparison NamedCoordinates) (CompareResult, error) {
	if strings.TrimSpace(current.Name) == "" || strings.TrimSpace(comparison.Name) == "" {
		return CompareResult{}, Validation("Missing comparison location parameters")
	}

	result := CompareResult{
		Current:    CompareSide{Location: current},
		Comparison: CompareSide{Location: comparison},
	}

	var wg sync.WaitGroup
	for _, side := range []*CompareSide{&result.Current, &result.Comparison} {
		side := side
		wg.Add(1)
		go func() {
			defer wg.Done()

			f, err := s.forecasts.FetchForecast(ctx, side.Location.Latitude, side.Location.Longitude)
			if err != nil {
				// Keep going; the other side can still be shown.
				s.logger.Warnw("compare forecast failed", "location", side.Location.Name, "error", err)
				side.Error = Message(err)
				side.Forecast = []WeatherPeriod{}
				return
			}
			side.Forecast = f.Forecast
		}()
	}
	wg.Wait()

	if result.Current.Error == "" && result.Comparison.Error == "" {
		charts := BuildComparison(current.Name, result.Current.Forecast, comparison.Name, result.Comparison.Forecast)
		result.Charts = &charts
	}
	return result, nil
}
