package weather

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
)

type fakeGeocoder struct {
	name       string
	reverseErr error
	hit        ResolvedLocation
	searchErr  error
}

func (f *fakeGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return f.name, f.reverseErr
}

func (f *fakeGeocoder) Search(context.Context, string) (ResolvedLocation, error) {
	return f.hit, f.searchErr
}

type fakeForecasts struct {
	mu      sync.Mutex
	results map[float64]ForecastResult
	errs    map[float64]error
	calls   int
}

func (f *fakeForecasts) FetchForecast(_ context.Context, lat, _ float64) (ForecastResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[lat]; ok {
		return ForecastResult{}, err
	}
	return f.results[lat], nil
}

type fakeStore struct {
	LocationStore
	saved map[string]Coordinates
}

func (f *fakeStore) FindNameByCoordinates(_ context.Context, lat, lon float64) (string, bool) {
	for name, c := range f.saved {
		if c.Lat == lat && c.Lon == lon {
			return name, true
		}
	}
	return "", false
}

var errUpstream = NewError(ErrServiceUnavailable, http.StatusServiceUnavailable, "Forecast request failed.", nil)

func TestCurrentFallsBackToUnknownLocation(t *testing.T) {
	forecasts := &fakeForecasts{results: map[float64]ForecastResult{
		41.8: {Forecast: []WeatherPeriod{day("Monday", 70, nil)}},
	}}
	store := &fakeStore{saved: map[string]Coordinates{"Home": {Lat: 41.8, Lon: -87.6}}}
	svc := NewService(&fakeGeocoder{reverseErr: errors.New("boom")}, forecasts, store, nil)

	cw, err := svc.Current(context.Background(), 41.8, -87.6)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if cw.LocationName != UnknownLocation {
		t.Fatalf("expected %q, got %q", UnknownLocation, cw.LocationName)
	}
	if cw.SavedName != "Home" {
		t.Fatalf("expected saved name Home, got %q", cw.SavedName)
	}
	if len(cw.Forecast) != 1 {
		t.Fatalf("expected forecast to pass through, got %+v", cw.Forecast)
	}
}

func TestCurrentFailsWhenForecastFails(t *testing.T) {
	forecasts := &fakeForecasts{errs: map[float64]error{1: errUpstream}}
	svc := NewService(&fakeGeocoder{name: "Somewhere"}, forecasts, nil, nil)

	if _, err := svc.Current(context.Background(), 1, 2); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestSearchReportsFailureAsValue(t *testing.T) {
	notFound := NewError(ErrNotFound, http.StatusNotFound, "No locations found", nil)
	svc := NewService(&fakeGeocoder{searchErr: notFound}, &fakeForecasts{}, nil, nil)

	res, err := svc.Search(context.Background(), "Atlantis")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if res.Success || res.Error != "No locations found" || res.LocationName != "Atlantis" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Forecast == nil || len(res.Forecast) != 0 {
		t.Fatalf("expected empty forecast, got %+v", res.Forecast)
	}

	if _, err := svc.Search(context.Background(), "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for blank query, got %v", err)
	}
}

func TestSearchThenForecast(t *testing.T) {
	hit := ResolvedLocation{Name: "Chicago, IL, USA", Latitude: 41.8, Longitude: -87.6}
	forecasts := &fakeForecasts{results: map[float64]ForecastResult{
		41.8: {Forecast: []WeatherPeriod{day("This Afternoon", 70, nil)}},
	}}
	svc := NewService(&fakeGeocoder{hit: hit}, forecasts, nil, nil)

	res, err := svc.Search(context.Background(), "Chicago, IL")
	if err != nil || !res.Success {
		t.Fatalf("unexpected failure: %+v %v", res, err)
	}
	if res.LocationName != hit.Name || res.Forecast[0].Name != "This Afternoon" || res.Forecast[0].TemperatureUnit != "F" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCompareToleratesOneSideFailing(t *testing.T) {
	forecasts := &fakeForecasts{
		results: map[float64]ForecastResult{1: {Forecast: []WeatherPeriod{day("Monday", 70, nil)}}},
		errs:    map[float64]error{2: errUpstream},
	}
	svc := NewService(&fakeGeocoder{}, forecasts, nil, nil)

	res, err := svc.Compare(context.Background(),
		NamedCoordinates{Name: "A", Latitude: 1, Longitude: 1},
		NamedCoordinates{Name: "B", Latitude: 2, Longitude: 2})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if res.Current.Error != "" || len(res.Current.Forecast) != 1 {
		t.Fatalf("current side should succeed: %+v", res.Current)
	}
	if res.Comparison.Error != "Forecast request failed." {
		t.Fatalf("comparison side should carry the error: %+v", res.Comparison)
	}
	if res.Charts != nil {
		t.Fatal("charts must not be built from a partial comparison")
	}
	if forecasts.calls != 2 {
		t.Fatalf("expected 2 forecast calls, got %d", forecasts.calls)
	}
}

func TestCompareBuildsCharts(t *testing.T) {
	forecasts := &fakeForecasts{results: map[float64]ForecastResult{
		1: {Forecast: []WeatherPeriod{day("Monday", 70, nil)}},
		2: {Forecast: []WeatherPeriod{day("Monday", 75, nil)}},
	}}
	svc := NewService(&fakeGeocoder{}, forecasts, nil, nil)

	res, err := svc.Compare(context.Background(),
		NamedCoordinates{Name: "A", Latitude: 1, Longitude: 1},
		NamedCoordinates{Name: "B", Latitude: 2, Longitude: 2})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if res.Charts == nil || len(res.Charts.Temperature) != 1 || res.Charts.Temperature[0].TemperatureDelta != 5 {
		t.Fatalf("unexpected charts %+v", res.Charts)
	}

	if _, err := svc.Compare(context.Background(), NamedCoordinates{}, NamedCoordinates{Name: "B"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NewError(ErrServiceUnavailable, 500, "x", nil), 500},
		{Validation("bad"), http.StatusBadRequest},
		{&Error{Kind: ErrNotFound, Message: "none"}, http.StatusNotFound},
		{&Error{Kind: ErrAlreadyExists, Message: "dup"}, http.StatusConflict},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusOf(tc.err); got != tc.want {
			t.Fatalf("StatusOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
