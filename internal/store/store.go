package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/i474232898/weather-compare/internal/weather"
)

// LocationsKey is the storage entry holding the saved-location mapping.
const LocationsKey = "weather-app-locations"

// Backend is an opaque string key-value store.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Locations persists saved locations as a single JSON entry mapping
// name -> {lat, lon}. Every mutation rewrites the whole entry. Writers that
// share a backend across processes can overwrite each other's changes; the
// store is meant for a single user.
type Locations struct {
	backend Backend
	key     string
	logger  *zap.SugaredLogger
}

// NewLocations creates a location store over backend. An empty namespace
// keeps the bare LocationsKey.
func NewLocations(backend Backend, namespace string, logger *zap.SugaredLogger) *Locations {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	key := LocationsKey
	if namespace != "" {
		key = namespace + ":" + LocationsKey
	}
	return &Locations{backend: backend, key: key, logger: logger}
}

// GetAll returns every saved location. Missing, unreadable or corrupt data
// yields an empty mapping.
func (l *Locations) GetAll(ctx context.Context) map[string]weather.Coordinates {
	locations, err := l.load(ctx)
	if err != nil {
		l.logger.Warnw("saved locations unavailable; treating as empty", "key", l.key, "error", err)
		return make(map[string]weather.Coordinates)
	}
	return locations
}

// Add saves a new location. It fails without writing when name already exists
// or when the current entry cannot be read.
func (l *Locations) Add(ctx context.Context, name string, lat, lon float64) error {
	locations, err := l.load(ctx)
	if err != nil {
		return unreadable(err)
	}
	if _, exists := locations[name]; exists {
		return weather.NewError(weather.ErrAlreadyExists, http.StatusConflict, "Location already exists", nil)
	}

	locations[name] = weather.Coordinates{Lat: lat, Lon: lon}
	if err := l.save(ctx, locations); err != nil {
		return err
	}
	l.logger.Infow("location saved", "name", name, "lat", lat, "lon", lon)
	return nil
}

// Remove deletes a saved location and reports whether it existed.
func (l *Locations) Remove(ctx context.Context, name string) (bool, error) {
	locations, err := l.load(ctx)
	if err != nil {
		return false, unreadable(err)
	}
	if _, exists := locations[name]; !exists {
		return false, nil
	}

	delete(locations, name)
	if err := l.save(ctx, locations); err != nil {
		return false, err
	}
	l.logger.Infow("location removed", "name", name)
	return true, nil
}

// Get returns the coordinates saved under name.
func (l *Locations) Get(ctx context.Context, name string) (weather.Coordinates, bool) {
	c, ok := l.GetAll(ctx)[name]
	return c, ok
}

// Names returns the saved location names in sorted order.
func (l *Locations) Names(ctx context.Context) []string {
	return sortedNames(l.GetAll(ctx))
}

// FindNameByCoordinates returns the first saved name, in sorted order, whose
// coordinates match lat/lon at 4 decimal places.
func (l *Locations) FindNameByCoordinates(ctx context.Context, lat, lon float64) (string, bool) {
	locations := l.GetAll(ctx)
	target := coordinateKey(lat, lon)

	for _, name := range sortedNames(locations) {
		c := locations[name]
		if coordinateKey(c.Lat, c.Lon) == target {
			return name, true
		}
	}
	return "", false
}

// Close releases the underlying backend.
func (l *Locations) Close() error {
	return l.backend.Close()
}

// load reads the stored mapping. An absent entry is an empty mapping; a read
// failure or corrupt entry is an error.
func (l *Locations) load(ctx context.Context) (map[string]weather.Coordinates, error) {
	raw, ok, err := l.backend.Get(ctx, l.key)
	if err != nil {
		return nil, fmt.Errorf("read saved locations: %w", err)
	}
	locations := make(map[string]weather.Coordinates)
	if !ok || raw == "" {
		return locations, nil
	}
	if err := json.Unmarshal([]byte(raw), &locations); err != nil {
		return nil, fmt.Errorf("decode saved locations: %w", err)
	}
	if locations == nil {
		locations = make(map[string]weather.Coordinates)
	}
	return locations, nil
}

func (l *Locations) save(ctx context.Context, locations map[string]weather.Coordinates) error {
	data, err := json.Marshal(locations)
	if err != nil {
		return fmt.Errorf("encode saved locations: %w", err)
	}
	if err := l.backend.Set(ctx, l.key, string(data)); err != nil {
		return fmt.Errorf("write saved locations: %w", err)
	}
	return nil
}

func unreadable(err error) error {
	return weather.NewError(weather.ErrServiceUnavailable, http.StatusServiceUnavailable, "Saved locations could not be read", err)
}

func sortedNames(locations map[string]weather.Coordinates) []string {
	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func coordinateKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

var _ weather.LocationStore = (*Locations)(nil)
