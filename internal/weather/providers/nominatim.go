package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-compare/internal/weather"
)

// DefaultNominatimURL is the public OpenStreetMap geocoding endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimProvider implements weather.Geocoder against the Nominatim API.
type NominatimProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

func NewNominatimProvider(cfg HTTPClientConfig, baseURL string, logger *zap.SugaredLogger) *NominatimProvider {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &NominatimProvider{
		name:    "nominatim",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: newCircuitBreaker("nominatim", logger),
		logger:  logger,
	}
}

func (p *NominatimProvider) Name() string {
	return p.name
}

// ReverseGeocode resolves coordinates to a display name.
func (p *NominatimProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	values := url.Values{}
	values.Set("format", "json")
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	body, status, err := fetch(ctx, p.httpCfg, p.circuit, p.baseURL+"/reverse?"+values.Encode())
	if err != nil {
		return "", weather.NewError(weather.ErrServiceUnavailable, upstreamStatus(status),
			"Unable to determine location name. Please check your coordinates.", err)
	}

	var payload struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", invalidLocationData(err)
	}

	if payload.DisplayName == "" {
		return weather.UnknownLocation, nil
	}
	return payload.DisplayName, nil
}

// Search resolves free text to the first ranked location.
func (p *NominatimProvider) Search(ctx context.Context, query string) (weather.ResolvedLocation, error) {
	values := url.Values{}
	values.Set("format", "json")
	values.Set("q", query)

	body, status, err := fetch(ctx, p.httpCfg, p.circuit, p.baseURL+"/search?"+values.Encode())
	if err != nil {
		return weather.ResolvedLocation{}, weather.NewError(weather.ErrServiceUnavailable, upstreamStatus(status),
			fmt.Sprintf("Unable to search for %q. The location service is temporarily unavailable.", query), err)
	}

	var payload []struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.ResolvedLocation{}, invalidLocationData(err)
	}

	if len(payload) == 0 {
		return weather.ResolvedLocation{}, weather.NewError(weather.ErrNotFound, http.StatusNotFound,
			fmt.Sprintf("No locations found for %q. Try a different search term or check the spelling.", query), nil)
	}

	first := payload[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return weather.ResolvedLocation{}, invalidLocationData(err)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return weather.ResolvedLocation{}, invalidLocationData(err)
	}

	p.logger.Debugw("location search resolved", "query", query, "location", first.DisplayName, "results", len(payload))

	return weather.ResolvedLocation{
		Name:      first.DisplayName,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

func invalidLocationData(err error) error {
	return weather.NewError(weather.ErrInvalidResponse, http.StatusBadGateway,
		"Location service returned invalid data. Please try again.", err)
}

var _ weather.Geocoder = (*NominatimProvider)(nil)
