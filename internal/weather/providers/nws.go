package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-compare/internal/weather"
)

const (
	// DefaultNWSURL is the National Weather Service API root.
	DefaultNWSURL = "https://api.weather.gov"

	dailyPeriods  = 7
	hourlyPeriods = 24
)

// NWSProvider implements weather.ForecastSource against api.weather.gov.
type NWSProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

func NewNWSProvider(cfg HTTPClientConfig, baseURL string, logger *zap.SugaredLogger) *NWSProvider {
	if baseURL == "" {
		baseURL = DefaultNWSURL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &NWSProvider{
		name:    "nws",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: newCircuitBreaker("nws", logger),
		logger:  logger,
	}
}

func (p *NWSProvider) Name() string {
	return p.name
}

type pointsPayload struct {
	Properties struct {
		Forecast       string `json:"forecast"`
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

type periodsPayload struct {
	Properties struct {
		Periods []weather.WeatherPeriod `json:"periods"`
	} `json:"properties"`
}

// FetchForecast resolves the forecast URLs for the coordinates, then fetches
// the daily and hourly documents concurrently. Both must succeed.
func (p *NWSProvider) FetchForecast(ctx context.Context, lat, lon float64) (weather.ForecastResult, error) {
	dailyURL, hourlyURL, err := p.resolvePoint(ctx, lat, lon)
	if err != nil {
		return weather.ForecastResult{}, err
	}

	var (
		wg                  sync.WaitGroup
		daily, hourly       []weather.WeatherPeriod
		dailyErr, hourlyErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		daily, dailyErr = p.fetchPeriods(ctx, dailyURL, "Forecast")
	}()
	go func() {
		defer wg.Done()
		hourly, hourlyErr = p.fetchPeriods(ctx, hourlyURL, "Hourly forecast")
	}()
	wg.Wait()

	if dailyErr != nil {
		return weather.ForecastResult{}, dailyErr
	}
	if hourlyErr != nil {
		return weather.ForecastResult{}, hourlyErr
	}

	daytime := make([]weather.WeatherPeriod, 0, dailyPeriods)
	for _, period := range daily {
		if !period.IsDaytime {
			continue
		}
		daytime = append(daytime, period)
		if len(daytime) == dailyPeriods {
			break
		}
	}

	next := hourly
	if len(next) > hourlyPeriods {
		next = next[:hourlyPeriods]
	}
	next = append([]weather.WeatherPeriod(nil), next...)
	for i := range next {
		if next[i].Name == "" {
			next[i].Name = next[i].HourLabel()
		}
	}

	p.logger.Debugw("forecast fetched", "lat", lat, "lon", lon, "daily", len(daytime), "hourly", len(next))

	return weather.ForecastResult{
		Forecast:         daytime,
		HourlyForecast:   next,
		AllPeriods:       nonNil(daily),
		AllHourlyPeriods: nonNil(hourly),
	}, nil
}

func (p *NWSProvider) resolvePoint(ctx context.Context, lat, lon float64) (string, string, error) {
	u := fmt.Sprintf("%s/points/%.4f,%.4f", p.baseURL, lat, lon)

	body, status, err := fetch(ctx, p.httpCfg, p.circuit, u)
	if err != nil {
		return "", "", weather.NewError(weather.ErrServiceUnavailable, upstreamStatus(status),
			"Weather service is unavailable for these coordinates.", err)
	}

	var payload pointsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", "", invalidForecastData(err)
	}
	if payload.Properties.Forecast == "" || payload.Properties.ForecastHourly == "" {
		return "", "", invalidForecastData(fmt.Errorf("points response is missing forecast urls"))
	}
	return payload.Properties.Forecast, payload.Properties.ForecastHourly, nil
}

func (p *NWSProvider) fetchPeriods(ctx context.Context, u, label string) ([]weather.WeatherPeriod, error) {
	body, status, err := fetch(ctx, p.httpCfg, p.circuit, u)
	if err != nil {
		return nil, weather.NewError(weather.ErrServiceUnavailable, upstreamStatus(status),
			label+" request failed.", err)
	}

	var payload periodsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, weather.NewError(weather.ErrServiceUnavailable, http.StatusBadGateway,
			label+" request failed.", err)
	}
	return payload.Properties.Periods, nil
}

func invalidForecastData(err error) error {
	return weather.NewError(weather.ErrInvalidResponse, http.StatusBadGateway,
		"Weather service returned invalid data. Please try again.", err)
}

func nonNil(periods []weather.WeatherPeriod) []weather.WeatherPeriod {
	if periods == nil {
		return []weather.WeatherPeriod{}
	}
	return periods
}

var _ weather.ForecastSource = (*NWSProvider)(nil)
