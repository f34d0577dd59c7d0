package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i474232898/weather-compare/internal/weather"
)

func testHTTPConfig() HTTPClientConfig {
	return HTTPClientConfig{Client: &http.Client{Timeout: 5 * time.Second}, UserAgent: "weather-compare-test"}
}

// nwsPeriods builds n alternating day/night periods starting with a daytime one.
func nwsPeriods(n int) []map[string]any {
	names := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		daytime := i%2 == 0
		name := names[(i/2)%len(names)]
		hour := 6
		if !daytime {
			name += " Night"
			hour = 18
		}
		out = append(out, map[string]any{
			"number":          i + 1,
			"name":            name,
			"startTime":       fmt.Sprintf("2024-05-%02dT%02d:00:00-05:00", 1+i/2, hour),
			"isDaytime":       daytime,
			"temperature":     60 + i,
			"temperatureUnit": "F",
			"probabilityOfPrecipitation": map[string]any{
				"unitCode": "wmoUnit:percent",
				"value":    nil,
			},
			"shortForecast":    "Sunny",
			"detailedForecast": "Sunny all day.",
		})
	}
	return out
}

func hourlyPeriodsJSON(n int) []map[string]any {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.FixedZone("CDT", -5*3600))
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		out = append(out, map[string]any{
			"number":          i + 1,
			"name":            "",
			"startTime":       ts.Format(time.RFC3339),
			"endTime":         ts.Add(time.Hour).Format(time.RFC3339),
			"isDaytime":       ts.Hour() >= 6 && ts.Hour() < 18,
			"temperature":     55 + i%10,
			"temperatureUnit": "F",
		})
	}
	return out
}

type nwsFake struct {
	server      *httptest.Server
	hourlyFails bool
}

func newNWSFake(t *testing.T, daily, hourly int) *nwsFake {
	t.Helper()
	f := &nwsFake{}
	mux := http.NewServeMux()
	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/points/41.8000,-87.6000" {
			http.Error(w, "unexpected point "+r.URL.Path, http.StatusNotFound)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "missing user agent", http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"properties": map[string]any{
				"forecast":       f.server.URL + "/gridpoints/LOT/76,73/forecast",
				"forecastHourly": f.server.URL + "/gridpoints/LOT/76,73/forecast/hourly",
			},
		})
	})
	mux.HandleFunc("/gridpoints/LOT/76,73/forecast", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"properties": map[string]any{"periods": nwsPeriods(daily)}})
	})
	mux.HandleFunc("/gridpoints/LOT/76,73/forecast/hourly", func(w http.ResponseWriter, r *http.Request) {
		if f.hourlyFails {
			http.Error(w, "upstream down", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"properties": map[string]any{"periods": hourlyPeriodsJSON(hourly)}})
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func TestNWSFetchForecast(t *testing.T) {
	fake := newNWSFake(t, 14, 156)
	p := NewNWSProvider(testHTTPConfig(), fake.server.URL, nil)

	res, err := p.FetchForecast(context.Background(), 41.8, -87.6)
	if err != nil {
		t.Fatalf("FetchForecast failed: %v", err)
	}

	if len(res.Forecast) != 7 {
		t.Fatalf("expected 7 daytime periods, got %d", len(res.Forecast))
	}
	for i, period := range res.Forecast {
		if !period.IsDaytime {
			t.Fatalf("period %d is not daytime: %+v", i, period)
		}
		if i > 0 && period.Number <= res.Forecast[i-1].Number {
			t.Fatalf("daytime periods out of order at %d", i)
		}
	}
	if res.Forecast[0].Name != "Monday" || res.Forecast[0].TemperatureUnit != "F" {
		t.Fatalf("unexpected first period %+v", res.Forecast[0])
	}
	if res.Forecast[0].PrecipitationChance() != 0 {
		t.Fatalf("null precipitation should read as 0")
	}

	if len(res.HourlyForecast) != 24 {
		t.Fatalf("expected 24 hourly periods, got %d", len(res.HourlyForecast))
	}
	if res.HourlyForecast[0].Number != 1 || res.HourlyForecast[0].Name != "9AM" {
		t.Fatalf("unexpected first hourly period %+v", res.HourlyForecast[0])
	}
	if len(res.AllPeriods) != 14 || len(res.AllHourlyPeriods) != 156 {
		t.Fatalf("raw periods not kept: %d %d", len(res.AllPeriods), len(res.AllHourlyPeriods))
	}
	if res.AllHourlyPeriods[0].Name != "" {
		t.Fatal("raw hourly periods must not be modified")
	}
}

func TestNWSShortResponses(t *testing.T) {
	fake := newNWSFake(t, 3, 5)
	p := NewNWSProvider(testHTTPConfig(), fake.server.URL, nil)

	res, err := p.FetchForecast(context.Background(), 41.8, -87.6)
	if err != nil {
		t.Fatalf("FetchForecast failed: %v", err)
	}
	if len(res.Forecast) != 2 || len(res.HourlyForecast) != 5 {
		t.Fatalf("unexpected lengths %d %d", len(res.Forecast), len(res.HourlyForecast))
	}
}

func TestNWSFailsWhenHourlyFails(t *testing.T) {
	fake := newNWSFake(t, 14, 48)
	fake.hourlyFails = true
	p := NewNWSProvider(testHTTPConfig(), fake.server.URL, nil)

	_, err := p.FetchForecast(context.Background(), 41.8, -87.6)
	if !errors.Is(err, weather.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if weather.StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("expected upstream status to be carried, got %d", weather.StatusOf(err))
	}
}

func TestNWSPointsErrors(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		fake := newNWSFake(t, 14, 48)
		p := NewNWSProvider(testHTTPConfig(), fake.server.URL, nil)

		_, err := p.FetchForecast(context.Background(), 10, 10)
		if !errors.Is(err, weather.ErrServiceUnavailable) || weather.StatusOf(err) != http.StatusNotFound {
			t.Fatalf("expected ErrServiceUnavailable with 404, got %v", err)
		}
	})

	t.Run("missing urls", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"properties": {"forecast": ""}}`))
		}))
		defer srv.Close()
		p := NewNWSProvider(testHTTPConfig(), srv.URL, nil)

		if _, err := p.FetchForecast(context.Background(), 1, 2); !errors.Is(err, weather.ErrInvalidResponse) {
			t.Fatalf("expected ErrInvalidResponse, got %v", err)
		}
	})

	t.Run("garbage body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()
		p := NewNWSProvider(testHTTPConfig(), srv.URL, nil)

		if _, err := p.FetchForecast(context.Background(), 1, 2); !errors.Is(err, weather.ErrInvalidResponse) {
			t.Fatalf("expected ErrInvalidResponse, got %v", err)
		}
	})
}

func TestFetchWithoutClient(t *testing.T) {
	p := NewNWSProvider(HTTPClientConfig{}, "http://127.0.0.1:1", nil)
	if _, err := p.FetchForecast(context.Background(), 1, 2); !errors.Is(err, errNoHTTPClient) {
		t.Fatalf("expected errNoHTTPClient, got %v", err)
	}
}
