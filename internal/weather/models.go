package weather

import (
	"fmt"
	"strings"
	"time"
)

// Precipitation is the upstream probability-of-precipitation value.
// Value is nil when the upstream reports null.
type Precipitation struct {
	UnitCode string   `json:"unitCode,omitempty"`
	Value    *float64 `json:"value"`
}

// WeatherPeriod is one forecast time slice as reported by the forecast service.
type WeatherPeriod struct {
	Number                     int            `json:"number"`
	Name                       string         `json:"name"`
	StartTime                  string         `json:"startTime"`
	EndTime                    string         `json:"endTime"`
	IsDaytime                  bool           `json:"isDaytime"`
	Temperature                int            `json:"temperature"`
	TemperatureUnit            string         `json:"temperatureUnit"`
	TemperatureTrend           string         `json:"temperatureTrend,omitempty"`
	ProbabilityOfPrecipitation *Precipitation `json:"probabilityOfPrecipitation,omitempty"`
	WindSpeed                  string         `json:"windSpeed,omitempty"`
	WindDirection              string         `json:"windDirection,omitempty"`
	Icon                       string         `json:"icon,omitempty"`
	ShortForecast              string         `json:"shortForecast"`
	DetailedForecast           string         `json:"detailedForecast"`
}

// PrecipitationChance returns the chance of precipitation in percent.
// A missing or null value counts as 0.
func (p WeatherPeriod) PrecipitationChance() float64 {
	if p.ProbabilityOfPrecipitation == nil || p.ProbabilityOfPrecipitation.Value == nil {
		return 0
	}
	return *p.ProbabilityOfPrecipitation.Value
}

// HourLabel formats the period start as "1AM".."12PM" in the start time's own offset.
// It returns an empty string when StartTime is not RFC3339.
func (p WeatherPeriod) HourLabel() string {
	ts, err := time.Parse(time.RFC3339, p.StartTime)
	if err != nil {
		return ""
	}
	hour := ts.Hour()
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	switch {
	case hour == 0:
		hour = 12
	case hour > 12:
		hour -= 12
	}
	return fmt.Sprintf("%d%s", hour, suffix)
}

// DayLabel returns the compact day label shown in daily lists.
func (p WeatherPeriod) DayLabel() string {
	if strings.Contains(p.Name, "This") || strings.Contains(p.Name, "Today") || strings.Contains(p.Name, "Tonight") {
		return "Today"
	}
	name := []rune(p.Name)
	if len(name) > 3 {
		name = name[:3]
	}
	return strings.ToUpper(string(name))
}

// ForecastResult is the output of a single forecast fetch.
// It is built fresh for every call and never mutated afterwards.
type ForecastResult struct {
	// Forecast holds up to 7 daytime periods, earliest first.
	Forecast []WeatherPeriod `json:"forecast"`
	// HourlyForecast holds up to 24 hourly periods, nearest first.
	HourlyForecast []WeatherPeriod `json:"hourlyForecast"`

	AllPeriods       []WeatherPeriod `json:"allPeriods"`
	AllHourlyPeriods []WeatherPeriod `json:"allHourlyPeriods"`
}

// Coordinates is a latitude/longitude pair as persisted by the location store.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// StoredLocation is a named, persisted coordinate pair.
type StoredLocation struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// ResolvedLocation is a geocoding search hit.
type ResolvedLocation struct {
	Name      string  `json:"locationName"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NamedCoordinates identifies one side of a comparison.
type NamedCoordinates struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ShortName returns the part of a display name before the first comma.
func ShortName(name string) string {
	first, _, _ := strings.Cut(name, ",")
	return first
}
