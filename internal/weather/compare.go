package weather

import (
	"fmt"
	"math"
	"strconv"
)

// TemperatureDatum is one row of the temperature difference chart.
// A positive delta means the comparison location is warmer.
type TemperatureDatum struct {
	Day              string `json:"day"`
	TemperatureDelta int    `json:"temperatureDelta"`
}

// PrecipitationDatum is one row of the precipitation chance chart.
type PrecipitationDatum struct {
	Day                     string  `json:"day"`
	CurrentPrecipitation    float64 `json:"currentPrecipitation"`
	ComparisonPrecipitation float64 `json:"comparisonPrecipitation"`
}

// TableRow is an accessible, text-only rendering of a comparison datum.
type TableRow struct {
	Day         string `json:"day"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Comparison bundles every dataset derived from two forecasts.
type Comparison struct {
	Title              string               `json:"title"`
	Temperature        []TemperatureDatum   `json:"temperature"`
	Precipitation      []PrecipitationDatum `json:"precipitation"`
	TemperatureRows    []TableRow           `json:"temperatureRows"`
	PrecipitationRows  []TableRow           `json:"precipitationRows"`
	CurrentLocation    string               `json:"currentLocation"`
	ComparisonLocation string               `json:"comparisonLocation"`
}

type matchedPair struct {
	current    WeatherPeriod
	comparison WeatherPeriod
}

// matchByName pairs each daytime period in current with the first daytime
// period of the same name in comparison. Unmatched periods are dropped and
// the order of current is kept.
func matchByName(current, comparison []WeatherPeriod) []matchedPair {
	byName := make(map[string]WeatherPeriod, len(comparison))
	for _, p := range comparison {
		if !p.IsDaytime {
			continue
		}
		if _, seen := byName[p.Name]; !seen {
			byName[p.Name] = p
		}
	}

	pairs := make([]matchedPair, 0, len(current))
	for _, p := range current {
		if !p.IsDaytime {
			continue
		}
		match, ok := byName[p.Name]
		if !ok {
			continue
		}
		pairs = append(pairs, matchedPair{current: p, comparison: match})
	}
	return pairs
}

// BuildTemperatureComparison returns comparison minus current temperature per shared day.
func BuildTemperatureComparison(current, comparison []WeatherPeriod) []TemperatureDatum {
	pairs := matchByName(current, comparison)
	out := make([]TemperatureDatum, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, TemperatureDatum{
			Day:              pair.current.Name,
			TemperatureDelta: pair.comparison.Temperature - pair.current.Temperature,
		})
	}
	return out
}

// BuildPrecipitationComparison returns both precipitation chances per shared day.
func BuildPrecipitationComparison(current, comparison []WeatherPeriod) []PrecipitationDatum {
	pairs := matchByName(current, comparison)
	out := make([]PrecipitationDatum, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, PrecipitationDatum{
			Day:                     pair.current.Name,
			CurrentPrecipitation:    pair.current.PrecipitationChance(),
			ComparisonPrecipitation: pair.comparison.PrecipitationChance(),
		})
	}
	return out
}

// BuildComparison derives the chart datasets and their table renderings.
func BuildComparison(currentName string, current []WeatherPeriod, comparisonName string, comparison []WeatherPeriod) Comparison {
	temps := BuildTemperatureComparison(current, comparison)
	precip := BuildPrecipitationComparison(current, comparison)

	return Comparison{
		Title:              fmt.Sprintf("%s vs %s", ShortName(comparisonName), ShortName(currentName)),
		Temperature:        temps,
		Precipitation:      precip,
		TemperatureRows:    TemperatureRows(currentName, comparisonName, temps),
		PrecipitationRows:  PrecipitationRows(currentName, comparisonName, precip),
		CurrentLocation:    currentName,
		ComparisonLocation: comparisonName,
	}
}

// TemperatureRows describes each temperature delta in words.
func TemperatureRows(currentName, comparisonName string, data []TemperatureDatum) []TableRow {
	cur, cmp := ShortName(currentName), ShortName(comparisonName)
	rows := make([]TableRow, 0, len(data))
	for _, d := range data {
		value := strconv.Itoa(d.TemperatureDelta)
		if d.TemperatureDelta > 0 {
			value = "+" + value
		}
		direction := "warmer"
		if d.TemperatureDelta < 0 {
			direction = "cooler"
		}
		delta := d.TemperatureDelta
		if delta < 0 {
			delta = -delta
		}
		rows = append(rows, TableRow{
			Day:         d.Day,
			Value:       value,
			Description: fmt.Sprintf("%s is %d°F %s than %s", cmp, delta, direction, cur),
		})
	}
	return rows
}

// PrecipitationRows describes each precipitation difference in words.
func PrecipitationRows(currentName, comparisonName string, data []PrecipitationDatum) []TableRow {
	cur, cmp := ShortName(currentName), ShortName(comparisonName)
	rows := make([]TableRow, 0, len(data))
	for _, d := range data {
		diff := d.ComparisonPrecipitation - d.CurrentPrecipitation
		var comparison string
		switch {
		case diff == 0:
			comparison = "same chance"
		case diff > 0:
			comparison = formatPercent(diff) + " higher chance"
		default:
			comparison = formatPercent(math.Abs(diff)) + " lower chance"
		}
		rows = append(rows, TableRow{
			Day:         d.Day,
			Value:       fmt.Sprintf("%s / %s", formatPercent(d.CurrentPrecipitation), formatPercent(d.ComparisonPrecipitation)),
			Description: fmt.Sprintf("%s has %s of precipitation than %s", cmp, comparison, cur),
		})
	}
	return rows
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
