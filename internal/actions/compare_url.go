package actions

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/weather-compare/internal/weather"
)

// Query parameters carried by a compare link.
const (
	ParamCurrentName = "currentName"
	ParamCurrentLat  = "currentLat"
	ParamCurrentLon  = "currentLon"
	ParamCompareName = "compareName"
	ParamCompareLat  = "compareLat"
	ParamCompareLon  = "compareLon"
)

// BuildCompareURL serializes both locations into a compare link under basePath.
func BuildCompareURL(basePath string, current, compare weather.NamedCoordinates) (string, error) {
	if strings.TrimSpace(current.Name) == "" || !finite(current.Latitude) || !finite(current.Longitude) {
		return "", weather.Validation("Invalid current weather data")
	}
	if !finite(compare.Latitude) || !finite(compare.Longitude) {
		return "", weather.Validation("Invalid location data")
	}
	if strings.TrimSpace(compare.Name) == "" {
		return "", weather.Validation("Location name is required")
	}

	params := url.Values{}
	params.Set(ParamCurrentName, current.Name)
	params.Set(ParamCurrentLat, formatCoordinate(current.Latitude))
	params.Set(ParamCurrentLon, formatCoordinate(current.Longitude))
	params.Set(ParamCompareName, compare.Name)
	params.Set(ParamCompareLat, formatCoordinate(compare.Latitude))
	params.Set(ParamCompareLon, formatCoordinate(compare.Longitude))

	return strings.TrimRight(basePath, "/") + "/compare?" + params.Encode(), nil
}

// ParseCompareQuery reads both locations back from compare link parameters.
// get is typically url.Values.Get or a router's query accessor.
func ParseCompareQuery(get func(key string) string) (current, compare weather.NamedCoordinates, err error) {
	current, err = parseNamed(get(ParamCurrentName), get(ParamCurrentLat), get(ParamCurrentLon))
	if err != nil {
		return weather.NamedCoordinates{}, weather.NamedCoordinates{}, err
	}
	compare, err = parseNamed(get(ParamCompareName), get(ParamCompareLat), get(ParamCompareLon))
	if err != nil {
		return weather.NamedCoordinates{}, weather.NamedCoordinates{}, err
	}
	return current, compare, nil
}

func parseNamed(name, lat, lon string) (weather.NamedCoordinates, error) {
	if strings.TrimSpace(name) == "" || lat == "" || lon == "" {
		return weather.NamedCoordinates{}, weather.Validation("Missing comparison location parameters")
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil || !finite(la) {
		return weather.NamedCoordinates{}, weather.Validation("Invalid latitude " + strconv.Quote(lat))
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil || !finite(lo) {
		return weather.NamedCoordinates{}, weather.Validation("Invalid longitude " + strconv.Quote(lon))
	}
	return weather.NamedCoordinates{Name: name, Latitude: la, Longitude: lo}, nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
