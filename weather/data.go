package weather

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// cityConditions holds the mock weather database. Temperatures are stored in
// Celsius and converted on read when the session preference asks for
// Fahrenheit.
type cityConditions struct {
	TempC     int
	Condition string
}

var mockWeatherDB = map[string]cityConditions{
	"newyork": {TempC: 25, Condition: "sunny"},
	"london":  {TempC: 15, Condition: "cloudy"},
	"tokyo":   {TempC: 18, Condition: "light rain"},
}

// normalizeCity lowercases the city name and strips spaces so "New York",
// "new york" and "NewYork" all resolve to the same entry.
func normalizeCity(city string) string {
	return strings.ReplaceAll(strings.ToLower(city), " ", "")
}

// lookupWeather resolves a city against the mock database and renders the
// report in the preferred unit ("Fahrenheit" or anything else for Celsius).
func lookupWeather(city, preferredUnit string) (string, bool) {
	data, ok := mockWeatherDB[normalizeCity(city)]
	if !ok {
		return "", false
	}

	tempValue := data.TempC
	tempUnit := "°C"
	if preferredUnit == "Fahrenheit" {
		tempValue = data.TempC*9/5 + 32
		tempUnit = "°F"
	}

	report := fmt.Sprintf(
		"The weather in %s is %s with a temperature of %d%s.",
		capitalize(city), data.Condition, tempValue, tempUnit,
	)

	return report, true
}

// capitalize uppercases the first rune and lowercases the rest, so reports
// render "New york" for input "NEW YORK" just like the original demo.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
