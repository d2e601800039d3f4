package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupWeather_Celsius(t *testing.T) {
	tests := []struct {
		city string
		want string
	}{
		{"New York", "The weather in New york is sunny with a temperature of 25°C."},
		{"London", "The weather in London is cloudy with a temperature of 15°C."},
		{"Tokyo", "The weather in Tokyo is light rain with a temperature of 18°C."},
	}

	for _, tc := range tests {
		report, found := lookupWeather(tc.city, "Celsius")
		require.True(t, found, "city %s should be known", tc.city)
		assert.Equal(t, tc.want, report)
	}
}

func TestLookupWeather_Fahrenheit(t *testing.T) {
	tests := []struct {
		city string
		want string
	}{
		{"New York", "The weather in New york is sunny with a temperature of 77°F."},
		{"London", "The weather in London is cloudy with a temperature of 59°F."},
		{"Tokyo", "The weather in Tokyo is light rain with a temperature of 64°F."},
	}

	for _, tc := range tests {
		report, found := lookupWeather(tc.city, "Fahrenheit")
		require.True(t, found)
		assert.Equal(t, tc.want, report)
	}
}

func TestLookupWeather_UnknownCity(t *testing.T) {
	_, found := lookupWeather("Atlantis", "Celsius")
	assert.False(t, found)
}

func TestLookupWeather_UnknownUnitFallsBackToCelsius(t *testing.T) {
	report, found := lookupWeather("London", "Kelvin")
	require.True(t, found)
	assert.Contains(t, report, "15°C")
}

func TestCapitalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"london", "London"},
		{"NEW YORK", "New york"},
		{"tOkYo", "Tokyo"},
		{"żagań", "Żagań"},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, capitalize(tc.in), "capitalize(%q)", tc.in)
	}
}

func TestNormalizeCity(t *testing.T) {
	assert.Equal(t, "newyork", normalizeCity("New York"))
	assert.Equal(t, "newyork", normalizeCity("new york"))
	assert.Equal(t, "newyork", normalizeCity("NewYork"))
	assert.Equal(t, "london", normalizeCity(" London "))
	assert.Equal(t, "", normalizeCity(""))
}
