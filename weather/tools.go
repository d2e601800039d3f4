package weather

import (
	"fmt"
	"time"

	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/tool"
)

// StateKeyTemperatureUnit is the session state key holding the preferred
// temperature unit ("Celsius" or "Fahrenheit").
const StateKeyTemperatureUnit = "user_preference_temperature_unit"

// StateKeyLastCityChecked is written by the weather tool with the most
// recently requested city.
const StateKeyLastCityChecked = "last_city_checked"

// StateKeyLastWeatherReport receives the root agent's final response text via
// its output key.
const StateKeyLastWeatherReport = "last_weather_report"

// NewWeatherTool returns the get_weather tool. It reads the temperature unit
// preference from session state and records the requested city back into
// state. Results follow the {status, report|error_message} payload shape.
func NewWeatherTool() tool.Tool {
	return tool.NewFunctionTool(
		"get_weather",
		"Retrieves the current weather report for a specified city.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{
					"type":        "string",
					"description": "The name of the city (e.g., \"New York\", \"London\", \"Tokyo\").",
				},
			},
			"required": []string{"city"},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			city, _ := args["city"].(string)

			preferredUnit := "Celsius"
			if v, ok := toolCtx.GetState(StateKeyTemperatureUnit); ok {
				if s, ok := v.(string); ok && s != "" {
					preferredUnit = s
				}
			}

			toolCtx.Logger().Debug("weather.get_weather", "city", city, "unit", preferredUnit)

			report, found := lookupWeather(city, preferredUnit)
			if !found {
				return map[string]any{
					"status":        "error",
					"error_message": fmt.Sprintf("Sorry, I don't have weather information for '%s'.", city),
				}, nil
			}

			toolCtx.SetState(StateKeyLastCityChecked, city)

			return map[string]any{
				"status": "success",
				"report": report,
			}, nil
		},
	)
}

// NewCurrentTimeTool returns the get_current_time tool. Only New York is
// supported; other cities yield an error payload.
func NewCurrentTimeTool() tool.Tool {
	return tool.NewFunctionTool(
		"get_current_time",
		"Returns the current time in a specified city.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{
					"type":        "string",
					"description": "The name of the city for which to retrieve the current time.",
				},
			},
			"required": []string{"city"},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			city, _ := args["city"].(string)

			if normalizeCity(city) != "newyork" {
				return map[string]any{
					"status":        "error",
					"error_message": fmt.Sprintf("Sorry, I don't have timezone information for %s.", city),
				}, nil
			}

			loc, err := time.LoadLocation("America/New_York")
			if err != nil {
				return nil, fmt.Errorf("load timezone: %w", err)
			}

			now := time.Now().In(loc)

			return map[string]any{
				"status": "success",
				"report": fmt.Sprintf("The current time in %s is %s", city, now.Format("2006-01-02 15:04:05 MST-0700")),
			}, nil
		},
	)
}

// NewHelloTool returns the say_hello tool used by the greeting agent. The
// name argument is optional; without it a generic greeting is produced.
func NewHelloTool() tool.Tool {
	return tool.NewFunctionTool(
		"say_hello",
		"Provides a simple greeting. If a name is provided, it will be used.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "The name of the person to greet. Optional.",
				},
			},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			name, _ := args["name"].(string)

			if name != "" {
				return fmt.Sprintf("Hello, %s!", name), nil
			}

			return "Hello there!", nil
		},
	)
}

// NewGoodbyeTool returns the say_goodbye tool used by the farewell agent.
func NewGoodbyeTool() tool.Tool {
	return tool.NewFunctionTool(
		"say_goodbye",
		"Provides a simple farewell message to conclude the conversation.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			return "Goodbye! Have a great day.", nil
		},
	)
}
