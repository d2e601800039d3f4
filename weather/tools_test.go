package weather

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/session"
)

func newWeatherToolContext(t *testing.T, stateSeed map[string]any) *core.ToolContext {
	t.Helper()
	store := session.NewInMemoryStore()
	_, err := store.Create("test-session")
	require.NoError(t, err)
	if len(stateSeed) > 0 {
		require.NoError(t, store.ApplyDelta("test-session", stateSeed))
	}

	sess, err := store.Get("test-session")
	require.NoError(t, err)

	runCtx := core.NewRunContext(
		context.Background(),
		"test-session",
		"test-run",
		core.AgentInfo{Name: "weather_agent", Type: "model"},
		core.NewUserText("What is the weather?"),
		10,
		make(chan core.Event, 8),
		nil,
		sess,
		store,
		nil,
	)
	return core.NewToolContext(runCtx, "fc1")
}

func TestWeatherTool_DefaultsToCelsius(t *testing.T) {
	toolCtx := newWeatherToolContext(t, nil)

	result, err := NewWeatherTool().Call(toolCtx, map[string]any{"city": "London"})
	require.NoError(t, err)

	payload, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "success", payload["status"])
	assert.Contains(t, payload["report"], "15°C")
}

func TestWeatherTool_ReadsUnitPreferenceFromState(t *testing.T) {
	toolCtx := newWeatherToolContext(t, map[string]any{
		StateKeyTemperatureUnit: "Fahrenheit",
	})

	result, err := NewWeatherTool().Call(toolCtx, map[string]any{"city": "New York"})
	require.NoError(t, err)

	payload, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "success", payload["status"])
	assert.Contains(t, payload["report"], "77°F")
}

func TestWeatherTool_RecordsLastCityChecked(t *testing.T) {
	toolCtx := newWeatherToolContext(t, nil)

	_, err := NewWeatherTool().Call(toolCtx, map[string]any{"city": "Tokyo"})
	require.NoError(t, err)

	city, ok := toolCtx.GetState(StateKeyLastCityChecked)
	require.True(t, ok)
	assert.Equal(t, "Tokyo", city)

	// The write also lands on the event actions for persistence.
	assert.Equal(t, "Tokyo", toolCtx.Actions().StateDelta[StateKeyLastCityChecked])
}

func TestWeatherTool_UnknownCity(t *testing.T) {
	toolCtx := newWeatherToolContext(t, nil)

	result, err := NewWeatherTool().Call(toolCtx, map[string]any{"city": "Atlantis"})
	require.NoError(t, err)

	payload, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "error", payload["status"])
	assert.Contains(t, payload["error_message"], "Atlantis")

	// Failed lookups must not update the last checked city.
	_, found := toolCtx.GetState(StateKeyLastCityChecked)
	assert.False(t, found)
}

func TestCurrentTimeTool_NewYorkOnly(t *testing.T) {
	toolCtx := newWeatherToolContext(t, nil)

	result, err := NewCurrentTimeTool().Call(toolCtx, map[string]any{"city": "New York"})
	require.NoError(t, err)

	payload, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "success", payload["status"])
	assert.Contains(t, payload["report"], "The current time in New York is")
}

func TestCurrentTimeTool_UnsupportedCity(t *testing.T) {
	toolCtx := newWeatherToolContext(t, nil)

	result, err := NewCurrentTimeTool().Call(toolCtx, map[string]any{"city": "London"})
	require.NoError(t, err)

	payload, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "error", payload["status"])
	assert.Contains(t, payload["error_message"], "London")
}

func TestHelloTool(t *testing.T) {
	toolCtx := newWeatherToolContext(t, nil)
	hello := NewHelloTool()

	result, err := hello.Call(toolCtx, map[string]any{"name": "Alex"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Alex!", result)

	result, err = hello.Call(toolCtx, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", result)
}

func TestGoodbyeTool(t *testing.T) {
	toolCtx := newWeatherToolContext(t, nil)

	result, err := NewGoodbyeTool().Call(toolCtx, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Goodbye! Have a great day.", result)
}
