package weather

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshkit-ai/weatherteam/agent"
	"github.com/meshkit-ai/weatherteam/model"
)

func newTestTeamOptions(o *TeamOptions) {
	o.RootModel = model.NewMockModel("root-model", "test")
	o.GreetingModel = model.NewMockModel("greeting-model", "test")
	o.FarewellModel = model.NewMockModel("farewell-model", "test")
}

func TestNewTeam_Hierarchy(t *testing.T) {
	root, err := NewTeam(context.Background(), newTestTeamOptions)
	require.NoError(t, err)

	assert.Equal(t, RootAgentName, root.Name())

	subAgents := root.SubAgents()
	require.Len(t, subAgents, 2)
	assert.Equal(t, GreetingAgentName, subAgents[0].Name())
	assert.Equal(t, FarewellAgentName, subAgents[1].Name())

	for _, sub := range subAgents {
		modelAgent, ok := sub.(*agent.ModelAgent)
		require.True(t, ok)
		require.NotNil(t, modelAgent.Parent())
		assert.Equal(t, RootAgentName, modelAgent.Parent().Name())
	}
}

func TestNewTeam_RootConfiguration(t *testing.T) {
	root, err := NewTeam(context.Background(), newTestTeamOptions)
	require.NoError(t, err)

	assert.True(t, root.HasTool("get_weather"))
	assert.True(t, root.HasTool("get_current_time"))
	assert.True(t, root.IsTransferEnabled())
	assert.Equal(t, StateKeyLastWeatherReport, root.GetOutputKey())
	assert.Len(t, root.ModelGuardrails(), 1)
	assert.Len(t, root.ToolGuardrails(), 1)

	instructions, err := root.ResolveInstructions(nil)
	require.NoError(t, err)
	assert.Contains(t, instructions, "get_weather")
	assert.Contains(t, instructions, "transfer_to_agent")
}

func TestNewTeam_RootInstructionReflectsUnitPreference(t *testing.T) {
	root, err := NewTeam(context.Background(), newTestTeamOptions)
	require.NoError(t, err)

	toolCtx := newWeatherToolContext(t, map[string]any{
		StateKeyTemperatureUnit: "Fahrenheit",
	})
	runCtx := toolCtx.InternalRunContext()

	instructions, err := root.ResolveInstructions(runCtx)
	require.NoError(t, err)
	assert.Contains(t, instructions, "Report temperatures in Fahrenheit.")

	// Without a stored preference the base prompt stands alone.
	plain, err := root.ResolveInstructions(nil)
	require.NoError(t, err)
	assert.NotContains(t, plain, "Report temperatures in")
}

func TestNewTeam_SubAgentConfiguration(t *testing.T) {
	greetingModel := model.NewMockModel("greeting-model", "test")
	farewellModel := model.NewMockModel("farewell-model", "test")

	root, err := NewTeam(context.Background(), func(o *TeamOptions) {
		o.RootModel = model.NewMockModel("root-model", "test")
		o.GreetingModel = greetingModel
		o.FarewellModel = farewellModel
	})
	require.NoError(t, err)

	flowAgents := root.GetSubAgents()
	require.Len(t, flowAgents, 2)

	greeting := flowAgents[0]
	assert.Equal(t, GreetingAgentName, greeting.GetName())
	assert.False(t, greeting.IsTransferEnabled())
	assert.Same(t, greetingModel, greeting.GetLLM().(*model.MockModel))
	_, hasHello := greeting.GetTools()["say_hello"]
	assert.True(t, hasHello)

	farewell := flowAgents[1]
	assert.Equal(t, FarewellAgentName, farewell.GetName())
	assert.False(t, farewell.IsTransferEnabled())
	assert.False(t, farewell.IsStreamingEnabled())
	assert.Same(t, farewellModel, farewell.GetLLM().(*model.MockModel))
	_, hasGoodbye := farewell.GetTools()["say_goodbye"]
	assert.True(t, hasGoodbye)
}

func TestNewTeam_CustomGuardrailConfiguration(t *testing.T) {
	root, err := NewTeam(context.Background(), func(o *TeamOptions) {
		newTestTeamOptions(o)
		o.BlockedKeyword = "FORBIDDEN"
		o.BlockedCities = []string{"Paris", "Berlin"}
	})
	require.NoError(t, err)

	require.Len(t, root.ModelGuardrails(), 1)
	require.Len(t, root.ToolGuardrails(), 1)
}

func TestNewTeam_Descriptions(t *testing.T) {
	root, err := NewTeam(context.Background(), newTestTeamOptions)
	require.NoError(t, err)

	assert.Contains(t, root.Description(), "weather")

	subAgents := root.SubAgents()
	require.Len(t, subAgents, 2)
	assert.Contains(t, subAgents[0].Description(), "say_hello")
	assert.Contains(t, subAgents[1].Description(), "say_goodbye")
}
