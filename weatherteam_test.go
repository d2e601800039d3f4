package weatherteam

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshkit-ai/weatherteam/agent"
	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/model"
	"github.com/meshkit-ai/weatherteam/session"
	"github.com/meshkit-ai/weatherteam/weather"
)

func newMockTeam(t *testing.T, optFns ...func(o *Options)) (*Team, *model.MockModel) {
	t.Helper()

	llm := model.NewMockModel("root-model", "test")
	root, err := weather.NewTeam(context.Background(), func(o *weather.TeamOptions) {
		o.RootModel = llm
		o.GreetingModel = model.NewMockModel("greeting-model", "test")
		o.FarewellModel = model.NewMockModel("farewell-model", "test")
	})
	require.NoError(t, err)

	return New(root, optFns...), llm
}

func TestInvokeSync_ReturnsFinalResponse(t *testing.T) {
	team, llm := newMockTeam(t, func(o *Options) {
		o.EnableStreaming = false
	})
	llm.AddResponse("What is the weather in London?", "The weather in London is cloudy with a temperature of 15°C.")

	runID, events, err := team.InvokeSync(
		context.Background(),
		"session-1",
		core.NewUserText("What is the weather in London?"),
	)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	require.NotEmpty(t, events)

	final := events[len(events)-1]
	assert.True(t, final.IsFinalResponse())
	assert.Contains(t, final.Text(), "cloudy")
}

func TestInvokeSync_PersistsOutputKey(t *testing.T) {
	team, llm := newMockTeam(t, func(o *Options) {
		o.EnableStreaming = false
	})
	llm.AddResponse("weather?", "It is sunny.")

	_, _, err := team.InvokeSync(context.Background(), "session-1", core.NewUserText("weather?"))
	require.NoError(t, err)

	sess, err := team.SessionStore().Get("session-1")
	require.NoError(t, err)
	assert.Equal(t, "It is sunny.", sess.State[weather.StateKeyLastWeatherReport])
}

func TestInvokeSync_KeywordGuardrailBlocks(t *testing.T) {
	team, llm := newMockTeam(t, func(o *Options) {
		o.EnableStreaming = false
	})

	_, events, err := team.InvokeSync(context.Background(), "session-1", core.NewUserText("BLOCK this request"))
	require.NoError(t, err)
	require.NotEmpty(t, events)

	final := events[len(events)-1]
	assert.Contains(t, final.Text(), "BLOCK")
	assert.Equal(t, 0, llm.Calls())

	sess, err := team.SessionStore().Get("session-1")
	require.NoError(t, err)
	assert.Equal(t, true, sess.State["keyword_guardrail_triggered"])

	// The canned reply becomes the latest saved report.
	assert.Equal(t, final.Text(), sess.State[weather.StateKeyLastWeatherReport])
}

func TestInvokeSync_MultiTurnConversationHistory(t *testing.T) {
	store := session.NewInMemoryStore()
	team, llm := newMockTeam(t, func(o *Options) {
		o.EnableStreaming = false
		o.SessionStore = store
	})
	llm.AddResponse("first", "first reply")
	llm.AddResponse("second", "second reply")

	_, _, err := team.InvokeSync(context.Background(), "session-1", core.NewUserText("first"))
	require.NoError(t, err)
	_, _, err = team.InvokeSync(context.Background(), "session-1", core.NewUserText("second"))
	require.NoError(t, err)

	sess, err := store.Get("session-1")
	require.NoError(t, err)

	history := sess.GetConversationHistory()
	require.Len(t, history, 4)
	assert.Equal(t, "first", history[0].Text())
	assert.Equal(t, "first reply", history[1].Text())
	assert.Equal(t, "second", history[2].Text())
	assert.Equal(t, "second reply", history[3].Text())
}

func TestNew_DefaultsAndOverrides(t *testing.T) {
	root := agent.NewModelAgent("solo", model.NewMockModel("m", "test"))

	team := New(root)
	assert.NotNil(t, team.SessionStore())

	store := session.NewInMemoryStore()
	team = New(root, func(o *Options) {
		o.SessionStore = store
	})
	assert.Same(t, store, team.SessionStore().(*session.InMemoryStore))
}

func TestCancel_UnknownRun(t *testing.T) {
	team, _ := newMockTeam(t)
	assert.ErrorContains(t, team.Cancel("missing-run"), "not found")
}
