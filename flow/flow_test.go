package flow

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/guardrail"
	"github.com/meshkit-ai/weatherteam/model"
	"github.com/meshkit-ai/weatherteam/session"
	"github.com/meshkit-ai/weatherteam/tool"
)

// scriptedModel replays a fixed sequence of response batches, one batch per
// Generate call. It lets tests drive multi-turn tool loops deterministically.
type scriptedModel struct {
	calls int
	turns [][]model.Response
}

func (m *scriptedModel) Generate(_ context.Context, _ model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response, 16)
	errCh := make(chan error, 1)

	turn := m.calls
	m.calls++

	go func() {
		defer close(respCh)
		defer close(errCh)
		if turn >= len(m.turns) {
			errCh <- fmt.Errorf("no scripted turn %d", turn)
			return
		}
		for _, resp := range m.turns[turn] {
			respCh <- resp
		}
	}()

	return respCh, errCh
}

func (m *scriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "test", SupportsTools: true}
}

func assistantText(text string) model.Response {
	return model.Response{
		Partial: false,
		Content: core.Content{
			Role:  "assistant",
			Parts: []core.Part{core.TextPart{Text: text}},
		},
		FinishReason: "stop",
	}
}

func assistantToolCall(id, name, args string) model.Response {
	return model.Response{
		Partial: false,
		Content: core.Content{
			Role: "assistant",
			Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        id,
				Name:      name,
				Arguments: args,
			}}},
		},
		FinishReason: "tool_calls",
	}
}

type mockFlowAgent struct {
	name            string
	llm             model.Model
	tools           map[string]tool.Tool
	subAgents       []FlowAgent
	transfer        bool
	streaming       bool
	outputKey       string
	modelGuardrails []guardrail.ModelGuardrail
	toolGuardrails  []guardrail.ToolGuardrail
	transferredTo   string
}

func (a *mockFlowAgent) GetName() string { return a.name }

func (a *mockFlowAgent) GetLLM() model.Model { return a.llm }
func (a *mockFlowAgent) ResolveInstructions(*core.RunContext) (string, error) {
	return "You are a test agent.", nil
}
func (a *mockFlowAgent) GetTools() map[string]tool.Tool {
	if a.tools == nil {
		return map[string]tool.Tool{}
	}
	return a.tools
}
func (a *mockFlowAgent) GetSubAgents() []FlowAgent { return a.subAgents }

func (a *mockFlowAgent) ModelGuardrails() []guardrail.ModelGuardrail { return a.modelGuardrails }

func (a *mockFlowAgent) ToolGuardrails() []guardrail.ToolGuardrail { return a.toolGuardrails }

func (a *mockFlowAgent) IsFunctionCallingEnabled() bool { return true }

func (a *mockFlowAgent) IsStreamingEnabled() bool { return a.streaming }

func (a *mockFlowAgent) IsTransferEnabled() bool { return a.transfer }

func (a *mockFlowAgent) GetOutputKey() string { return a.outputKey }

func (a *mockFlowAgent) MaxHistoryMessages() int { return 10 }

func (a *mockFlowAgent) ExecuteTool(_ *core.ToolContext, _ string, _ string) (any, error) {
	return nil, fmt.Errorf("not used directly")
}
func (a *mockFlowAgent) TransferToAgent(_ *core.RunContext, agentName string) error {
	a.transferredTo = agentName
	return nil
}

func newFlowRunContext(t *testing.T, userText string) (*core.RunContext, core.SessionStore) {
	t.Helper()
	store := session.NewInMemoryStore()
	_, err := store.Create("test-session")
	require.NoError(t, err)
	require.NoError(t, store.AppendEvent("test-session", core.NewUserMessageEvent("test-run", userText)))

	sess, err := store.Get("test-session")
	require.NoError(t, err)

	runCtx := core.NewRunContext(
		context.Background(),
		"test-session",
		"test-run",
		core.AgentInfo{Name: "TestAgent", Type: "model"},
		core.NewUserText(userText),
		10,
		make(chan core.Event, 32),
		nil,
		sess,
		store,
		nil,
	)
	return runCtx, store
}

func collectEvents(t *testing.T, ch <-chan core.Event) []core.Event {
	t.Helper()
	var events []core.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func newCityTool(recorded *string) tool.Tool {
	return tool.NewFunctionTool(
		"get_weather",
		"Mock weather lookup",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string"},
			},
			"required": []string{"city"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			city, _ := args["city"].(string)
			*recorded = city
			tc.SetState("last_city_checked", city)
			return map[string]any{"status": "success", "report": "sunny in " + city}, nil
		},
	)
}

func TestSingleAgentFlow_FinalResponse(t *testing.T) {
	llm := &scriptedModel{turns: [][]model.Response{{assistantText("hello back")}}}
	agent := &mockFlowAgent{name: "TestAgent", llm: llm}
	runCtx, _ := newFlowRunContext(t, "hi")

	fl := NewSingleAgentFlow(agent)
	eventCh, err := fl.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, eventCh)
	require.Len(t, events, 1)

	final := events[0]
	assert.Equal(t, "hello back", final.Text())
	require.NotNil(t, final.TurnComplete)
	assert.True(t, *final.TurnComplete)
	assert.True(t, final.IsFinalResponse())
}

func TestSingleAgentFlow_OutputKeyCapture(t *testing.T) {
	llm := &scriptedModel{turns: [][]model.Response{{assistantText("The weather in London is cloudy.")}}}
	agent := &mockFlowAgent{name: "TestAgent", llm: llm, outputKey: "last_weather_report"}
	runCtx, _ := newFlowRunContext(t, "weather in London?")

	fl := NewSingleAgentFlow(agent)
	eventCh, err := fl.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, eventCh)
	require.Len(t, events, 1)
	assert.Equal(t, "The weather in London is cloudy.", events[0].Actions.StateDelta["last_weather_report"])
}

func TestSingleAgentFlow_ModelGuardrailBlocks(t *testing.T) {
	llm := &scriptedModel{turns: [][]model.Response{{assistantText("should never be produced")}}}
	agent := &mockFlowAgent{
		name:            "TestAgent",
		llm:             llm,
		modelGuardrails: []guardrail.ModelGuardrail{guardrail.NewKeywordGuardrail("BLOCK")},
	}
	runCtx, _ := newFlowRunContext(t, "please BLOCK this")

	fl := NewSingleAgentFlow(agent)
	eventCh, err := fl.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, eventCh)
	require.Len(t, events, 1)

	blocked := events[0]
	assert.Contains(t, blocked.Text(), "BLOCK")
	assert.Equal(t, true, blocked.Actions.StateDelta["keyword_guardrail_triggered"])
	require.NotNil(t, blocked.TurnComplete)
	assert.True(t, *blocked.TurnComplete)

	// The model must not have been called at all.
	assert.Equal(t, 0, llm.calls)
}

func TestSingleAgentFlow_ModelGuardrailBlockCapturesOutputKey(t *testing.T) {
	llm := &scriptedModel{}
	agent := &mockFlowAgent{
		name:            "TestAgent",
		llm:             llm,
		outputKey:       "last_weather_report",
		modelGuardrails: []guardrail.ModelGuardrail{guardrail.NewKeywordGuardrail("BLOCK")},
	}
	runCtx, _ := newFlowRunContext(t, "BLOCK it")

	fl := NewSingleAgentFlow(agent)
	eventCh, err := fl.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, eventCh)
	require.Len(t, events, 1)

	// The canned reply counts as the turn's final response.
	blocked := events[0]
	assert.Equal(t, blocked.Text(), blocked.Actions.StateDelta["last_weather_report"])
	assert.Equal(t, true, blocked.Actions.StateDelta["keyword_guardrail_triggered"])
}

func TestSingleAgentFlow_ToolLoop(t *testing.T) {
	llm := &scriptedModel{turns: [][]model.Response{
		{assistantToolCall("fc1", "get_weather", `{"city":"London"}`)},
		{assistantText("It is sunny in London.")},
	}}

	var recordedCity string
	agent := &mockFlowAgent{
		name:  "TestAgent",
		llm:   llm,
		tools: map[string]tool.Tool{"get_weather": newCityTool(&recordedCity)},
	}
	runCtx, _ := newFlowRunContext(t, "weather in London?")

	fl := NewSingleAgentFlow(agent)
	eventCh, err := fl.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, eventCh)
	require.Len(t, events, 3)

	assert.Len(t, events[0].GetFunctionCalls(), 1)

	responses := events[1].GetFunctionResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, "fc1", responses[0].ID)
	assert.Equal(t, "London", recordedCity)
	assert.Equal(t, "London", events[1].Actions.StateDelta["last_city_checked"])

	assert.Equal(t, "It is sunny in London.", events[2].Text())
	assert.Equal(t, 2, llm.calls)
}

func TestSingleAgentFlow_ToolGuardrailBlocks(t *testing.T) {
	llm := &scriptedModel{turns: [][]model.Response{
		{assistantToolCall("fc1", "get_weather", `{"city":"Paris"}`)},
		{assistantText("I cannot check Paris right now.")},
	}}

	var recordedCity string
	agent := &mockFlowAgent{
		name:           "TestAgent",
		llm:            llm,
		tools:          map[string]tool.Tool{"get_weather": newCityTool(&recordedCity)},
		toolGuardrails: []guardrail.ToolGuardrail{guardrail.NewBlockedCityGuardrail("get_weather", []string{"Paris"})},
	}
	runCtx, _ := newFlowRunContext(t, "weather in Paris?")

	fl := NewSingleAgentFlow(agent)
	eventCh, err := fl.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, eventCh)
	require.Len(t, events, 3)

	// The tool itself must not run; the guardrail result stands in.
	assert.Empty(t, recordedCity)

	responses := events[1].GetFunctionResponses()
	require.Len(t, responses, 1)
	payload, ok := responses[0].Response.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "error", payload["status"])
	assert.Contains(t, payload["error_message"], "Paris")
	assert.Equal(t, true, events[1].Actions.StateDelta["tool_guardrail_triggered"])
}

func TestMultiAgentFlow_TransferExecution(t *testing.T) {
	llm := &scriptedModel{turns: [][]model.Response{
		{assistantToolCall("fc1", "transfer_to_agent", `{"agent":"greeting_agent"}`)},
	}}

	child := &mockFlowAgent{name: "greeting_agent"}
	agent := &mockFlowAgent{
		name:      "root",
		llm:       llm,
		transfer:  true,
		subAgents: []FlowAgent{child},
	}
	runCtx, _ := newFlowRunContext(t, "hello!")

	fl := NewMultiAgentFlow(agent)
	eventCh, err := fl.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, eventCh)
	require.Len(t, events, 2)

	respEv := events[1]
	require.NotNil(t, respEv.Actions.TransferToAgent)
	assert.Equal(t, "greeting_agent", *respEv.Actions.TransferToAgent)

	// The flow hands control to the target after the transfer event.
	assert.Equal(t, "greeting_agent", agent.transferredTo)
}

func TestSelector(t *testing.T) {
	selector := NewSelector()

	isolated := &mockFlowAgent{name: "solo"}
	if _, ok := selector.SelectFlow(isolated).(*SingleAgentFlow); !ok {
		t.Error("expected SingleAgentFlow for agent without sub-agents")
	}

	transferDisabled := &mockFlowAgent{name: "root", subAgents: []FlowAgent{&mockFlowAgent{name: "c"}}}
	if _, ok := selector.SelectFlow(transferDisabled).(*SingleAgentFlow); !ok {
		t.Error("expected SingleAgentFlow when transfer is disabled")
	}

	multiCapable := &mockFlowAgent{name: "root", transfer: true, subAgents: []FlowAgent{&mockFlowAgent{name: "c"}}}
	if _, ok := selector.SelectFlow(multiCapable).(*MultiAgentFlow); !ok {
		t.Error("expected MultiAgentFlow for transfer-enabled agent with sub-agents")
	}
}
