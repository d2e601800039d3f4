package core

import "testing"

func TestEvent_FunctionPartsExtraction(t *testing.T) {
	ev := NewFunctionCallEvent("agent", "get_weather", `{"city":"London"}`)
	calls := ev.GetFunctionCalls()
	if len(calls) != 1 || calls[0].Name != "get_weather" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	if ev.IsFinalResponse() {
		t.Error("event with function calls must not be final")
	}

	respEv := NewFunctionResponseEvent("agent", "fc1", "get_weather", map[string]any{"status": "success"}, nil)
	responses := respEv.GetFunctionResponses()
	if len(responses) != 1 || responses[0].ID != "fc1" {
		t.Fatalf("unexpected responses: %+v", responses)
	}
	if respEv.IsFinalResponse() {
		t.Error("event with function responses must not be final")
	}
}

func TestEvent_IsFinalResponse(t *testing.T) {
	ev := NewMessageEvent("agent", "all done")
	if !ev.IsFinalResponse() {
		t.Error("plain assistant message should be final")
	}

	p := true
	ev.Partial = &p
	if ev.IsFinalResponse() {
		t.Error("partial event must not be final")
	}
}

func TestEvent_Text(t *testing.T) {
	ev := NewEvent("run", "agent")
	if ev.Text() != "" {
		t.Errorf("content-less event should have empty text")
	}

	ev.Content = &Content{Role: "assistant", Parts: []Part{
		TextPart{Text: "hello "},
		FunctionCallPart{FunctionCall: FunctionCall{Name: "ignored"}},
		TextPart{Text: "world"},
	}}
	if ev.Text() != "hello world" {
		t.Errorf("unexpected text: %q", ev.Text())
	}
}

func TestFunctionResponseEvent_CarriesError(t *testing.T) {
	respEv := NewFunctionResponseEvent("agent", "fc2", "get_weather", nil, errTest)
	responses := respEv.GetFunctionResponses()
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].Error != "test failure" {
		t.Errorf("unexpected error message: %q", responses[0].Error)
	}
}

type testErr struct{}

func (testErr) Error() string { return "test failure" }

var errTest = testErr{}
