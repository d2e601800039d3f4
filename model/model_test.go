package model

import (
	"context"
	"testing"

	"github.com/meshkit-ai/weatherteam/core"
)

func userRequest(text string, stream bool) Request {
	return Request{
		Contents: []core.Content{{
			Role:  "user",
			Parts: []core.Part{core.TextPart{Text: text}},
		}},
		Stream: stream,
	}
}

func collect(t *testing.T, respCh <-chan Response, errCh <-chan error) []Response {
	t.Helper()
	var responses []Response
	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			responses = append(responses, resp)
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			t.Fatalf("unexpected error: %v", err)
		}
	}
	return responses
}

func TestMockModelCannedResponse(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.AddResponse("hello", "Hi there!")

	respCh, errCh := m.Generate(context.Background(), userRequest("hello", false))
	responses := collect(t, respCh, errCh)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if got := responses[0].Content.Parts[0].(core.TextPart).Text; got != "Hi there!" {
		t.Errorf("expected canned response, got %q", got)
	}
	if responses[0].Partial {
		t.Error("final response should not be partial")
	}
	if m.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", m.Calls())
	}
}

func TestMockModelDefaultResponse(t *testing.T) {
	m := NewMockModel("mock", "test")

	respCh, errCh := m.Generate(context.Background(), userRequest("anything", false))
	responses := collect(t, respCh, errCh)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if got := responses[0].Content.Parts[0].(core.TextPart).Text; got != "Mock response to: anything" {
		t.Errorf("unexpected default response: %q", got)
	}
}

func TestMockModelStreaming(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.AddResponse("hi", "ok")

	respCh, errCh := m.Generate(context.Background(), userRequest("hi", true))
	responses := collect(t, respCh, errCh)
	if len(responses) != 3 {
		t.Fatalf("expected 2 chunks plus final, got %d", len(responses))
	}
	if !responses[0].Partial || !responses[1].Partial {
		t.Error("chunks should be partial")
	}
	if responses[2].Partial {
		t.Error("last response should be final")
	}
	if got := responses[2].Content.Parts[0].(core.TextPart).Text; got != "ok" {
		t.Errorf("final response should carry full text, got %q", got)
	}
}

func TestMockModelEmptyRequest(t *testing.T) {
	m := NewMockModel("mock", "test")

	respCh, errCh := m.Generate(context.Background(), Request{})
	for range respCh {
		t.Error("no responses expected for empty request")
	}
	if err := <-errCh; err == nil {
		t.Error("expected error for request without contents")
	}
}

func TestMockModelInfo(t *testing.T) {
	m := NewMockModel("mock", "test")
	info := m.Info()
	if info.Name != "mock" || info.Provider != "test" || !info.SupportsTools {
		t.Errorf("unexpected info: %+v", info)
	}
}
