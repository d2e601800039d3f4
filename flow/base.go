package flow

import (
	"fmt"

	"maps"

	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/guardrail"
	"github.com/meshkit-ai/weatherteam/model"
	"github.com/meshkit-ai/weatherteam/tool"
)

// BaseFlow is a minimal single-agent flow implementation that supports a
// request -> guardrails -> LLM -> (optional tool loop) cycle with pluggable
// pre/post processors. Tool batches run through a FunctionExecutor; transfer
// directives surfaced by tools hand control to the target sub-agent.
type BaseFlow struct {
	agent             FlowAgent
	requestProcessors []RequestProcessor
	executor          FunctionExecutor
	systemTools       map[string]tool.Tool
}

// NewBaseFlow creates a new basic single-agent flow.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:             agent,
		requestProcessors: []RequestProcessor{},
		executor:          NewParallelFunctionExecutor(FunctionExecutorConfig{PreserveOrder: true}),
		systemTools:       map[string]tool.Tool{},
	}
}

// AddSystemTool registers an orchestration tool (e.g. transfer_to_agent) that
// is executable without being part of the agent's advertised tool set. Its
// definition is expected to be injected by a request processor.
func (f *BaseFlow) AddSystemTool(t tool.Tool) {
	f.systemTools[t.Name()] = t
}

// toolRegistry merges the agent's tools with flow-level system tools.
func (f *BaseFlow) toolRegistry() map[string]tool.Tool {
	registry := map[string]tool.Tool{}
	maps.Copy(registry, f.agent.GetTools())
	maps.Copy(registry, f.systemTools)
	return registry
}

// AddRequestProcessor appends a request processor; order of registration defines execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// Execute launches the flow asynchronously and returns a channel of Events.
// The channel is closed when a final response is emitted, control is handed
// to another agent, or an unrecoverable error occurs. Callers should range
// over the returned channel.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (<-chan core.Event, error) {
	eventChan := make(chan core.Event, 100)

	go func() {
		defer close(eventChan)

		for {
			last := f.runOnce(runCtx, eventChan)
			if last == nil {
				break
			}

			// A transfer directive ends this agent's turn; the target agent
			// continues with the shared run context.
			if target := last.Actions.TransferToAgent; target != nil {
				if err := f.agent.TransferToAgent(runCtx, *target); err != nil {
					f.emitError(eventChan, fmt.Errorf("transfer to %s failed: %w", *target, err))
				}
				break
			}

			// If we just emitted a function response, we want another LLM turn
			if len(last.GetFunctionResponses()) > 0 {
				continue
			}
			if last.IsPartial() {
				runCtx.LogWarn("flow.unexpected_partial_tail", "agent", f.agent.GetName())
				break
			}
			if last.IsFinalResponse() {
				break
			}
		}
	}()

	return eventChan, nil
}

// emitError converts an internal error to a system Event.
func (f *BaseFlow) emitError(eventChan chan<- core.Event, err error) {
	ev := core.NewEvent("", "system")
	msg := err.Error()
	ev.ErrorMessage = &msg
	eventChan <- ev
}

// emit sends an event and, for non-partial events, waits for the runner to
// acknowledge persistence before continuing.
func (f *BaseFlow) emit(runCtx *core.RunContext, eventChan chan<- core.Event, ev core.Event) error {
	select {
	case <-runCtx.Context.Done():
		return runCtx.Context.Err()
	case eventChan <- ev:
	}

	if !ev.IsPartial() {
		return runCtx.WaitForResume()
	}

	return nil
}

// runOnce performs one model turn (including any tool executions) and returns
// the last emitted Event (final or intermediate). A nil return signals termination.
func (f *BaseFlow) runOnce(runCtx *core.RunContext, eventChan chan<- core.Event) *core.Event {
	// Refresh session snapshot so request processors see latest conversation (including tool responses)
	if runCtx.SessionStore != nil {
		if err := runCtx.RefreshSession(); err != nil {
			runCtx.LogWarn("flow.session.refresh_failed", "agent", f.agent.GetName(), "error", err.Error())
		}
	}

	// Create a new model request
	req := new(model.Request)
	req.Stream = f.agent.IsStreamingEnabled()

	// Run request processors
	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			f.emitError(eventChan, fmt.Errorf("request processor %s failed: %w", processor.Name(), err))
			return nil
		}
	}

	// Build tool definitions
	if f.agent.IsFunctionCallingEnabled() {
		tools := f.agent.GetTools()
		for _, t := range tools {
			req.Tools = append(req.Tools, model.ToolDefinition{
				Type: "function",
				Function: model.FunctionDefinition{
					Name:        t.Name(),
					Description: t.Description(),
					Parameters:  t.Parameters(),
				},
			})
		}
	}

	// Consult model guardrails; a block replaces the model call entirely.
	if gs := f.agent.ModelGuardrails(); len(gs) > 0 {
		if decision, name := guardrail.CheckModelGuardrails(gs, runCtx, req); decision.Blocked {
			ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
			ev.Content = &core.Content{
				Role:  "assistant",
				Parts: []core.Part{core.TextPart{Text: decision.Reply}},
			}
			partial := false
			complete := true
			ev.Partial = &partial
			ev.TurnComplete = &complete

			delta := decision.StateDelta
			// The canned reply is still this turn's final response, so the
			// output key captures it like any other.
			if key := f.agent.GetOutputKey(); key != "" && decision.Reply != "" {
				if delta == nil {
					delta = map[string]any{}
				}
				delta[key] = decision.Reply
			}
			ev.Actions.StateDelta = delta

			runCtx.LogInfo("flow.model.blocked", "agent", f.agent.GetName(), "guardrail", name)

			if err := f.emit(runCtx, eventChan, ev); err != nil {
				return nil
			}

			return &ev
		}
	}

	if err := runCtx.Limiter.Increment(); err != nil {
		f.emitError(eventChan, err)
		return nil
	}

	// Execute LLM request
	llm := f.agent.GetLLM()

	respCh, errCh := llm.Generate(runCtx.Context, *req)

	var lastEvent *core.Event

loop:
	for {
		select {
		case resp, ok := <-respCh:
			if !ok {
				break loop
			}

			// Emit processed event
			ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
			ev.Content = &resp.Content
			ev.Partial = &resp.Partial

			// Mark turn complete if this is a final assistant response with no pending tool calls
			if !resp.Partial && len(ev.GetFunctionCalls()) == 0 {
				complete := true
				ev.TurnComplete = &complete

				// Capture final text under the configured output key.
				if key := f.agent.GetOutputKey(); key != "" {
					if text := ev.Text(); text != "" {
						if ev.Actions.StateDelta == nil {
							ev.Actions.StateDelta = map[string]any{}
						}
						ev.Actions.StateDelta[key] = text
					}
				}
			}

			lastEvent = &ev

			if err := f.emit(runCtx, eventChan, ev); err != nil {
				return lastEvent
			}

			// Handle function calls
			if fnCalls := ev.GetFunctionCalls(); len(fnCalls) > 0 && !ev.IsPartial() {
				f.executor.Execute(runCtx, f.agent, f.toolRegistry(), fnCalls, func(respEv core.Event) error {
					lastEvent = &respEv
					return f.emit(runCtx, eventChan, respEv)
				})
			}
		case err, ok := <-errCh:
			if !ok {
				// Provider closed the error channel; keep draining responses.
				errCh = nil
				continue
			}

			f.emitError(eventChan, fmt.Errorf("model generation failed: %w", err))

			return nil
		}
	}

	return lastEvent
}
