package flow

import (
	"fmt"
	"strings"

	"github.com/meshkit-ai/weatherteam/core"
	internalutil "github.com/meshkit-ai/weatherteam/internal/util"
	"github.com/meshkit-ai/weatherteam/model"
)

// InstructionsProcessor handles system prompt and instruction processing.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest adds system instructions to the chat request.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(instructions))

	if runCtx.Session != nil && runCtx.Session.State != nil {
		var tplErr error
		// Apply template substitution to system prompt using session state
		req.Instructions, tplErr = internalutil.RenderTemplate(instructions, runCtx.Session.State)
		if tplErr != nil {
			return fmt.Errorf("failed to render template: %w", tplErr)
		}
	} else {
		req.Instructions = instructions
	}

	return nil
}

// ContentsProcessor assembles the conversation contents for a model request.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest adds system instructions and conversation history to the chat request.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	contents := []core.Content{{
		Role:  "system",
		Parts: []core.Part{core.TextPart{Text: req.Instructions}},
	}}

	// Add conversation history if available
	if runCtx.Session != nil {
		events := truncateHistory(runCtx.Session.GetConversationHistory(), agent.MaxHistoryMessages())

		for _, ev := range events {
			if ev.Content != nil && len(ev.Content.Parts) > 0 {
				contents = append(contents, *ev.Content)
			}
		}
	}

	req.Contents = contents
	return nil
}

// truncateHistory keeps at most max trailing events, moving the cut to a turn
// boundary: providers reject a tool response whose originating assistant call
// fell outside the window.
func truncateHistory(events []core.Event, max int) []core.Event {
	if max <= 0 || len(events) <= max {
		return events
	}

	start := len(events) - max

	// Prefer resuming at the start of a user turn.
	for i := start; i < len(events); i++ {
		if ev := events[i]; ev.Content != nil && ev.Content.Role == "user" {
			return events[i:]
		}
	}

	// No user turn inside the window; drop orphaned tool responses instead.
	for start < len(events) && len(events[start].GetFunctionResponses()) > 0 {
		start++
	}

	return events[start:]
}

// TransferToolInjector exposes a transfer_to_agent tool definition when the
// agent can delegate to sub-agents. The definition is synthesized per request
// so the enum of target names always reflects the current hierarchy.
type TransferToolInjector struct{}

// NewTransferToolInjector creates a new transfer tool injector.
func NewTransferToolInjector() *TransferToolInjector { return &TransferToolInjector{} }

// Name returns the processor's identifier.
func (p *TransferToolInjector) Name() string { return "transfer_tool_injector" }

// ProcessRequest appends the transfer_to_agent tool definition when applicable.
func (p *TransferToolInjector) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	if !agent.IsTransferEnabled() {
		return nil
	}

	subAgents := agent.GetSubAgents()
	if len(subAgents) == 0 {
		return nil
	}

	for _, td := range req.Tools {
		if td.Function.Name == "transfer_to_agent" {
			return nil
		}
	}

	names := make([]string, 0, len(subAgents))
	for _, sa := range subAgents {
		names = append(names, sa.GetName())
	}

	req.Tools = append(req.Tools, model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name: "transfer_to_agent",
			Description: "Transfer the conversation to another agent better suited for the request. " +
				"Available agents: " + strings.Join(names, ", "),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent": map[string]any{
						"type":        "string",
						"enum":        names,
						"description": "Name of the agent to hand the conversation to",
					},
				},
				"required": []string{"agent"},
			},
		},
	})

	return nil
}
