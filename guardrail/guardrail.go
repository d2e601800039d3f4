// Package guardrail provides inspection hooks that run before model calls and
// before tool executions. A guardrail examines the pending request (or tool
// call) together with session state and either lets it proceed or blocks it
// with a replacement result, optionally staging state mutations for audit.
package guardrail

import (
	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/model"
)

// Decision is the outcome of a guardrail check.
//
// When Blocked is false the remaining fields are ignored and processing
// continues normally. When Blocked is true:
//   - Reply (model guardrails) supplies the canned assistant text returned
//     instead of calling the model.
//   - Result (tool guardrails) supplies the function response payload returned
//     instead of executing the tool.
//   - StateDelta entries are staged onto the run so the interception leaves an
//     inspectable trace in session state.
type Decision struct {
	Blocked    bool
	Reply      string
	Result     any
	StateDelta map[string]any
}

// Allow is the zero decision: proceed without modification.
func Allow() Decision { return Decision{} }

// BlockModel constructs a blocking decision for a model guardrail.
func BlockModel(reply string, stateDelta map[string]any) Decision {
	return Decision{Blocked: true, Reply: reply, StateDelta: stateDelta}
}

// BlockTool constructs a blocking decision for a tool guardrail.
func BlockTool(result any, stateDelta map[string]any) Decision {
	return Decision{Blocked: true, Result: result, StateDelta: stateDelta}
}

// ModelGuardrail inspects an outgoing model request before the provider is
// invoked. Implementations must not mutate the request.
type ModelGuardrail interface {
	// Name identifies the guardrail in logs and state keys.
	Name() string

	// CheckRequest examines the pending request in the context of the current
	// run. Returning a blocked Decision suppresses the model call entirely.
	CheckRequest(runCtx *core.RunContext, req *model.Request) Decision
}

// ToolGuardrail inspects a tool invocation before the tool runs.
type ToolGuardrail interface {
	// Name identifies the guardrail in logs and state keys.
	Name() string

	// CheckCall examines the pending tool call with its parsed arguments.
	// Returning a blocked Decision suppresses execution; the Decision.Result
	// is surfaced to the model as the function response instead.
	CheckCall(toolCtx *core.ToolContext, toolName string, args map[string]any) Decision
}

// CheckModelGuardrails runs each guardrail in order and returns the first
// blocking decision, or an allow decision when every guardrail passes.
func CheckModelGuardrails(guardrails []ModelGuardrail, runCtx *core.RunContext, req *model.Request) (Decision, string) {
	for _, g := range guardrails {
		if d := g.CheckRequest(runCtx, req); d.Blocked {
			return d, g.Name()
		}
	}

	return Allow(), ""
}

// CheckToolGuardrails runs each guardrail in order and returns the first
// blocking decision, or an allow decision when every guardrail passes.
func CheckToolGuardrails(guardrails []ToolGuardrail, toolCtx *core.ToolContext, toolName string, args map[string]any) (Decision, string) {
	for _, g := range guardrails {
		if d := g.CheckCall(toolCtx, toolName, args); d.Blocked {
			return d, g.Name()
		}
	}

	return Allow(), ""
}
