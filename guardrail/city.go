package guardrail

import (
	"fmt"
	"strings"

	"github.com/meshkit-ai/weatherteam/core"
)

// BlockedCityGuardrail prevents a specific tool from being executed for a
// configured set of cities. The comparison is case-insensitive on the "city"
// argument. Other tools pass through untouched.
//
// When triggered it records "<name>_triggered" = true in session state and
// substitutes an error-status payload for the tool's result, so the model can
// relay the refusal conversationally.
type BlockedCityGuardrail struct {
	name     string
	toolName string
	blocked  map[string]struct{}
}

// BlockedCityGuardrailOptions configures optional behavior of the city guardrail.
type BlockedCityGuardrailOptions struct {
	// Name overrides the default guardrail name ("tool_guardrail").
	Name string
}

// NewBlockedCityGuardrail constructs a guardrail that blocks toolName for the
// given cities.
func NewBlockedCityGuardrail(toolName string, cities []string, optFns ...func(o *BlockedCityGuardrailOptions)) *BlockedCityGuardrail {
	opts := BlockedCityGuardrailOptions{
		Name: "tool_guardrail",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	blocked := make(map[string]struct{}, len(cities))
	for _, c := range cities {
		blocked[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}

	return &BlockedCityGuardrail{
		name:     opts.Name,
		toolName: toolName,
		blocked:  blocked,
	}
}

// Name implements ToolGuardrail.
func (g *BlockedCityGuardrail) Name() string { return g.name }

// CheckCall implements ToolGuardrail.
func (g *BlockedCityGuardrail) CheckCall(toolCtx *core.ToolContext, toolName string, args map[string]any) Decision {
	if toolName != g.toolName {
		return Allow()
	}

	city, _ := args["city"].(string)
	if city == "" {
		return Allow()
	}

	if _, found := g.blocked[strings.ToLower(strings.TrimSpace(city))]; !found {
		return Allow()
	}

	toolCtx.LogWarn("guardrail.tool.blocked", "guardrail", g.name, "tool", toolName, "city", city, "agent", toolCtx.AgentName())

	return BlockTool(map[string]any{
		"status":        "error",
		"error_message": fmt.Sprintf("Policy restriction: weather checks for '%s' are currently disabled by a tool guardrail.", city),
	}, map[string]any{
		g.name + "_triggered": true,
	})
}
