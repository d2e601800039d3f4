package weather

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"

	"github.com/meshkit-ai/weatherteam/agent"
	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/guardrail"
	"github.com/meshkit-ai/weatherteam/model"
	anthropicmodel "github.com/meshkit-ai/weatherteam/model/anthropic"
	geminimodel "github.com/meshkit-ai/weatherteam/model/gemini"
	openaimodel "github.com/meshkit-ai/weatherteam/model/openai"
)

// Agent names used for delegation. The root agent's instruction references
// these, so keep them in sync.
const (
	RootAgentName     = "weather_agent"
	GreetingAgentName = "greeting_agent"
	FarewellAgentName = "farewell_agent"
)

const rootInstruction = "You are the main Weather Agent. Provide weather using the 'get_weather' tool. " +
	"Delegate greetings to 'greeting_agent' and farewells to 'farewell_agent' using the 'transfer_to_agent' tool. " +
	"Handle only weather, greetings, and farewells."

// rootInstructionProvider resolves the root prompt per turn, folding in the
// session's temperature unit preference when one is set.
type rootInstructionProvider struct{}

func (rootInstructionProvider) Instruction(runCtx *core.RunContext) (string, error) {
	instruction := rootInstruction

	if runCtx != nil {
		if v, ok := runCtx.GetState(StateKeyTemperatureUnit); ok {
			if unit, ok := v.(string); ok && unit != "" {
				instruction += fmt.Sprintf(" Report temperatures in %s.", unit)
			}
		}
	}

	return instruction, nil
}

const greetingInstruction = "You are the Greeting Agent. Your ONLY task is to provide a friendly greeting to the user. " +
	"Use the 'say_hello' tool to generate the greeting. " +
	"If the user provides their name, make sure to pass it to the tool. " +
	"Do not engage in any other conversation or tasks."

const farewellInstruction = "You are the Farewell Agent. Your ONLY task is to provide a polite goodbye message. " +
	"Use the 'say_goodbye' tool when the user indicates they are leaving or ending the conversation " +
	"(e.g., using words like 'bye', 'goodbye', 'thanks bye', 'see you'). " +
	"Do not perform any other actions."

// TeamOptions configures team construction. The model fields allow injecting
// alternative (or mock) backends; when nil the default hosted models are
// created from environment credentials.
type TeamOptions struct {
	RootModel      model.Model
	GreetingModel  model.Model
	FarewellModel  model.Model
	BlockedKeyword string
	BlockedCities  []string
}

// NewTeam assembles the weather agent team: a root agent answering weather
// queries with get_weather, a greeting sub-agent (say_hello) and a farewell
// sub-agent (say_goodbye). The root carries a keyword guardrail screening
// user input before the model call and a city guardrail screening
// get_weather invocations. Its final response is saved to session state
// under "last_weather_report".
func NewTeam(ctx context.Context, optFns ...func(o *TeamOptions)) (*agent.ModelAgent, error) {
	opts := TeamOptions{
		BlockedKeyword: guardrail.DefaultBlockedKeyword,
		BlockedCities:  []string{"Paris"},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.RootModel == nil {
		m, err := geminimodel.NewModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("create root model: %w", err)
		}
		opts.RootModel = m
	}

	if opts.GreetingModel == nil {
		opts.GreetingModel = openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = openai.ChatModelGPT4_1
		})
	}

	if opts.FarewellModel == nil {
		opts.FarewellModel = anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.ModelClaudeSonnet4_20250514
		})
	}

	greetingAgent := agent.NewModelAgent(GreetingAgentName, opts.GreetingModel, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(greetingInstruction)
		o.AllowTransfer = false
	})
	greetingAgent.SetDescription("Handles simple greetings and hellos using the 'say_hello' tool.")
	greetingAgent.RegisterTool(NewHelloTool())

	farewellAgent := agent.NewModelAgent(FarewellAgentName, opts.FarewellModel, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(farewellInstruction)
		o.AllowTransfer = false
		// The Anthropic adapter does not stream.
		o.EnableStreaming = false
	})
	farewellAgent.SetDescription("Handles simple farewells and goodbyes using the 'say_goodbye' tool.")
	farewellAgent.RegisterTool(NewGoodbyeTool())

	rootAgent := agent.NewModelAgent(RootAgentName, opts.RootModel, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromProvider(rootInstructionProvider{})
		o.OutputKey = StateKeyLastWeatherReport
		o.ModelGuardrails = []guardrail.ModelGuardrail{
			guardrail.NewKeywordGuardrail(opts.BlockedKeyword),
		}
		o.ToolGuardrails = []guardrail.ToolGuardrail{
			guardrail.NewBlockedCityGuardrail("get_weather", opts.BlockedCities),
		}
	})
	rootAgent.SetDescription("Main agent: handles weather queries, delegates greetings and farewells, screens input and tool calls.")
	rootAgent.RegisterTools(NewWeatherTool(), NewCurrentTimeTool())

	if err := rootAgent.SetSubAgents(greetingAgent, farewellAgent); err != nil {
		return nil, fmt.Errorf("wire sub-agents: %w", err)
	}

	return rootAgent, nil
}
