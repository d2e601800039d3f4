// Package gemini provides a model wrapper for the Google Gemini API using the
// official google.golang.org/genai SDK. It adapts the normalized
// Request/Response structures into Gemini contents and back, including
// function/tool calling.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/model"
)

// Options configures the Gemini model adapter.
type Options struct {
	Model           string
	Temperature     float64
	MaxOutputTokens int32
	APIKey          string
}

// Model wraps the Gemini GenerateContent API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a new Gemini model using the official client. The API key
// falls back to the GEMINI_API_KEY / GOOGLE_API_KEY environment variables
// when not set explicitly.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions(optFns...)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a new Gemini model from an existing client
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	return &Model{client: client, opts: defaultOptions(optFns...)}
}

func defaultOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		Model:           "gemini-2.0-flash",
		Temperature:     0.7,
		MaxOutputTokens: 4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}

// Generate implements unified streaming / non-streaming generation against
// the Gemini API.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		contents := m.buildContents(req.Contents)
		config := m.buildConfig(req)

		if req.Stream {
			m.handleStreaming(ctx, contents, config, out, errCh)
			return
		}

		m.handleNonStreaming(ctx, contents, config, out, errCh)
	}()

	return out, errCh
}

// buildContents converts normalized contents to Gemini contents. System
// instructions are carried in the config, tool responses become user-role
// function response parts as the API expects.
func (m *Model) buildContents(contents []core.Content) []*genai.Content {
	var out []*genai.Content

	for _, c := range contents {
		switch c.Role {
		case "system":
			continue // carried via SystemInstruction
		case "assistant":
			var parts []*genai.Part
			for _, p := range c.Parts {
				switch part := p.(type) {
				case core.TextPart:
					if part.Text != "" {
						parts = append(parts, &genai.Part{Text: part.Text})
					}
				case core.FunctionCallPart:
					parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
						ID:   part.FunctionCall.ID,
						Name: part.FunctionCall.Name,
						Args: parseArgs(part.FunctionCall.Arguments),
					}})
				}
			}
			if len(parts) > 0 {
				out = append(out, &genai.Content{Role: "model", Parts: parts})
			}
		case "tool":
			var parts []*genai.Part
			for _, p := range c.Parts {
				fr, ok := p.(core.FunctionResponsePart)
				if !ok {
					continue
				}
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       fr.FunctionResponse.ID,
					Name:     fr.FunctionResponse.Name,
					Response: wrapResponse(fr.FunctionResponse),
				}})
			}
			if len(parts) > 0 {
				out = append(out, &genai.Content{Role: "user", Parts: parts})
			}
		default:
			// User and unknown roles become user contents
			if text := c.Text(); text != "" {
				out = append(out, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: text}}})
			}
		}
	}

	return out
}

// buildConfig assembles generation config including system instruction and tools.
func (m *Model) buildConfig(req model.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(m.opts.Temperature)),
		MaxOutputTokens: m.opts.MaxOutputTokens,
	}

	if req.Instructions != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.Instructions}}}
	}

	if len(req.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			declarations = append(declarations, &genai.FunctionDeclaration{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  mapToSchema(t.Function.Parameters),
			})
		}

		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	return config
}

// handleStreaming forwards partial text chunks then a final aggregated response.
func (m *Model) handleStreaming(
	ctx context.Context,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
	out chan<- model.Response,
	errCh chan<- error,
) {
	var textAcc string
	var fnParts []core.Part
	finishReason := "stop"

	for chunk, err := range m.client.Models.GenerateContentStream(ctx, m.opts.Model, contents, config) {
		if err != nil {
			errCh <- fmt.Errorf("gemini streaming error: %w", err)
			return
		}

		if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
			continue
		}

		cand := chunk.Candidates[0]
		if cand.FinishReason != "" {
			finishReason = string(cand.FinishReason)
		}

		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				textAcc += p.Text
				out <- model.Response{
					Partial: true,
					Content: core.Content{
						Role:  "assistant",
						Parts: []core.Part{core.TextPart{Text: p.Text}},
					},
				}
			}
			if p.FunctionCall != nil {
				fnParts = append(fnParts, functionCallPart(p.FunctionCall))
			}
		}
	}

	finalParts := make([]core.Part, 0, len(fnParts)+1)
	if textAcc != "" {
		finalParts = append(finalParts, core.TextPart{Text: textAcc})
	}
	finalParts = append(finalParts, fnParts...)

	out <- model.Response{
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: finalParts},
		FinishReason: finishReason,
	}
}

// handleNonStreaming processes a normal (non-streaming) generation.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, config)
	if err != nil {
		errCh <- fmt.Errorf("gemini api error: %w", err)
		return
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		errCh <- fmt.Errorf("no candidates returned")
		return
	}

	cand := resp.Candidates[0]

	var parts []core.Part
	for _, p := range cand.Content.Parts {
		if p.Text != "" {
			parts = append(parts, core.TextPart{Text: p.Text})
		}
		if p.FunctionCall != nil {
			parts = append(parts, functionCallPart(p.FunctionCall))
		}
	}

	finishReason := "stop"
	if cand.FinishReason != "" {
		finishReason = string(cand.FinishReason)
	}

	var usage *model.TokenUsage
	if resp.UsageMetadata != nil {
		usage = &model.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	out <- model.Response{
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: finishReason,
		Usage:        usage,
	}
}

// functionCallPart converts a Gemini function call to a normalized part.
// Gemini does not always assign call ids, so one is generated when missing to
// keep tool execution correlation intact.
func functionCallPart(fc *genai.FunctionCall) core.FunctionCallPart {
	id := fc.ID
	if id == "" {
		id = core.NewID()
	}

	args := "{}"
	if len(fc.Args) > 0 {
		if raw, err := json.Marshal(fc.Args); err == nil {
			args = string(raw)
		}
	}

	return core.FunctionCallPart{FunctionCall: core.FunctionCall{
		ID:        id,
		Name:      fc.Name,
		Arguments: args,
	}}
}

// parseArgs decodes a JSON argument string, tolerating empty or invalid input.
func parseArgs(args string) map[string]any {
	out := map[string]any{}
	if args == "" {
		return out
	}
	_ = json.Unmarshal([]byte(args), &out)
	return out
}

// wrapResponse shapes a function response for the Gemini API, which requires
// a JSON object payload.
func wrapResponse(fr core.FunctionResponse) map[string]any {
	if fr.Error != "" {
		return map[string]any{"error": fr.Error}
	}

	switch v := fr.Response.(type) {
	case map[string]any:
		return v
	case nil:
		return map[string]any{}
	default:
		return map[string]any{"result": v}
	}
}

// mapToSchema converts a minimal JSON-Schema-like map into a genai.Schema.
// Only the subset produced by the tool layer (type, description, properties,
// required, enum, items) is mapped.
func mapToSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}

	out := &genai.Schema{Type: schemaType(schema["type"])}

	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}

	if props, ok := schema["properties"].(map[string]any); ok && len(props) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if propMap, ok := raw.(map[string]any); ok {
				out.Properties[name] = mapToSchema(propMap)
			}
		}
	}

	switch required := schema["required"].(type) {
	case []string:
		out.Required = required
	case []any:
		for _, r := range required {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}

	if enum, ok := schema["enum"].([]string); ok {
		out.Enum = enum
	} else if enumAny, ok := schema["enum"].([]any); ok {
		for _, e := range enumAny {
			if s, ok := e.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}

	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = mapToSchema(items)
	}

	return out
}

// schemaType maps a JSON schema type name to the Gemini schema type.
func schemaType(t any) genai.Type {
	name, _ := t.(string)
	switch name {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object", "":
		return genai.TypeObject
	default:
		return genai.TypeObject
	}
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
