package guardrail

import (
	"strings"

	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/model"
)

// DefaultBlockedKeyword is the trigger word screened by NewKeywordGuardrail
// when no custom keyword is supplied.
const DefaultBlockedKeyword = "BLOCK"

// KeywordGuardrail blocks a model call when the latest user message contains a
// configured keyword (case-insensitive substring match). Only the most recent
// user turn is screened; earlier history never re-triggers the block.
//
// When triggered it records "<name>_triggered" = true in session state and
// answers with a canned refusal instead of calling the model.
type KeywordGuardrail struct {
	name    string
	keyword string
	reply   string
}

// KeywordGuardrailOptions configures optional behavior of the keyword guardrail.
type KeywordGuardrailOptions struct {
	// Name overrides the default guardrail name ("keyword_guardrail").
	Name string

	// Reply overrides the canned refusal text.
	Reply string
}

// NewKeywordGuardrail constructs a guardrail screening for the given keyword.
// An empty keyword falls back to DefaultBlockedKeyword.
func NewKeywordGuardrail(keyword string, optFns ...func(o *KeywordGuardrailOptions)) *KeywordGuardrail {
	opts := KeywordGuardrailOptions{
		Name: "keyword_guardrail",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if keyword == "" {
		keyword = DefaultBlockedKeyword
	}

	if opts.Reply == "" {
		opts.Reply = "I cannot process this request because it contains the blocked keyword '" + keyword + "'."
	}

	return &KeywordGuardrail{
		name:    opts.Name,
		keyword: keyword,
		reply:   opts.Reply,
	}
}

// Name implements ModelGuardrail.
func (g *KeywordGuardrail) Name() string { return g.name }

// CheckRequest implements ModelGuardrail. It inspects only the latest user
// content in the request.
func (g *KeywordGuardrail) CheckRequest(runCtx *core.RunContext, req *model.Request) Decision {
	text, ok := latestUserText(req.Contents)
	if !ok {
		return Allow()
	}

	if !strings.Contains(strings.ToUpper(text), strings.ToUpper(g.keyword)) {
		return Allow()
	}

	runCtx.LogWarn("guardrail.model.blocked", "guardrail", g.name, "keyword", g.keyword, "agent", runCtx.GetAgentName())

	return BlockModel(g.reply, map[string]any{
		g.name + "_triggered": true,
	})
}

// latestUserText returns the concatenated text parts of the last user-role
// content, walking backwards past assistant and tool turns.
func latestUserText(contents []core.Content) (string, bool) {
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i].Role != "user" {
			continue
		}

		// Function responses are carried on user-role contents by some
		// providers; only genuine text counts as a user message.
		text := contents[i].Text()
		if text == "" {
			continue
		}

		return text, true
	}

	return "", false
}
