// Command weatherteam runs a scripted conversation against the weather agent
// team: a Gemini-backed root agent with a mock weather tool plus OpenAI and
// Anthropic backed greeting/farewell sub-agents. Guardrails on the root agent
// block a keyword before the model call and the city Paris before the weather
// tool runs.
//
// Required environment (a .env file is loaded if present):
//
//	GEMINI_API_KEY or GOOGLE_API_KEY
//	OPENAI_API_KEY
//	ANTHROPIC_API_KEY
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/meshkit-ai/weatherteam"
	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/logging"
	"github.com/meshkit-ai/weatherteam/weather"
)

const sessionID = "session-weather-team"

func main() {
	// Optional .env file; real environment variables win.
	_ = godotenv.Load()

	if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
		log.Fatal("GEMINI_API_KEY or GOOGLE_API_KEY environment variable is required")
	}
	if os.Getenv("OPENAI_API_KEY") == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		log.Fatal("ANTHROPIC_API_KEY environment variable is required")
	}

	ctx := context.Background()

	rootAgent, err := weather.NewTeam(ctx)
	if err != nil {
		log.Fatalf("build team: %v", err)
	}

	team := weatherteam.New(rootAgent, func(o *weatherteam.Options) {
		o.Logger = logging.NewSlogLogger(logging.LogLevelWarn, "text", false)
	})

	store := team.SessionStore()
	if _, err := store.Create(sessionID); err != nil {
		log.Fatalf("create session: %v", err)
	}
	if err := store.ApplyDelta(sessionID, map[string]any{
		weather.StateKeyTemperatureUnit: "Celsius",
	}); err != nil {
		log.Fatalf("seed session state: %v", err)
	}

	queries := []string{
		"Hello there! My name is Alex.",
		"What is the weather in New York?",
		"BLOCK the request please.",
		"How about Paris?",
		"Tell me the weather in London.",
		"Thanks, bye!",
	}

	for _, query := range queries {
		callAgent(ctx, team, query)
	}

	inspectFinalState(store)
}

func callAgent(ctx context.Context, team *weatherteam.Team, query string) {
	fmt.Printf("\n>>> User Query: %s\n", query)

	ctx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	_, events, err := team.InvokeSync(ctx, sessionID, core.NewUserText(query))
	if err != nil {
		log.Printf("invoke failed: %v", err)
		return
	}

	finalResponse := "Agent did not produce a final response."
	for _, ev := range events {
		if ev.IsFinalResponse() && ev.Text() != "" {
			finalResponse = ev.Text()
		}
	}

	fmt.Printf("<<< Agent Response: %s\n", finalResponse)
}

func inspectFinalState(store core.SessionStore) {
	sess, err := store.Get(sessionID)
	if err != nil {
		log.Printf("could not retrieve final session state: %v", err)
		return
	}

	fmt.Println("\n--- Final Session State ---")
	printStateKey(sess, weather.StateKeyTemperatureUnit, "Temperature Preference")
	printStateKey(sess, weather.StateKeyLastWeatherReport, "Last Weather Report")
	printStateKey(sess, weather.StateKeyLastCityChecked, "Last City Checked")
	printStateKey(sess, "keyword_guardrail_triggered", "Keyword Guardrail Triggered")
	printStateKey(sess, "tool_guardrail_triggered", "Tool Guardrail Triggered")
}

func printStateKey(sess *core.Session, key, label string) {
	if v, ok := sess.GetState(key); ok {
		fmt.Printf("%s: %v\n", label, v)
		return
	}
	fmt.Printf("%s: Not Set\n", label)
}
