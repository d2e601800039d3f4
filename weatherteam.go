// Package weatherteam provides a high-level façade over the runner and
// service abstractions (sessions & logging) for running the weather agent
// team. Most applications interact with this package by:
//  1. Building the agent team (weather.NewTeam) or any custom root agent
//  2. Creating a Team via New() (optionally overriding default in-memory services)
//  3. Invoking the team asynchronously (Invoke) or synchronously (InvokeSync)
//
// The façade delegates orchestration to runner.Runner while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable session store
// and a structured logger.
package weatherteam

import (
	"context"

	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/logging"
	"github.com/meshkit-ai/weatherteam/runner"
	"github.com/meshkit-ai/weatherteam/session"
)

// Options configures the Team instance.
type Options struct {
	// EnableStreaming determines whether events are streamed in real-time
	// or buffered until completion. Streaming enables interactive experiences
	// but may increase overhead for simple request-response patterns.
	EnableStreaming bool

	// EventBufferSize sets the channel buffer size for event processing.
	// Larger buffers reduce blocking but increase memory usage.
	EventBufferSize int

	// MaxModelCalls limits the number of model calls per run as a loop
	// safeguard.
	MaxModelCalls int

	// SessionStore defaults to an in-memory implementation if not provided.
	SessionStore core.SessionStore

	// Logger defaults to a NoOp logger if nil.
	Logger logging.Logger
}

// Team is the high-level façade aggregating the runner and its services
// around a single root agent.
type Team struct {
	opts   Options
	runner *runner.Runner
}

// New creates a new Team around the given root agent with optional
// overrides. Any unset service is initialized with an in-memory
// implementation.
func New(agent core.Agent, optFns ...func(o *Options)) *Team {
	opts := Options{
		EnableStreaming: true,
		EventBufferSize: 100,
		MaxModelCalls:   100,
		SessionStore:    session.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := runner.New(agent, func(o *runner.Options) {
		o.EnableStreaming = opts.EnableStreaming
		o.EventBufferSize = opts.EventBufferSize
		o.MaxModelCalls = opts.MaxModelCalls
		o.SessionStore = opts.SessionStore
		o.Logger = opts.Logger
	})

	return &Team{opts: opts, runner: r}
}

// SessionStore returns the backing session store for state seeding and
// inspection.
func (t *Team) SessionStore() core.SessionStore { return t.opts.SessionStore }

// Invoke starts an asynchronous run returning event & error channels.
func (t *Team) Invoke(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	return t.runner.Run(ctx, sessionID, userContent)
}

// Cancel cancels a running invocation by run ID.
func (t *Team) Cancel(runID string) error { return t.runner.Cancel(runID) }

// InvokeSync is a synchronous helper that drains the async channels,
// accumulates events and returns the run ID.
func (t *Team) InvokeSync(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, []core.Event, error) {
	runID, eventsCh, errorsCh, err := t.runner.Run(ctx, sessionID, userContent)
	if err != nil {
		return "", nil, err
	}

	var events []core.Event
	for eventsCh != nil || errorsCh != nil {
		select {
		case <-ctx.Done():
			// Context cancelled - return events collected so far
			return runID, events, ctx.Err()

		case event, ok := <-eventsCh:
			if !ok {
				eventsCh = nil
				continue
			}
			events = append(events, event)

		case err, ok := <-errorsCh:
			if !ok {
				errorsCh = nil
				continue
			}
			if err != nil {
				return runID, events, err
			}
		}
	}

	return runID, events, nil
}
