package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshkit-ai/weatherteam/agent"
	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/model"
	"github.com/meshkit-ai/weatherteam/session"
)

// drainRun collects all events and errors produced by a run until both
// channels close.
func drainRun(t *testing.T, eventsCh <-chan core.Event, errorsCh <-chan error) ([]core.Event, []error) {
	t.Helper()

	var (
		events []core.Event
		errs   []error
	)

	timeout := time.After(5 * time.Second)
	for eventsCh != nil || errorsCh != nil {
		select {
		case ev, ok := <-eventsCh:
			if !ok {
				eventsCh = nil
				continue
			}
			events = append(events, ev)
		case err, ok := <-errorsCh:
			if !ok {
				errorsCh = nil
				continue
			}
			errs = append(errs, err)
		case <-timeout:
			t.Fatal("timed out draining run channels")
		}
	}
	return events, errs
}

func TestRunner_DeliversFinalResponse(t *testing.T) {
	llm := model.NewMockModel("test-model", "test")
	llm.AddResponse("hello", "Hi! How can I help?")
	testAgent := agent.NewModelAgent("test_agent", llm, func(o *agent.ModelAgentOptions) {
		o.EnableStreaming = false
	})

	r := New(testAgent)
	runID, eventsCh, errorsCh, err := r.Run(context.Background(), "session-1", core.NewUserText("hello"))
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	events, errs := drainRun(t, eventsCh, errorsCh)
	require.Empty(t, errs)
	require.Len(t, events, 1)

	final := events[0]
	assert.Equal(t, "Hi! How can I help?", final.Text())
	assert.True(t, final.IsFinalResponse())
	assert.Equal(t, 1, llm.Calls())
}

func TestRunner_PersistsConversationHistory(t *testing.T) {
	llm := model.NewMockModel("test-model", "test")
	llm.AddResponse("hello", "Hi!")
	testAgent := agent.NewModelAgent("test_agent", llm, func(o *agent.ModelAgentOptions) {
		o.EnableStreaming = false
	})

	store := session.NewInMemoryStore()
	r := New(testAgent, func(o *Options) {
		o.SessionStore = store
	})
	assert.Same(t, store, r.SessionStore().(*session.InMemoryStore))

	_, eventsCh, errorsCh, err := r.Run(context.Background(), "session-1", core.NewUserText("hello"))
	require.NoError(t, err)
	_, errs := drainRun(t, eventsCh, errorsCh)
	require.Empty(t, errs)

	sess, err := store.Get("session-1")
	require.NoError(t, err)

	history := sess.GetConversationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Content.Role)
	assert.Equal(t, "hello", history[0].Text())
	assert.Equal(t, "assistant", history[1].Content.Role)
	assert.Equal(t, "Hi!", history[1].Text())
}

func TestRunner_AppliesOutputKeyStateDelta(t *testing.T) {
	llm := model.NewMockModel("test-model", "test")
	llm.AddResponse("weather?", "It is sunny.")
	testAgent := agent.NewModelAgent("weather_agent", llm, func(o *agent.ModelAgentOptions) {
		o.EnableStreaming = false
		o.OutputKey = "last_weather_report"
	})

	r := New(testAgent)
	_, eventsCh, errorsCh, err := r.Run(context.Background(), "session-1", core.NewUserText("weather?"))
	require.NoError(t, err)
	_, errs := drainRun(t, eventsCh, errorsCh)
	require.Empty(t, errs)

	sess, err := r.SessionStore().Get("session-1")
	require.NoError(t, err)
	assert.Equal(t, "It is sunny.", sess.State["last_weather_report"])
}

func TestRunner_StreamingDeliversPartials(t *testing.T) {
	llm := model.NewMockModel("test-model", "test")
	llm.AddResponse("hi", "ok")
	testAgent := agent.NewModelAgent("test_agent", llm)

	r := New(testAgent)
	_, eventsCh, errorsCh, err := r.Run(context.Background(), "session-1", core.NewUserText("hi"))
	require.NoError(t, err)

	events, errs := drainRun(t, eventsCh, errorsCh)
	require.Empty(t, errs)

	// Two partial chunks ("o", "k") plus the final aggregate.
	require.Len(t, events, 3)
	assert.True(t, events[0].IsPartial())
	assert.True(t, events[1].IsPartial())
	assert.False(t, events[2].IsPartial())
	assert.Equal(t, "ok", events[2].Text())

	// Only the final event lands in session history.
	sess, err := r.SessionStore().Get("session-1")
	require.NoError(t, err)
	assert.Len(t, sess.GetConversationHistory(), 2)
}

func TestRunner_BufferedModeSuppressesPartials(t *testing.T) {
	llm := model.NewMockModel("test-model", "test")
	llm.AddResponse("hi", "ok")
	testAgent := agent.NewModelAgent("test_agent", llm)

	r := New(testAgent, func(o *Options) {
		o.EnableStreaming = false
	})
	_, eventsCh, errorsCh, err := r.Run(context.Background(), "session-1", core.NewUserText("hi"))
	require.NoError(t, err)

	events, errs := drainRun(t, eventsCh, errorsCh)
	require.Empty(t, errs)
	require.Len(t, events, 1)
	assert.Equal(t, "ok", events[0].Text())
}

// appendFailingStore rejects event appends to exercise startup error paths.
type appendFailingStore struct {
	*session.InMemoryStore
}

func (s *appendFailingStore) AppendEvent(string, core.Event) error {
	return errors.New("append rejected")
}

func TestRunner_AppendFailureLeavesNoActiveRun(t *testing.T) {
	llm := model.NewMockModel("test-model", "test")
	testAgent := agent.NewModelAgent("test_agent", llm)

	r := New(testAgent, func(o *Options) {
		o.SessionStore = &appendFailingStore{InMemoryStore: session.NewInMemoryStore()}
	})

	runID, eventsCh, errorsCh, err := r.Run(context.Background(), "session-1", core.NewUserText("hello"))
	require.ErrorContains(t, err, "append rejected")
	assert.Empty(t, runID)
	assert.Nil(t, eventsCh)
	assert.Nil(t, errorsCh)

	// The failed start must not register a cancellable run.
	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Empty(t, r.activeRuns)
}

func TestRunner_CancelUnknownRun(t *testing.T) {
	llm := model.NewMockModel("test-model", "test")
	r := New(agent.NewModelAgent("test_agent", llm))

	err := r.Cancel("no-such-run")
	assert.ErrorContains(t, err, "not found")
}
