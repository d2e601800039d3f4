package session

import (
	"testing"

	"github.com/meshkit-ai/weatherteam/core"
	"github.com/meshkit-ai/weatherteam/internal/testutil"
)

func TestInMemoryStore_LazyGet(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.ID != "s1" {
		t.Errorf("unexpected session ID %q", sess.ID)
	}
}

func TestInMemoryStore_ClonesOnRead(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.Create("s1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sess, _ := store.Get("s1")
	sess.SetState("k", "mutated")

	again, _ := store.Get("s1")
	if _, ok := again.GetState("k"); ok {
		t.Error("mutating a returned session must not affect the store")
	}
}

func TestInMemoryStore_AppendEventAndDelta(t *testing.T) {
	store := NewInMemoryStore()

	ev := core.NewUserMessageEvent("run-1", "hello")
	if err := store.AppendEvent("s1", ev); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	if err := store.ApplyDelta("s1", map[string]any{"unit": "Celsius"}); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}

	sess, _ := store.Get("s1")
	if got := len(sess.GetEvents()); got != 1 {
		t.Fatalf("expected 1 event, got %d", got)
	}
	if v, ok := sess.GetState("unit"); !ok || v != "Celsius" {
		t.Errorf("delta not applied: %v", v)
	}
}

func TestInMemoryStore_ConversationHistoryOrdering(t *testing.T) {
	store := NewInMemoryStore()

	events := []core.Event{
		testutil.NewEventBuilder().Author("user").Run("run-1").UserText("hello").Build(),
		testutil.NewEventBuilder().Run("run-1").AssistantText("H").Partial(true).Build(),
		testutil.NewEventBuilder().Run("run-1").AssistantText("Hi there!").TurnComplete(true).Build(),
	}
	for _, ev := range events {
		if err := store.AppendEvent("s1", ev); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}

	sess, _ := store.Get("s1")
	history := sess.GetConversationHistory()
	if len(history) != 2 {
		t.Fatalf("expected partials excluded from history, got %d events", len(history))
	}
	if history[0].Text() != "hello" || history[1].Text() != "Hi there!" {
		t.Errorf("unexpected history order: %q, %q", history[0].Text(), history[1].Text())
	}
}

func TestInMemoryStore_CreateOverwrites(t *testing.T) {
	store := NewInMemoryStore()
	_ = store.ApplyDelta("s1", map[string]any{"k": 1})

	if _, err := store.Create("s1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sess, _ := store.Get("s1")
	if _, ok := sess.GetState("k"); ok {
		t.Error("Create should reset existing session state")
	}
}
