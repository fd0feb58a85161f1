package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"relay/internal/stream"
	"relay/internal/types"
)

func rawEvent(t *testing.T, kind string, payload any) types.StreamEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return types.StreamEvent{Type: kind, Properties: raw}
}

func chanSource(events <-chan types.StreamEvent) stream.Source {
	return func(ctx context.Context) (<-chan types.StreamEvent, func(), error) {
		return events, func() {}, nil
	}
}

func TestStoreFoldsStreamWithWindow(t *testing.T) {
	events := make(chan types.StreamEvent)
	changes := make(chan Change, 16)

	st := New(Options{MaxMessages: 2, Source: chanSource(events)})
	defer st.Close()
	st.Subscribe(func(c Change) { changes <- c })

	if err := st.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}

	for _, id := range []string{"m1", "m2", "m3"} {
		events <- rawEvent(t, types.EventMessageUpdated, types.MessageUpdatedEvent{
			Message: types.Message{ID: id, SessionID: "s1", Role: types.MessageRoleUser},
		})
	}
	events <- rawEvent(t, types.EventSessionIdle, types.SessionIdleEvent{SessionID: "s1"})
	close(events)

	for i := 0; i < 4; i++ {
		select {
		case <-changes:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for change %d", i)
		}
	}

	snap, ok := st.Get("s1")
	if !ok {
		t.Fatalf("expected session state")
	}
	if len(snap.Messages) != 2 || snap.Messages[0].ID != "m2" || snap.Messages[1].ID != "m3" {
		t.Fatalf("expected window [m2 m3], got %d messages", len(snap.Messages))
	}
	if snap.Trimmed != 1 {
		t.Fatalf("expected 1 trimmed, got %d", snap.Trimmed)
	}
	if snap.Status != types.SessionStatusIdle {
		t.Fatalf("expected idle after stream, got %q", snap.Status)
	}
}

func TestStoreFiltersPromptsToCurrentSession(t *testing.T) {
	events := make(chan types.StreamEvent)
	asked := make(chan types.PermissionEvent, 4)

	st := New(Options{
		Source:  chanSource(events),
		Prompts: PromptHandlers{PermissionAsked: func(e types.PermissionEvent) { asked <- e }},
	})
	defer st.Close()

	st.SetCurrent("B")
	if err := st.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}

	events <- rawEvent(t, types.EventPermissionAsked, types.PermissionEvent{SessionID: "A", RequestID: 1})
	events <- rawEvent(t, types.EventPermissionAsked, types.PermissionEvent{SessionID: "B", RequestID: 2})

	select {
	case evt := <-asked:
		if evt.SessionID != "B" || evt.RequestID != 2 {
			t.Fatalf("expected prompt for current session only, got %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for prompt")
	}

	// Switching sessions mid-stream takes effect on the next event.
	st.SetCurrent("A")
	events <- rawEvent(t, types.EventPermissionAsked, types.PermissionEvent{SessionID: "A", RequestID: 3})
	select {
	case evt := <-asked:
		if evt.SessionID != "A" || evt.RequestID != 3 {
			t.Fatalf("expected prompt after switch, got %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for prompt after switch")
	}
	close(events)
}

func TestStoreRevertOperations(t *testing.T) {
	st := New(Options{})

	for _, id := range []string{"m1", "m2", "m3"} {
		st.ApplyMessageUpdated(types.Message{ID: id, SessionID: "s1", Role: types.MessageRoleUser})
	}

	if err := st.Revert("s1", 5); !errors.Is(err, ErrRevertOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if err := st.Revert("s1", 1); err != nil {
		t.Fatalf("revert: %v", err)
	}
	snap, _ := st.Get("s1")
	if len(snap.Messages) != 2 || snap.Messages[1].ID != "m2" {
		t.Fatalf("expected [m1 m2] visible after revert, got %d messages", len(snap.Messages))
	}
	if !st.CanRedo("s1") || st.RevertSteps("s1") != 1 {
		t.Fatalf("expected one redoable step")
	}

	if err := st.Redo("s1"); err != nil {
		t.Fatalf("redo: %v", err)
	}
	snap, _ = st.Get("s1")
	if len(snap.Messages) != 3 {
		t.Fatalf("expected full restore, got %d", len(snap.Messages))
	}
	if err := st.RedoAll("s1"); !errors.Is(err, ErrNoRedo) {
		t.Fatalf("expected no redo, got %v", err)
	}
}

func TestStoreMarkOlderLoaded(t *testing.T) {
	st := New(Options{})
	st.GetOrCreate("s1")

	st.MarkOlderLoaded("s1", 0)
	st.MarkOlderLoaded("s1", 50)
	st.MarkOlderLoaded("s1", 25)

	snap, _ := st.Get("s1")
	if snap.HistoryCursor != 75 {
		t.Fatalf("expected cursor 75, got %d", snap.HistoryCursor)
	}
}

func TestStoreAttachTwiceRejected(t *testing.T) {
	events := make(chan types.StreamEvent)
	st := New(Options{Source: chanSource(events)})
	defer st.Close()

	if err := st.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := st.Attach(context.Background()); !errors.Is(err, ErrAlreadyAttached) {
		t.Fatalf("expected already attached, got %v", err)
	}
	close(events)
}

func TestStoreCloseIsIdempotent(t *testing.T) {
	events := make(chan types.StreamEvent)
	st := New(Options{Source: chanSource(events)})
	if err := st.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	st.Close()
	st.Close()
	close(events)
}
