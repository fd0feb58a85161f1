package store

import "testing"

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("s1"); ok {
		t.Fatalf("expected no state before first reference")
	}
	snap := r.GetOrCreate("s1")
	if snap.ID != "s1" || len(snap.Messages) != 0 {
		t.Fatalf("expected empty state for new session")
	}
	if _, ok := r.Get("s1"); !ok {
		t.Fatalf("expected state after creation")
	}
}

func TestRegistrySnapshotIsolation(t *testing.T) {
	r := NewRegistry()
	r.update("s1", func(s *SessionState) ChangeReason {
		applyMessageUpdated(s, testMessage("m1"))
		return ChangeMessages
	})

	snap, _ := r.Get("s1")
	snap.Messages[0].ID = "mutated"

	fresh, _ := r.Get("s1")
	if fresh.Messages[0].ID != "m1" {
		t.Fatalf("snapshot mutation leaked into registry state")
	}
}

func TestRegistryNotifiesObservers(t *testing.T) {
	r := NewRegistry()
	var changes []Change
	unsubscribe := r.Subscribe(func(c Change) {
		changes = append(changes, c)
	})

	r.update("s1", func(s *SessionState) ChangeReason { return ChangeStatus })
	r.update("s1", func(s *SessionState) ChangeReason { return "" })
	r.update("s2", func(s *SessionState) ChangeReason { return ChangeMessages })

	if len(changes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(changes))
	}
	if changes[0].SessionID != "s1" || changes[0].Reason != ChangeStatus {
		t.Fatalf("unexpected first change: %+v", changes[0])
	}
	if changes[1].SessionID != "s2" || changes[1].Reason != ChangeMessages {
		t.Fatalf("unexpected second change: %+v", changes[1])
	}

	unsubscribe()
	unsubscribe()
	r.update("s1", func(s *SessionState) ChangeReason { return ChangeStatus })
	if len(changes) != 2 {
		t.Fatalf("expected no notification after unsubscribe")
	}
}

func TestRegistryCurrent(t *testing.T) {
	r := NewRegistry()
	if r.Current() != "" {
		t.Fatalf("expected no current session initially")
	}
	r.SetCurrent("s1")
	if r.Current() != "s1" {
		t.Fatalf("expected s1 current")
	}
	if _, ok := r.Get("s1"); !ok {
		t.Fatalf("expected SetCurrent to create state")
	}
	r.SetCurrent("")
	if r.Current() != "" {
		t.Fatalf("expected current cleared")
	}
}
