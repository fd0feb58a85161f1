package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"relay/internal/types"
)

func TestSessionMetaStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewFileSessionMetaStore(filepath.Join(t.TempDir(), "sessions_meta.json"))

	meta := &types.SessionMeta{SessionID: "s1", Title: "First"}
	if _, err := store.Upsert(ctx, meta); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	loaded, ok, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected meta")
	}
	if loaded.Title != "First" {
		t.Fatalf("expected title")
	}
	if loaded.LastActiveAt == nil {
		t.Fatalf("expected last active timestamp to default")
	}

	meta.Title = "Updated"
	if _, err := store.Upsert(ctx, meta); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	loaded, ok, _ = store.Get(ctx, "s1")
	if !ok || loaded.Title != "Updated" {
		t.Fatalf("expected updated title")
	}
}

func TestSessionMetaStoreUpsertPreservesPin(t *testing.T) {
	ctx := context.Background()
	store := NewFileSessionMetaStore(filepath.Join(t.TempDir(), "sessions_meta.json"))

	if _, err := store.Upsert(ctx, &types.SessionMeta{SessionID: "s1", Title: "Pinned", Pinned: true}); err != nil {
		t.Fatalf("upsert pinned: %v", err)
	}

	// A title-only refresh must not clear the pin.
	if _, err := store.Upsert(ctx, &types.SessionMeta{SessionID: "s1", Title: "Renamed"}); err != nil {
		t.Fatalf("upsert rename: %v", err)
	}

	loaded, ok, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || !loaded.Pinned {
		t.Fatalf("expected pin to persist")
	}
	if loaded.Title != "Renamed" {
		t.Fatalf("expected renamed title, got %q", loaded.Title)
	}
}

func TestSessionMetaStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewFileSessionMetaStore(filepath.Join(t.TempDir(), "sessions_meta.json"))

	for _, id := range []string{"s2", "s1"} {
		if _, err := store.Upsert(ctx, &types.SessionMeta{SessionID: id}); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].SessionID != "s1" || list[1].SessionID != "s2" {
		t.Fatalf("expected sorted list, got %d entries", len(list))
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "s1"); !errors.Is(err, ErrSessionMetaNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, ok, _ := store.Get(ctx, "s1"); ok {
		t.Fatalf("expected s1 gone")
	}
}
