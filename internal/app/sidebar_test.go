package app

import (
	"strings"
	"testing"
	"time"

	"relay/internal/types"
)

func sidebarSession(id string, updated time.Time) *types.Session {
	ts := updated
	return &types.Session{ID: id, UpdatedAt: &ts}
}

func TestSidebarSortsPinnedFirstThenRecency(t *testing.T) {
	now := time.Now()
	c := NewSidebarController()
	c.SetSessions(
		[]*types.Session{
			sidebarSession("old", now.Add(-time.Hour)),
			sidebarSession("new", now),
			sidebarSession("pinned", now.Add(-2*time.Hour)),
		},
		[]*types.SessionMeta{{SessionID: "pinned", Pinned: true}},
	)

	want := []string{"pinned", "new", "old"}
	for i, id := range want {
		if c.sessions[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, c.sessions[i].ID)
		}
	}
}

func TestSidebarSelectionSurvivesRefresh(t *testing.T) {
	now := time.Now()
	c := NewSidebarController()
	c.SetSessions([]*types.Session{
		sidebarSession("a", now),
		sidebarSession("b", now.Add(-time.Minute)),
	}, nil)

	if !c.Select("b") {
		t.Fatalf("expected select to find b")
	}
	c.SetSessions([]*types.Session{
		sidebarSession("c", now.Add(time.Minute)),
		sidebarSession("a", now),
		sidebarSession("b", now.Add(-time.Minute)),
	}, nil)
	if c.SelectedID() != "b" {
		t.Fatalf("expected selection to survive refresh, got %q", c.SelectedID())
	}
}

func TestSidebarMoveClamps(t *testing.T) {
	now := time.Now()
	c := NewSidebarController()
	c.SetSessions([]*types.Session{
		sidebarSession("a", now),
		sidebarSession("b", now.Add(-time.Minute)),
	}, nil)

	c.Move(-5)
	if c.SelectedID() != "a" {
		t.Fatalf("expected clamp at top")
	}
	c.Move(10)
	if c.SelectedID() != "b" {
		t.Fatalf("expected clamp at bottom")
	}
}

func TestSidebarViewShowsTitlesAndMarkers(t *testing.T) {
	now := time.Now()
	c := NewSidebarController()
	c.SetSessions(
		[]*types.Session{sidebarSession("s1", now)},
		[]*types.SessionMeta{{SessionID: "s1", Title: "Refactor parser"}},
	)

	out := c.View(28, 10, map[string]types.SessionStatus{"s1": types.SessionStatusBusy})
	if !strings.Contains(out, "Refactor parser") {
		t.Fatalf("expected meta title, got %q", out)
	}
	if !strings.Contains(out, "*") {
		t.Fatalf("expected busy marker, got %q", out)
	}
	if c.View(28, 10, nil) == "" {
		t.Fatalf("expected view output")
	}
	c.SetCollapsed(true)
	if c.View(28, 10, nil) != "" {
		t.Fatalf("expected empty view when collapsed")
	}
}
