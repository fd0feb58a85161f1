package app

import (
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"relay/internal/types"
)

// SidebarController owns the session list pane: ordering, selection and
// rendering. Pinned sessions sort first, then most recently updated.
type SidebarController struct {
	sessions  []*types.Session
	meta      map[string]*types.SessionMeta
	selected  int
	collapsed bool
}

func NewSidebarController() *SidebarController {
	return &SidebarController{meta: map[string]*types.SessionMeta{}}
}

func (c *SidebarController) SetSessions(sessions []*types.Session, meta []*types.SessionMeta) {
	if c == nil {
		return
	}
	selectedID := c.SelectedID()
	c.meta = map[string]*types.SessionMeta{}
	for _, m := range meta {
		if m != nil && m.SessionID != "" {
			c.meta[m.SessionID] = m
		}
	}
	c.sessions = make([]*types.Session, 0, len(sessions))
	for _, s := range sessions {
		if s != nil && s.ID != "" {
			c.sessions = append(c.sessions, s)
		}
	}
	sort.SliceStable(c.sessions, func(i, j int) bool {
		pi, pj := c.pinned(c.sessions[i].ID), c.pinned(c.sessions[j].ID)
		if pi != pj {
			return pi
		}
		ti, tj := c.sessions[i].UpdatedAt, c.sessions[j].UpdatedAt
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return ti.After(*tj)
	})
	c.selected = 0
	if selectedID != "" {
		for i, s := range c.sessions {
			if s.ID == selectedID {
				c.selected = i
				break
			}
		}
	}
}

func (c *SidebarController) pinned(sessionID string) bool {
	m, ok := c.meta[sessionID]
	return ok && m.Pinned
}

func (c *SidebarController) Len() int {
	if c == nil {
		return 0
	}
	return len(c.sessions)
}

func (c *SidebarController) SelectedID() string {
	if c == nil || c.selected < 0 || c.selected >= len(c.sessions) {
		return ""
	}
	return c.sessions[c.selected].ID
}

func (c *SidebarController) Select(sessionID string) bool {
	if c == nil {
		return false
	}
	for i, s := range c.sessions {
		if s.ID == sessionID {
			c.selected = i
			return true
		}
	}
	return false
}

func (c *SidebarController) Move(delta int) {
	if c == nil || len(c.sessions) == 0 {
		return
	}
	c.selected += delta
	if c.selected < 0 {
		c.selected = 0
	}
	if c.selected >= len(c.sessions) {
		c.selected = len(c.sessions) - 1
	}
}

func (c *SidebarController) Collapsed() bool {
	return c != nil && c.collapsed
}

func (c *SidebarController) SetCollapsed(collapsed bool) {
	if c != nil {
		c.collapsed = collapsed
	}
}

func (c *SidebarController) ToggleCollapsed() {
	if c != nil {
		c.collapsed = !c.collapsed
	}
}

func (c *SidebarController) title(s *types.Session) string {
	if m, ok := c.meta[s.ID]; ok && m.Title != "" {
		return m.Title
	}
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}

func (c *SidebarController) View(width, height int, statuses map[string]types.SessionStatus) string {
	if c == nil || c.collapsed || width <= 0 {
		return ""
	}
	lines := make([]string, 0, height)
	lines = append(lines, headerStyle.Render(runewidth.Truncate("Sessions", width, "…")))
	for i, s := range c.sessions {
		if len(lines) >= height {
			break
		}
		marker := "  "
		if c.pinned(s.ID) {
			marker = "· "
		}
		label := marker + c.title(s)
		switch statuses[s.ID] {
		case types.SessionStatusBusy:
			label += " *"
		case types.SessionStatusError:
			label += " !"
		}
		label = runewidth.Truncate(label, width, "…")
		style := sessionStyle
		if c.pinned(s.ID) {
			style = sessionPinnedStyle
		}
		if i == c.selected {
			style = selectedStyle
		}
		lines = append(lines, style.Render(label))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
