package types

import "time"

// SessionMeta is client-side bookkeeping the server does not remember:
// last known title and pin state, persisted across restarts.
type SessionMeta struct {
	SessionID    string     `json:"session_id"`
	Title        string     `json:"title,omitempty"`
	Pinned       bool       `json:"pinned,omitempty"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}
