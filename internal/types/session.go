package types

import "time"

type SessionStatus string

const (
	SessionStatusIdle  SessionStatus = "idle"
	SessionStatusBusy  SessionStatus = "busy"
	SessionStatusError SessionStatus = "error"
)

// Session is the server's metadata view of a conversation. Message content
// arrives separately over the event stream.
type Session struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Directory string     `json:"directory,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type SessionError struct {
	Name    string `json:"name"`
	Message string `json:"message,omitempty"`
}

func (e *SessionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return e.Name
	}
	return e.Name + ": " + e.Message
}
