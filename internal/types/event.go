package types

import "encoding/json"

// StreamEvent is one frame of the server event stream: a kind tag plus the
// kind-specific payload, decoded at the gateway boundary.
type StreamEvent struct {
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties,omitempty"`
	TS         string          `json:"ts,omitempty"`
}

const (
	EventMessageUpdated    = "message.updated"
	EventPartUpdated       = "part.updated"
	EventPartRemoved       = "part.removed"
	EventSessionIdle       = "session.idle"
	EventSessionError      = "session.error"
	EventSessionUpdated    = "session.updated"
	EventPermissionAsked   = "permission.asked"
	EventPermissionReplied = "permission.replied"
	EventQuestionAsked     = "question.asked"
	EventQuestionReplied   = "question.replied"
	EventQuestionRejected  = "question.rejected"
)

type MessageUpdatedEvent struct {
	Message Message `json:"message"`
}

type PartUpdatedEvent struct {
	Part Part `json:"part"`
}

type PartRemovedEvent struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	PartID    string `json:"part_id"`
}

type SessionIdleEvent struct {
	SessionID string `json:"session_id"`
}

type SessionErrorEvent struct {
	SessionID string       `json:"session_id"`
	Error     SessionError `json:"error"`
}

type SessionUpdatedEvent struct {
	Session Session `json:"session"`
}

// PermissionEvent covers permission.asked and permission.replied; Decision
// is set only on replies.
type PermissionEvent struct {
	SessionID string          `json:"session_id"`
	RequestID int             `json:"request_id"`
	Title     string          `json:"title,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Decision  string          `json:"decision,omitempty"`
}

// QuestionEvent covers question.asked, question.replied and
// question.rejected; Answer is set only on replies.
type QuestionEvent struct {
	SessionID string   `json:"session_id"`
	RequestID int      `json:"request_id"`
	Prompt    string   `json:"prompt,omitempty"`
	Options   []string `json:"options,omitempty"`
	Answer    string   `json:"answer,omitempty"`
}
