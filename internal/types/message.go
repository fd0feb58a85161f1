package types

import (
	"encoding/json"
	"time"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusStreaming MessageStatus = "streaming"
	MessageStatusComplete  MessageStatus = "complete"
	MessageStatusErrored   MessageStatus = "errored"
	MessageStatusAborted   MessageStatus = "aborted"
)

// Message is one turn's content container. Parts are kept in first-seen
// order; updates mutate parts in place by id and never reorder them.
type Message struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	Role      MessageRole   `json:"role"`
	Status    MessageStatus `json:"status"`
	Parts     []*Part       `json:"parts,omitempty"`
	CreatedAt time.Time     `json:"created_at,omitempty"`
}

type PartKind string

const (
	PartKindText       PartKind = "text"
	PartKindReasoning  PartKind = "reasoning"
	PartKindTool       PartKind = "tool"
	PartKindToolResult PartKind = "tool_result"
	PartKindFileEdit   PartKind = "file_edit"
)

// Part is the smallest streamed unit of a message. The stream sends whole
// part snapshots, so an update replaces the kind-specific payload wholesale.
type Part struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	MessageID string          `json:"message_id"`
	Kind      PartKind        `json:"kind"`
	Text      string          `json:"text,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func ClonePart(in *Part) *Part {
	if in == nil {
		return nil
	}
	out := *in
	if in.Payload != nil {
		out.Payload = append(json.RawMessage{}, in.Payload...)
	}
	return &out
}

func CloneMessage(in *Message) *Message {
	if in == nil {
		return nil
	}
	out := *in
	if in.Parts != nil {
		out.Parts = make([]*Part, 0, len(in.Parts))
		for _, part := range in.Parts {
			out.Parts = append(out.Parts, ClonePart(part))
		}
	}
	return &out
}
