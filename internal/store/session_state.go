package store

import "relay/internal/types"

// SessionState is the per-session aggregate. It is owned exclusively by the
// Registry; every mutation goes through Registry.update so ordering and
// window invariants cannot be bypassed.
type SessionState struct {
	ID     string
	Title  string
	Status types.SessionStatus
	Err    *types.SessionError

	// Messages in insertion order == chronological order. Once appended a
	// message is never reordered, only trimmed from the front or mutated
	// via part updates.
	Messages []*types.Message

	Revert RevertState

	// Trimmed counts messages dropped from the front by the history window.
	Trimmed int

	// HistoryCursor counts older messages fetched through explicit
	// backward loads. It only ever grows, and only on those requests.
	HistoryCursor int
}

func newSessionState(id string) *SessionState {
	return &SessionState{
		ID:     id,
		Status: types.SessionStatusIdle,
	}
}

func (s *SessionState) findMessage(id string) *types.Message {
	for _, msg := range s.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// Snapshot is a copy-on-read view of a SessionState handed to callers
// outside the registry. Mutating it has no effect on the store.
type Snapshot struct {
	ID            string
	Title         string
	Status        types.SessionStatus
	Err           *types.SessionError
	Messages      []*types.Message
	RevertSteps   int
	CanRedo       bool
	Trimmed       int
	HistoryCursor int
}

func (s *SessionState) snapshot() Snapshot {
	out := Snapshot{
		ID:            s.ID,
		Title:         s.Title,
		Status:        s.Status,
		RevertSteps:   len(s.Revert.Stack),
		CanRedo:       len(s.Revert.Stack) > 0,
		Trimmed:       s.Trimmed,
		HistoryCursor: s.HistoryCursor,
	}
	if s.Err != nil {
		err := *s.Err
		out.Err = &err
	}
	out.Messages = make([]*types.Message, 0, len(s.Messages))
	for _, msg := range s.Messages {
		out.Messages = append(out.Messages, types.CloneMessage(msg))
	}
	return out
}
