package store

import "relay/internal/types"

// Merge rules. Each applies one event to a SessionState and reports the
// change reason, or "" when nothing changed. The transport delivers events
// for one session in send order; that order is trusted as-is, so replaying
// the same snapshot is naturally idempotent (update-by-id).

func applyMessageUpdated(s *SessionState, snapshot types.Message) ChangeReason {
	if existing := s.findMessage(snapshot.ID); existing != nil {
		// Parts are managed by their own events; only role and status
		// follow the message snapshot.
		existing.Role = snapshot.Role
		existing.Status = snapshot.Status
		return ChangeMessages
	}
	appendMessage(s, types.CloneMessage(&snapshot))
	return ChangeMessages
}

func applyPartUpdated(s *SessionState, part types.Part) ChangeReason {
	msg := s.findMessage(part.MessageID)
	if msg == nil {
		// Parts are never orphaned: synthesize a streaming placeholder
		// until the message snapshot arrives.
		msg = &types.Message{
			ID:        part.MessageID,
			SessionID: part.SessionID,
			Role:      types.MessageRoleAssistant,
			Status:    types.MessageStatusStreaming,
		}
		appendMessage(s, msg)
	}
	clone := types.ClonePart(&part)
	for i, existing := range msg.Parts {
		if existing.ID == part.ID {
			msg.Parts[i] = clone
			return ChangeParts
		}
	}
	msg.Parts = append(msg.Parts, clone)
	return ChangeParts
}

func applyPartRemoved(s *SessionState, evt types.PartRemovedEvent) ChangeReason {
	msg := s.findMessage(evt.MessageID)
	if msg == nil {
		return ""
	}
	for i, part := range msg.Parts {
		if part.ID == evt.PartID {
			msg.Parts = append(msg.Parts[:i], msg.Parts[i+1:]...)
			return ChangeParts
		}
	}
	return ""
}

func applySessionIdle(s *SessionState) ChangeReason {
	if s.Status == types.SessionStatusIdle {
		return ""
	}
	s.Status = types.SessionStatusIdle
	s.Err = nil
	return ChangeStatus
}

func applySessionError(s *SessionState, evt types.SessionErrorEvent) ChangeReason {
	s.Status = types.SessionStatusError
	err := evt.Error
	s.Err = &err
	return ChangeStatus
}

func applySessionUpdated(s *SessionState, session types.Session) ChangeReason {
	if s.Title == session.Title {
		return ""
	}
	s.Title = session.Title
	return ChangeMeta
}

// appendMessage is the single append site. A new message appended while
// reverted supersedes the hidden future: the redo stack can no longer be
// restored coherently and is cleared.
func appendMessage(s *SessionState, msg *types.Message) {
	if len(s.Revert.Stack) > 0 {
		s.Revert.Stack = nil
	}
	if msg.Status == "" {
		msg.Status = types.MessageStatusPending
	}
	s.Messages = append(s.Messages, msg)
	s.Status = types.SessionStatusBusy
}
