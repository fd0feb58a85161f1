package store

import "relay/internal/types"

// windowPolicy bounds the number of retained messages per session so memory
// stays flat under long-running sessions. It runs after every mutating
// merge; trimming always wins over the revert stack.
type windowPolicy struct {
	maxMessages int
}

func (w windowPolicy) enforce(s *SessionState) bool {
	if w.maxMessages <= 0 || len(s.Messages) <= w.maxMessages {
		return false
	}
	drop := len(s.Messages) - w.maxMessages
	trimmed := make([]*types.Message, w.maxMessages)
	copy(trimmed, s.Messages[drop:])
	s.Messages = trimmed
	s.Trimmed += drop

	if len(s.Revert.Stack) == 0 {
		return true
	}
	// Shift revert points with the window. Items whose revert point fell
	// off the front can no longer be restored in place and are invalidated
	// rather than blocking the trim.
	kept := s.Revert.Stack[:0]
	for _, item := range s.Revert.Stack {
		item.Index -= drop
		if item.Index < 0 {
			continue
		}
		kept = append(kept, item)
	}
	s.Revert.Stack = kept
	return true
}
