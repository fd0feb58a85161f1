package store

import (
	"errors"

	"relay/internal/types"
)

var (
	ErrRevertOutOfRange = errors.New("revert index out of range")
	ErrNoRedo           = errors.New("nothing to redo")
)

// RevertHistoryItem records one revert: the index of the last message left
// visible, and the messages hidden beyond it in original order.
type RevertHistoryItem struct {
	Index  int
	Hidden []*types.Message
}

// RevertState is the per-session undo stack, most recent revert last. It is
// owned exclusively by its SessionState.
type RevertState struct {
	Stack []RevertHistoryItem
}

func (r RevertState) CanRedo() bool {
	return len(r.Stack) > 0
}

func (r RevertState) Steps() int {
	return len(r.Stack)
}

// revertTo truncates the visible message list back to index, recording the
// hidden tail for redo. The message at index stays visible; everything
// beyond it is hidden. Valid indices hide at least one message.
func revertTo(s *SessionState, index int) error {
	if index < 0 || index >= len(s.Messages)-1 {
		return ErrRevertOutOfRange
	}
	cut := index + 1
	hidden := make([]*types.Message, len(s.Messages)-cut)
	copy(hidden, s.Messages[cut:])
	s.Messages = s.Messages[:cut]
	s.Revert.Stack = append(s.Revert.Stack, RevertHistoryItem{Index: index, Hidden: hidden})
	return nil
}

// redoStep pops the most recent revert and restores the messages it hid, in
// their original relative order.
func redoStep(s *SessionState) error {
	n := len(s.Revert.Stack)
	if n == 0 {
		return ErrNoRedo
	}
	item := s.Revert.Stack[n-1]
	s.Revert.Stack = s.Revert.Stack[:n-1]
	s.Messages = append(s.Messages, item.Hidden...)
	return nil
}

func redoAll(s *SessionState) error {
	if len(s.Revert.Stack) == 0 {
		return ErrNoRedo
	}
	for len(s.Revert.Stack) > 0 {
		if err := redoStep(s); err != nil {
			return err
		}
	}
	return nil
}
