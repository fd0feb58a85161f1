package store

import (
	"context"
	"errors"
	"sync"

	"relay/internal/logging"
	"relay/internal/stream"
	"relay/internal/types"
)

var ErrAlreadyAttached = errors.New("event stream already attached")

// PromptHandlers receive permission/question events. They bypass the merge
// engine entirely and are only invoked when the event's session is the one
// the UI is currently viewing; the filter reads the registry at dispatch
// time, never a cached value.
type PromptHandlers struct {
	PermissionAsked   func(types.PermissionEvent)
	PermissionReplied func(types.PermissionEvent)
	QuestionAsked     func(types.QuestionEvent)
	QuestionReplied   func(types.QuestionEvent)
	QuestionRejected  func(types.QuestionEvent)
}

type Options struct {
	Logger logging.Logger
	// MaxMessages is the per-session ceiling on retained messages.
	MaxMessages int
	Source      stream.Source
	Prompts     PromptHandlers
}

// Store folds the server event stream into per-session state. It owns the
// Registry, applies merge and window rules on every event, and fans out
// change notifications to UI observers.
type Store struct {
	logger   logging.Logger
	registry *Registry
	window   windowPolicy
	gateway  *stream.Gateway
	prompts  PromptHandlers

	mu     sync.Mutex
	detach func()
}

func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Store{
		logger:   logger,
		registry: NewRegistry(),
		window:   windowPolicy{maxMessages: opts.MaxMessages},
		prompts:  opts.Prompts,
	}
	if opts.Source != nil {
		s.gateway = stream.NewGateway(opts.Source, logger)
	}
	return s
}

// Attach subscribes to the event stream and starts folding events into the
// registry. A second call before Close returns ErrAlreadyAttached.
func (s *Store) Attach(ctx context.Context) error {
	if s.gateway == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detach != nil {
		return ErrAlreadyAttached
	}
	detach, err := s.gateway.Subscribe(ctx, stream.Handlers{
		MessageUpdated:    s.ApplyMessageUpdated,
		PartUpdated:       s.ApplyPartUpdated,
		PartRemoved:       s.ApplyPartRemoved,
		SessionIdle:       func(e types.SessionIdleEvent) { s.ApplySessionIdle(e.SessionID) },
		SessionError:      s.ApplySessionError,
		SessionUpdated:    s.ApplySessionUpdated,
		PermissionAsked:   s.forwardPermission(s.prompts.PermissionAsked),
		PermissionReplied: s.forwardPermission(s.prompts.PermissionReplied),
		QuestionAsked:     s.forwardQuestion(s.prompts.QuestionAsked),
		QuestionReplied:   s.forwardQuestion(s.prompts.QuestionReplied),
		QuestionRejected:  s.forwardQuestion(s.prompts.QuestionRejected),
	})
	if err != nil {
		return err
	}
	s.detach = detach
	return nil
}

// Close detaches the event gateway. Idempotent; registry state is kept so a
// session can be inspected after teardown.
func (s *Store) Close() {
	s.mu.Lock()
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()
	if detach != nil {
		detach()
	}
}

// Registry passthroughs.

func (s *Store) GetOrCreate(sessionID string) Snapshot { return s.registry.GetOrCreate(sessionID) }
func (s *Store) Get(sessionID string) (Snapshot, bool) { return s.registry.Get(sessionID) }
func (s *Store) SetCurrent(sessionID string)           { s.registry.SetCurrent(sessionID) }
func (s *Store) Current() string                       { return s.registry.Current() }
func (s *Store) Subscribe(fn func(Change)) func()      { return s.registry.Subscribe(fn) }

// Merge entry points. Each runs the window policy afterwards so the
// retained-message ceiling holds after every mutation.

func (s *Store) ApplyMessageUpdated(snapshot types.Message) {
	s.registry.update(snapshot.SessionID, func(state *SessionState) ChangeReason {
		reason := applyMessageUpdated(state, snapshot)
		s.window.enforce(state)
		return reason
	})
}

func (s *Store) ApplyPartUpdated(part types.Part) {
	s.registry.update(part.SessionID, func(state *SessionState) ChangeReason {
		reason := applyPartUpdated(state, part)
		s.window.enforce(state)
		return reason
	})
}

func (s *Store) ApplyPartRemoved(evt types.PartRemovedEvent) {
	s.registry.update(evt.SessionID, func(state *SessionState) ChangeReason {
		return applyPartRemoved(state, evt)
	})
}

func (s *Store) ApplySessionIdle(sessionID string) {
	s.registry.update(sessionID, func(state *SessionState) ChangeReason {
		return applySessionIdle(state)
	})
}

func (s *Store) ApplySessionError(evt types.SessionErrorEvent) {
	s.registry.update(evt.SessionID, func(state *SessionState) ChangeReason {
		return applySessionError(state, evt)
	})
}

func (s *Store) ApplySessionUpdated(session types.Session) {
	s.registry.update(session.ID, func(state *SessionState) ChangeReason {
		return applySessionUpdated(state, session)
	})
}

// Revert operations.

func (s *Store) Revert(sessionID string, toIndex int) error {
	var opErr error
	s.registry.update(sessionID, func(state *SessionState) ChangeReason {
		if err := revertTo(state, toIndex); err != nil {
			opErr = err
			return ""
		}
		return ChangeRevert
	})
	if opErr != nil {
		s.logger.Debug("revert rejected",
			logging.F("session", sessionID),
			logging.F("index", toIndex),
			logging.F("err", opErr))
	}
	return opErr
}

func (s *Store) Redo(sessionID string) error {
	var opErr error
	s.registry.update(sessionID, func(state *SessionState) ChangeReason {
		if err := redoStep(state); err != nil {
			opErr = err
			return ""
		}
		s.window.enforce(state)
		return ChangeRevert
	})
	return opErr
}

func (s *Store) RedoAll(sessionID string) error {
	var opErr error
	s.registry.update(sessionID, func(state *SessionState) ChangeReason {
		if err := redoAll(state); err != nil {
			opErr = err
			return ""
		}
		s.window.enforce(state)
		return ChangeRevert
	})
	return opErr
}

func (s *Store) CanRedo(sessionID string) bool {
	snap, ok := s.registry.Get(sessionID)
	return ok && snap.CanRedo
}

func (s *Store) RevertSteps(sessionID string) int {
	snap, ok := s.registry.Get(sessionID)
	if !ok {
		return 0
	}
	return snap.RevertSteps
}

// MarkOlderLoaded advances the session's backward-pagination cursor after
// the UI fetched count older messages. The cursor only moves on these
// explicit requests.
func (s *Store) MarkOlderLoaded(sessionID string, count int) {
	if count <= 0 {
		return
	}
	s.registry.update(sessionID, func(state *SessionState) ChangeReason {
		state.HistoryCursor += count
		return ChangeMeta
	})
}

func (s *Store) forwardPermission(fn func(types.PermissionEvent)) func(types.PermissionEvent) {
	return func(evt types.PermissionEvent) {
		if fn == nil {
			return
		}
		if evt.SessionID != s.registry.Current() {
			return
		}
		fn(evt)
	}
}

func (s *Store) forwardQuestion(fn func(types.QuestionEvent)) func(types.QuestionEvent) {
	return func(evt types.QuestionEvent) {
		if fn == nil {
			return
		}
		if evt.SessionID != s.registry.Current() {
			return
		}
		fn(evt)
	}
}
