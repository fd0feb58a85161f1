package store

import "sync"

type ChangeReason string

const (
	ChangeMessages ChangeReason = "messages"
	ChangeParts    ChangeReason = "parts"
	ChangeStatus   ChangeReason = "status"
	ChangeRevert   ChangeReason = "revert"
	ChangeMeta     ChangeReason = "meta"
)

// Change describes one mutation fanned out to observers.
type Change struct {
	SessionID string
	Reason    ChangeReason
}

// Registry is the process-wide map from session id to SessionState, and the
// only shared mutable resource of the store. States are created lazily on
// first reference and retained for the process lifetime.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*SessionState
	current  string
	nextSub  int
	subs     map[int]func(Change)
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: map[string]*SessionState{},
		subs:     map[int]func(Change){},
	}
}

// GetOrCreate returns a snapshot of the session's state, creating it empty
// and idle on first reference.
func (r *Registry) GetOrCreate(sessionID string) Snapshot {
	r.mu.Lock()
	state := r.getOrCreateLocked(sessionID)
	snap := state.snapshot()
	r.mu.Unlock()
	return snap
}

// Get is the non-creating read.
func (r *Registry) Get(sessionID string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.sessions[sessionID]
	if !ok {
		return Snapshot{}, false
	}
	return state.snapshot(), true
}

// SetCurrent marks the session the UI is viewing, creating its state if
// this is the first reference.
func (r *Registry) SetCurrent(sessionID string) {
	r.mu.Lock()
	if sessionID != "" {
		r.getOrCreateLocked(sessionID)
	}
	r.current = sessionID
	r.mu.Unlock()
}

// Current returns the session the UI is viewing, or "" when none. It is
// read fresh at every dispatch so a mid-stream session switch is observed
// by the next event.
func (r *Registry) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Subscribe registers a change observer. Observers run synchronously after
// each mutation, outside the registry lock. The returned func unsubscribes
// and is idempotent.
func (r *Registry) Subscribe(fn func(Change)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// update funnels every SessionState mutation through one place. fn returns
// the change reason to broadcast, or "" to suppress notification (no-op
// mutations).
func (r *Registry) update(sessionID string, fn func(*SessionState) ChangeReason) {
	r.mu.Lock()
	state := r.getOrCreateLocked(sessionID)
	reason := fn(state)
	var observers []func(Change)
	if reason != "" {
		observers = make([]func(Change), 0, len(r.subs))
		for _, sub := range r.subs {
			observers = append(observers, sub)
		}
	}
	r.mu.Unlock()

	if reason == "" {
		return
	}
	change := Change{SessionID: sessionID, Reason: reason}
	for _, observer := range observers {
		observer(change)
	}
}

func (r *Registry) getOrCreateLocked(sessionID string) *SessionState {
	state, ok := r.sessions[sessionID]
	if !ok {
		state = newSessionState(sessionID)
		r.sessions[sessionID] = state
	}
	return state
}
