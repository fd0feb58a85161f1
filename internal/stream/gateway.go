package stream

import (
	"context"
	"encoding/json"
	"sync"

	"relay/internal/logging"
	"relay/internal/types"
)

// Source opens the underlying event transport. The returned channel closes
// when the transport ends; the func cancels it. client.(*Client).Events
// satisfies this.
type Source func(ctx context.Context) (<-chan types.StreamEvent, func(), error)

// Handlers maps event kinds to callbacks. Nil entries drop that kind.
type Handlers struct {
	MessageUpdated    func(types.Message)
	PartUpdated       func(types.Part)
	PartRemoved       func(types.PartRemovedEvent)
	SessionIdle       func(types.SessionIdleEvent)
	SessionError      func(types.SessionErrorEvent)
	SessionUpdated    func(types.Session)
	PermissionAsked   func(types.PermissionEvent)
	PermissionReplied func(types.PermissionEvent)
	QuestionAsked     func(types.QuestionEvent)
	QuestionReplied   func(types.QuestionEvent)
	QuestionRejected  func(types.QuestionEvent)
}

// Gateway decodes raw stream events into the closed set of typed variants
// and dispatches them synchronously in delivery order. Unknown or malformed
// events are dropped with a log line, never propagated.
type Gateway struct {
	source Source
	logger logging.Logger
}

func NewGateway(source Source, logger logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Gateway{source: source, logger: logger}
}

// Subscribe opens the source and dispatches until the stream ends or the
// returned unsubscribe func is called. Unsubscribe is idempotent and
// guarantees no handler fires after it returns, even for events already
// buffered in the transport.
func (g *Gateway) Subscribe(ctx context.Context, handlers Handlers) (func(), error) {
	events, cancel, err := g.source(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	closed := false
	go func() {
		for event := range events {
			mu.Lock()
			if !closed {
				g.dispatch(event, handlers)
			}
			// Keep draining so the transport goroutine can exit.
			mu.Unlock()
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			// Taking the lock waits out any dispatch already in progress.
			mu.Lock()
			closed = true
			mu.Unlock()
			cancel()
		})
	}
	return unsubscribe, nil
}

func (g *Gateway) dispatch(event types.StreamEvent, handlers Handlers) {
	switch event.Type {
	case types.EventMessageUpdated:
		var payload types.MessageUpdatedEvent
		if !g.decode(event, &payload) {
			return
		}
		if payload.Message.ID == "" || payload.Message.SessionID == "" {
			g.drop(event, "missing message id or session id")
			return
		}
		if handlers.MessageUpdated != nil {
			handlers.MessageUpdated(payload.Message)
		}
	case types.EventPartUpdated:
		var payload types.PartUpdatedEvent
		if !g.decode(event, &payload) {
			return
		}
		part := payload.Part
		if part.ID == "" || part.MessageID == "" || part.SessionID == "" {
			g.drop(event, "missing part, message or session id")
			return
		}
		if handlers.PartUpdated != nil {
			handlers.PartUpdated(part)
		}
	case types.EventPartRemoved:
		var payload types.PartRemovedEvent
		if !g.decode(event, &payload) {
			return
		}
		if payload.PartID == "" || payload.MessageID == "" || payload.SessionID == "" {
			g.drop(event, "missing part, message or session id")
			return
		}
		if handlers.PartRemoved != nil {
			handlers.PartRemoved(payload)
		}
	case types.EventSessionIdle:
		var payload types.SessionIdleEvent
		if !g.decode(event, &payload) {
			return
		}
		if payload.SessionID == "" {
			g.drop(event, "missing session id")
			return
		}
		if handlers.SessionIdle != nil {
			handlers.SessionIdle(payload)
		}
	case types.EventSessionError:
		var payload types.SessionErrorEvent
		if !g.decode(event, &payload) {
			return
		}
		if payload.SessionID == "" {
			g.drop(event, "missing session id")
			return
		}
		if handlers.SessionError != nil {
			handlers.SessionError(payload)
		}
	case types.EventSessionUpdated:
		var payload types.SessionUpdatedEvent
		if !g.decode(event, &payload) {
			return
		}
		if payload.Session.ID == "" {
			g.drop(event, "missing session id")
			return
		}
		if handlers.SessionUpdated != nil {
			handlers.SessionUpdated(payload.Session)
		}
	case types.EventPermissionAsked, types.EventPermissionReplied:
		var payload types.PermissionEvent
		if !g.decode(event, &payload) {
			return
		}
		if payload.SessionID == "" {
			g.drop(event, "missing session id")
			return
		}
		if event.Type == types.EventPermissionAsked {
			if handlers.PermissionAsked != nil {
				handlers.PermissionAsked(payload)
			}
		} else if handlers.PermissionReplied != nil {
			handlers.PermissionReplied(payload)
		}
	case types.EventQuestionAsked, types.EventQuestionReplied, types.EventQuestionRejected:
		var payload types.QuestionEvent
		if !g.decode(event, &payload) {
			return
		}
		if payload.SessionID == "" {
			g.drop(event, "missing session id")
			return
		}
		switch event.Type {
		case types.EventQuestionAsked:
			if handlers.QuestionAsked != nil {
				handlers.QuestionAsked(payload)
			}
		case types.EventQuestionReplied:
			if handlers.QuestionReplied != nil {
				handlers.QuestionReplied(payload)
			}
		default:
			if handlers.QuestionRejected != nil {
				handlers.QuestionRejected(payload)
			}
		}
	default:
		g.drop(event, "unknown kind")
	}
}

func (g *Gateway) decode(event types.StreamEvent, out any) bool {
	if len(event.Properties) == 0 {
		g.drop(event, "empty payload")
		return false
	}
	if err := json.Unmarshal(event.Properties, out); err != nil {
		g.drop(event, err.Error())
		return false
	}
	return true
}

func (g *Gateway) drop(event types.StreamEvent, reason string) {
	g.logger.Warn("event dropped",
		logging.F("type", event.Type),
		logging.F("reason", reason))
}
