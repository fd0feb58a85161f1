package app

import (
	tea "charm.land/bubbletea/v2"

	"relay/internal/store"
	"relay/internal/types"
)

// PromptInbox bridges the store's prompt callbacks into bubbletea messages.
// The store dispatches on its own goroutine; the inbox buffers so dispatch
// never blocks on the UI.
type PromptInbox struct {
	ch chan tea.Msg
}

func NewPromptInbox() *PromptInbox {
	return &PromptInbox{ch: make(chan tea.Msg, 64)}
}

func (p *PromptInbox) Handlers() store.PromptHandlers {
	return store.PromptHandlers{
		PermissionAsked: func(evt types.PermissionEvent) {
			p.push(permissionPromptMsg{evt: evt})
		},
		PermissionReplied: func(evt types.PermissionEvent) {
			p.push(promptClearedMsg{requestID: evt.RequestID})
		},
		QuestionAsked: func(evt types.QuestionEvent) {
			p.push(questionPromptMsg{evt: evt})
		},
		QuestionReplied: func(evt types.QuestionEvent) {
			p.push(promptClearedMsg{requestID: evt.RequestID})
		},
		QuestionRejected: func(evt types.QuestionEvent) {
			p.push(promptClearedMsg{requestID: evt.RequestID})
		},
	}
}

func (p *PromptInbox) push(msg tea.Msg) {
	if p == nil {
		return
	}
	select {
	case p.ch <- msg:
	default:
	}
}

func (p *PromptInbox) drain() []tea.Msg {
	if p == nil {
		return nil
	}
	var out []tea.Msg
	for {
		select {
		case msg := <-p.ch:
			out = append(out, msg)
		default:
			return out
		}
	}
}
