package app

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"

	"relay/internal/client"
	"relay/internal/store"
	"relay/internal/types"
)

var _ tea.Model = (*Model)(nil)

type fakeSessionAPI struct {
	sessions    []*types.Session
	sent        []string
	sentTo      string
	permissions []client.PermissionReply
	answers     []client.QuestionReply
	rejected    []int
	interrupted []string
	older       []*types.Message
}

func (f *fakeSessionAPI) ListSessions(ctx context.Context) ([]*types.Session, error) {
	return f.sessions, nil
}

func (f *fakeSessionAPI) CreateSession(ctx context.Context, req client.CreateSessionRequest) (*types.Session, error) {
	return &types.Session{ID: "s_new"}, nil
}

func (f *fakeSessionAPI) SendMessage(ctx context.Context, id string, req client.SendMessageRequest) (*client.SendMessageResponse, error) {
	f.sentTo = id
	f.sent = append(f.sent, req.Text)
	return &client.SendMessageResponse{MessageID: "m_sent"}, nil
}

func (f *fakeSessionAPI) OlderMessages(ctx context.Context, id, before string, limit int) ([]*types.Message, error) {
	return f.older, nil
}

func (f *fakeSessionAPI) RespondPermission(ctx context.Context, id string, reply client.PermissionReply) error {
	f.permissions = append(f.permissions, reply)
	return nil
}

func (f *fakeSessionAPI) AnswerQuestion(ctx context.Context, id string, reply client.QuestionReply) error {
	f.answers = append(f.answers, reply)
	return nil
}

func (f *fakeSessionAPI) RejectQuestion(ctx context.Context, id string, requestID int) error {
	f.rejected = append(f.rejected, requestID)
	return nil
}

func (f *fakeSessionAPI) Interrupt(ctx context.Context, id string) error {
	f.interrupted = append(f.interrupted, id)
	return nil
}

func newTestModel(api *fakeSessionAPI) *Model {
	st := store.New(store.Options{})
	inbox := NewPromptInbox()
	return NewModel(Options{API: api, Store: st, Inbox: inbox})
}

func ctrlKey(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

func TestModelSubmitSendsToCurrentSession(t *testing.T) {
	api := &fakeSessionAPI{}
	m := newTestModel(api)
	m.st.SetCurrent("s1")

	m.input.SetValue("hello agent")
	cmd := m.submitInput()
	if cmd == nil {
		t.Fatalf("expected send command")
	}
	msg, ok := cmd().(sendResultMsg)
	if !ok {
		t.Fatalf("expected sendResultMsg")
	}
	if msg.err != nil || msg.messageID != "m_sent" {
		t.Fatalf("unexpected result: %+v", msg)
	}
	if api.sentTo != "s1" || len(api.sent) != 1 || api.sent[0] != "hello agent" {
		t.Fatalf("unexpected send: to=%q sent=%v", api.sentTo, api.sent)
	}
	if m.input.Value() != "" {
		t.Fatalf("expected input cleared after submit")
	}
}

func TestModelSubmitWithoutSessionSetsStatus(t *testing.T) {
	m := newTestModel(&fakeSessionAPI{})
	m.input.SetValue("hello")
	if cmd := m.submitInput(); cmd != nil {
		t.Fatalf("expected no command without a session")
	}
	if m.status == "" {
		t.Fatalf("expected status hint")
	}
}

func TestModelRevertLastExchange(t *testing.T) {
	m := newTestModel(&fakeSessionAPI{})
	m.st.SetCurrent("s1")
	m.st.ApplyMessageUpdated(types.Message{ID: "m1", SessionID: "s1", Role: types.MessageRoleUser})
	m.st.ApplyMessageUpdated(types.Message{ID: "m2", SessionID: "s1", Role: types.MessageRoleAssistant})
	m.st.ApplyMessageUpdated(types.Message{ID: "m3", SessionID: "s1", Role: types.MessageRoleUser})
	m.st.ApplyMessageUpdated(types.Message{ID: "m4", SessionID: "s1", Role: types.MessageRoleAssistant})

	m.revertLastExchange()
	snap, _ := m.st.Get("s1")
	if len(snap.Messages) != 2 || snap.Messages[1].ID != "m2" {
		t.Fatalf("expected last exchange hidden, got %d messages", len(snap.Messages))
	}
	if !snap.CanRedo {
		t.Fatalf("expected redo to be available")
	}

	if _, cmd := m.handleKey(ctrlKey('y')); cmd != nil {
		t.Fatalf("expected redo to be handled locally")
	}
	snap, _ = m.st.Get("s1")
	if len(snap.Messages) != 4 {
		t.Fatalf("expected full restore, got %d messages", len(snap.Messages))
	}
}

func TestModelPermissionPromptKeys(t *testing.T) {
	api := &fakeSessionAPI{}
	m := newTestModel(api)
	m.st.SetCurrent("s1")
	m.pendingPermission = &types.PermissionEvent{SessionID: "s1", RequestID: 7, Title: "Run tests"}

	_, cmd := m.handleKey(tea.KeyPressMsg{Code: 'y', Text: "y"})
	if cmd == nil {
		t.Fatalf("expected reply command")
	}
	if msg, ok := cmd().(promptRepliedMsg); !ok || msg.err != nil {
		t.Fatalf("expected successful reply, got %#v", msg)
	}
	if len(api.permissions) != 1 || api.permissions[0].RequestID != 7 || api.permissions[0].Decision != "allow" {
		t.Fatalf("unexpected permission reply: %+v", api.permissions)
	}
}

func TestModelQuestionPromptKeys(t *testing.T) {
	api := &fakeSessionAPI{}
	m := newTestModel(api)
	m.st.SetCurrent("s1")
	m.pendingQuestion = &types.QuestionEvent{
		SessionID: "s1",
		RequestID: 3,
		Prompt:    "Which file?",
		Options:   []string{"a.go", "b.go"},
	}

	_, cmd := m.handleKey(tea.KeyPressMsg{Code: '2', Text: "2"})
	if cmd == nil {
		t.Fatalf("expected answer command")
	}
	cmd()
	if len(api.answers) != 1 || api.answers[0].Answer != "b.go" {
		t.Fatalf("unexpected answer: %+v", api.answers)
	}

	m.pendingQuestion = &types.QuestionEvent{SessionID: "s1", RequestID: 4}
	_, cmd = m.handleKey(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatalf("expected reject command")
	}
	cmd()
	if len(api.rejected) != 1 || api.rejected[0] != 4 {
		t.Fatalf("unexpected rejection: %v", api.rejected)
	}
}

func TestModelTickDrainsPromptInbox(t *testing.T) {
	m := newTestModel(&fakeSessionAPI{})
	m.st.SetCurrent("s1")

	handlers := m.inbox.Handlers()
	handlers.PermissionAsked(types.PermissionEvent{SessionID: "s1", RequestID: 9, Title: "Write file"})
	m.handleTick()
	if m.pendingPermission == nil || m.pendingPermission.RequestID != 9 {
		t.Fatalf("expected pending permission after tick")
	}

	handlers.PermissionReplied(types.PermissionEvent{SessionID: "s1", RequestID: 9})
	m.handleTick()
	if m.pendingPermission != nil {
		t.Fatalf("expected prompt cleared after reply")
	}
}

func TestModelViewRunsInAltScreen(t *testing.T) {
	m := newTestModel(&fakeSessionAPI{})
	view := m.View()
	if !view.AltScreen {
		t.Fatalf("expected alt screen view")
	}
	if view.Content == nil {
		t.Fatalf("expected view content")
	}
}

func TestModelSessionsMsgSelectsFirst(t *testing.T) {
	api := &fakeSessionAPI{}
	m := newTestModel(api)

	_, cmd := m.Update(sessionsMsg{sessions: []*types.Session{{ID: "s1", Title: "First"}}})
	if cmd == nil {
		t.Fatalf("expected selection side effects")
	}
	if m.currentSession() != "s1" {
		t.Fatalf("expected first session selected, got %q", m.currentSession())
	}
}
