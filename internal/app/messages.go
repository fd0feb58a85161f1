package app

import (
	"relay/internal/types"
)

type tickMsg struct{}

type sessionsMsg struct {
	sessions []*types.Session
	meta     []*types.SessionMeta
	err      error
}

type sessionCreatedMsg struct {
	session *types.Session
	err     error
}

type sendResultMsg struct {
	sessionID string
	messageID string
	err       error
}

type olderMessagesMsg struct {
	sessionID string
	messages  []*types.Message
	err       error
}

type appStateSavedMsg struct {
	err error
}

type promptRepliedMsg struct {
	sessionID string
	requestID int
	err       error
}

type interruptResultMsg struct {
	sessionID string
	err       error
}

type permissionPromptMsg struct {
	evt types.PermissionEvent
}

type questionPromptMsg struct {
	evt types.QuestionEvent
}

type promptClearedMsg struct {
	requestID int
}
