package client

import "relay/internal/types"

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version,omitempty"`
}

type SessionsResponse struct {
	Sessions []*types.Session `json:"sessions"`
}

type CreateSessionRequest struct {
	Title     string `json:"title,omitempty"`
	Directory string `json:"directory,omitempty"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type SendMessageResponse struct {
	MessageID string `json:"message_id"`
}

type MessagesResponse struct {
	Messages []*types.Message `json:"messages"`
}

type PermissionReply struct {
	RequestID int    `json:"request_id"`
	Decision  string `json:"decision"`
}

type QuestionReply struct {
	RequestID int    `json:"request_id"`
	Answer    string `json:"answer,omitempty"`
}
