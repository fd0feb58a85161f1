package app

import (
	"context"

	"relay/internal/client"
	"relay/internal/types"
)

type SessionAPI interface {
	ListSessions(ctx context.Context) ([]*types.Session, error)
	CreateSession(ctx context.Context, req client.CreateSessionRequest) (*types.Session, error)
	SendMessage(ctx context.Context, id string, req client.SendMessageRequest) (*client.SendMessageResponse, error)
	OlderMessages(ctx context.Context, id, before string, limit int) ([]*types.Message, error)
	RespondPermission(ctx context.Context, id string, reply client.PermissionReply) error
	AnswerQuestion(ctx context.Context, id string, reply client.QuestionReply) error
	RejectQuestion(ctx context.Context, id string, requestID int) error
	Interrupt(ctx context.Context, id string) error
}

type ClientAPI struct {
	client *client.Client
}

func NewClientAPI(client *client.Client) *ClientAPI {
	return &ClientAPI{client: client}
}

func (a *ClientAPI) ListSessions(ctx context.Context) ([]*types.Session, error) {
	return a.client.ListSessions(ctx)
}

func (a *ClientAPI) CreateSession(ctx context.Context, req client.CreateSessionRequest) (*types.Session, error) {
	return a.client.CreateSession(ctx, req)
}

func (a *ClientAPI) SendMessage(ctx context.Context, id string, req client.SendMessageRequest) (*client.SendMessageResponse, error) {
	return a.client.SendMessage(ctx, id, req)
}

func (a *ClientAPI) OlderMessages(ctx context.Context, id, before string, limit int) ([]*types.Message, error) {
	return a.client.OlderMessages(ctx, id, before, limit)
}

func (a *ClientAPI) RespondPermission(ctx context.Context, id string, reply client.PermissionReply) error {
	return a.client.RespondPermission(ctx, id, reply)
}

func (a *ClientAPI) AnswerQuestion(ctx context.Context, id string, reply client.QuestionReply) error {
	return a.client.AnswerQuestion(ctx, id, reply)
}

func (a *ClientAPI) RejectQuestion(ctx context.Context, id string, requestID int) error {
	return a.client.RejectQuestion(ctx, id, requestID)
}

func (a *ClientAPI) Interrupt(ctx context.Context, id string) error {
	return a.client.Interrupt(ctx, id)
}
