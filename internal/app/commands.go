package app

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"relay/internal/client"
	"relay/internal/store"
	"relay/internal/types"
)

const tickInterval = 100 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func fetchSessionsCmd(api SessionAPI, repo store.Repository) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		sessions, err := api.ListSessions(ctx)
		if err != nil {
			return sessionsMsg{err: err}
		}
		var meta []*types.SessionMeta
		if repo != nil {
			meta, _ = repo.SessionMeta().List(ctx)
		}
		return sessionsMsg{sessions: sessions, meta: meta}
	}
}

func createSessionCmd(api SessionAPI, directory string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		session, err := api.CreateSession(ctx, client.CreateSessionRequest{Directory: directory})
		return sessionCreatedMsg{session: session, err: err}
	}
}

func sendMessageCmd(api SessionAPI, sessionID, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		resp, err := api.SendMessage(ctx, sessionID, client.SendMessageRequest{Text: text})
		msg := sendResultMsg{sessionID: sessionID, err: err}
		if resp != nil {
			msg.messageID = resp.MessageID
		}
		return msg
	}
}

func loadOlderCmd(api SessionAPI, sessionID, before string, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		messages, err := api.OlderMessages(ctx, sessionID, before, limit)
		return olderMessagesMsg{sessionID: sessionID, messages: messages, err: err}
	}
}

func respondPermissionCmd(api SessionAPI, sessionID string, requestID int, decision string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		err := api.RespondPermission(ctx, sessionID, client.PermissionReply{RequestID: requestID, Decision: decision})
		return promptRepliedMsg{sessionID: sessionID, requestID: requestID, err: err}
	}
}

func answerQuestionCmd(api SessionAPI, sessionID string, requestID int, answer string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		err := api.AnswerQuestion(ctx, sessionID, client.QuestionReply{RequestID: requestID, Answer: answer})
		return promptRepliedMsg{sessionID: sessionID, requestID: requestID, err: err}
	}
}

func rejectQuestionCmd(api SessionAPI, sessionID string, requestID int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		err := api.RejectQuestion(ctx, sessionID, requestID)
		return promptRepliedMsg{sessionID: sessionID, requestID: requestID, err: err}
	}
}

func interruptCmd(api SessionAPI, sessionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		err := api.Interrupt(ctx, sessionID)
		return interruptResultMsg{sessionID: sessionID, err: err}
	}
}

func saveAppStateCmd(repo store.Repository, state types.AppState) tea.Cmd {
	return func() tea.Msg {
		if repo == nil {
			return appStateSavedMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		err := repo.AppState().Save(ctx, &state)
		return appStateSavedMsg{err: err}
	}
}

func touchSessionMetaCmd(repo store.Repository, sessionID, title string) tea.Cmd {
	return func() tea.Msg {
		if repo == nil || sessionID == "" {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		now := time.Now().UTC()
		_, _ = repo.SessionMeta().Upsert(ctx, &types.SessionMeta{
			SessionID:    sessionID,
			Title:        title,
			LastActiveAt: &now,
		})
		return nil
	}
}
