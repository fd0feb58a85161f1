package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"relay/internal/types"
)

func TestListSessionsSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(SessionsResponse{
			Sessions: []*types.Session{{ID: "s1", Title: "First"}},
		})
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "secret")
	sessions, err := c.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if len(sessions) != 1 || sessions[0].ID != "s1" {
		t.Fatalf("unexpected sessions: %#v", sessions)
	}
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/sessions/s1/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Text != "hello" {
			t.Errorf("unexpected text: %q", req.Text)
		}
		_ = json.NewEncoder(w).Encode(SendMessageResponse{MessageID: "m1"})
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "secret")
	resp, err := c.SendMessage(context.Background(), "s1", SendMessageRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if resp.MessageID != "m1" {
		t.Fatalf("unexpected message id: %s", resp.MessageID)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"no such session"}`))
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "secret")
	_, err := c.GetSession(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	apiErr := AsAPIError(err)
	if apiErr == nil {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "no such session" {
		t.Fatalf("unexpected api error: %#v", apiErr)
	}
}
