package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"relay/internal/types"
)

func TestEventsDecodesFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("unexpected accept header: %s", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"session.idle\",\"properties\":{\"session_id\":\"s1\"}}\n\n")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "data: {\"type\":\"part.removed\",\"properties\":{\"session_id\":\"s1\",\"message_id\":\"m1\",\"part_id\":\"p1\"}}\n\n")
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "secret")
	events, cancel, err := c.Events(context.Background())
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer cancel()

	var got []types.StreamEvent
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				if len(got) != 2 {
					t.Fatalf("expected 2 events, got %#v", got)
				}
				if got[0].Type != types.EventSessionIdle || got[1].Type != types.EventPartRemoved {
					t.Fatalf("unexpected event order: %#v", got)
				}
				return
			}
			got = append(got, event)
		case <-deadline:
			t.Fatalf("timed out waiting for events, got %#v", got)
		}
	}
}

func TestEventsCancelStopsStream(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"session.idle\",\"properties\":{\"session_id\":\"s1\"}}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer server.Close()
	defer close(release)

	c := NewWithBaseURL(server.URL, "secret")
	events, cancel, err := c.Events(context.Background())
	if err != nil {
		t.Fatalf("events: %v", err)
	}

	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for first event")
	}

	cancel()

	select {
	case _, ok := <-events:
		if ok {
			// A frame may have been buffered before cancel; the channel
			// must still close promptly afterwards.
			select {
			case _, ok := <-events:
				if ok {
					t.Fatalf("expected channel close after cancel")
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("channel not closed after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}
