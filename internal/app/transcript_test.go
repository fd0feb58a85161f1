package app

import (
	"encoding/json"
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"

	"relay/internal/store"
	"relay/internal/types"
)

func snapshotWith(messages ...*types.Message) store.Snapshot {
	return store.Snapshot{ID: "s1", Messages: messages}
}

func textMessage(role types.MessageRole, text string) *types.Message {
	return &types.Message{
		ID:        "m1",
		SessionID: "s1",
		Role:      role,
		Status:    types.MessageStatusComplete,
		Parts: []*types.Part{
			{ID: "p1", Kind: types.PartKindText, Text: text},
		},
	}
}

func TestRenderTranscriptEmpty(t *testing.T) {
	out := renderTranscript(snapshotWith(), 80)
	if !strings.Contains(out, "No messages yet") {
		t.Fatalf("expected empty-state hint, got %q", out)
	}
}

func TestRenderTranscriptShowsRolesAndText(t *testing.T) {
	user := textMessage(types.MessageRoleUser, "hello there")
	agent := textMessage(types.MessageRoleAssistant, "general reply")
	agent.ID = "m2"

	out := xansi.Strip(renderTranscript(snapshotWith(user, agent), 80))
	if !strings.Contains(out, "You") || !strings.Contains(out, "Agent") {
		t.Fatalf("expected role labels, got %q", out)
	}
	if !strings.Contains(out, "hello there") || !strings.Contains(out, "general reply") {
		t.Fatalf("expected message text, got %q", out)
	}
}

func TestRenderTranscriptNotices(t *testing.T) {
	snap := snapshotWith(textMessage(types.MessageRoleUser, "hi"))
	snap.Trimmed = 12
	snap.RevertSteps = 2

	out := renderTranscript(snap, 80)
	if !strings.Contains(out, "12 earlier messages trimmed") {
		t.Fatalf("expected trim notice, got %q", out)
	}
	if !strings.Contains(out, "2 revert step(s) pending") {
		t.Fatalf("expected revert notice, got %q", out)
	}
}

func TestRenderTranscriptStreamingPlaceholder(t *testing.T) {
	msg := &types.Message{
		ID:        "m1",
		SessionID: "s1",
		Role:      types.MessageRoleAssistant,
		Status:    types.MessageStatusStreaming,
	}
	out := renderTranscript(snapshotWith(msg), 80)
	if !strings.Contains(out, "streaming") {
		t.Fatalf("expected streaming marker, got %q", out)
	}
}

func TestRenderPartToolSummaries(t *testing.T) {
	payload, _ := json.Marshal(toolPayload{Name: "bash", Status: "running"})
	tool := &types.Part{ID: "p1", Kind: types.PartKindTool, Payload: payload}
	out := renderPart(tool, 80)
	if !strings.Contains(out, "bash") || !strings.Contains(out, "running") {
		t.Fatalf("expected tool summary, got %q", out)
	}

	editPayload, _ := json.Marshal(fileEditPayload{Path: "internal/app/model.go"})
	edit := &types.Part{ID: "p2", Kind: types.PartKindFileEdit, Payload: editPayload}
	if out := renderPart(edit, 80); !strings.Contains(out, "internal/app/model.go") {
		t.Fatalf("expected edit path, got %q", out)
	}
}

func TestFirstLinesTruncates(t *testing.T) {
	text := strings.Repeat("line\n", 20)
	out := firstLines(strings.TrimRight(text, "\n"), 8)
	if !strings.Contains(out, "12 more lines") {
		t.Fatalf("expected truncation note, got %q", out)
	}
}

func TestPlainMessageTextSkipsNonText(t *testing.T) {
	msg := &types.Message{
		Parts: []*types.Part{
			{Kind: types.PartKindReasoning, Text: "thinking"},
			{Kind: types.PartKindText, Text: "answer"},
		},
	}
	if got := plainMessageText(msg); got != "answer" {
		t.Fatalf("expected text parts only, got %q", got)
	}
}
