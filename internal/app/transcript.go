package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"relay/internal/store"
	"relay/internal/types"
)

type toolPayload struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Output string `json:"output"`
}

type fileEditPayload struct {
	Path string `json:"path"`
}

// renderTranscript turns a session snapshot into the viewport content. The
// snapshot is already windowed and revert-filtered by the store; this only
// formats what is visible.
func renderTranscript(snap store.Snapshot, width int) string {
	if width <= 0 {
		width = 80
	}
	var blocks []string
	if snap.Trimmed > 0 {
		blocks = append(blocks, trimNoticeStyle.Render(fmt.Sprintf("… %d earlier messages trimmed", snap.Trimmed)))
	}
	for _, msg := range snap.Messages {
		blocks = append(blocks, renderMessage(msg, width))
	}
	if snap.RevertSteps > 0 {
		blocks = append(blocks, revertNoticeStyle.Render(fmt.Sprintf("%d revert step(s) pending, ctrl+y to restore", snap.RevertSteps)))
	}
	if len(blocks) == 0 {
		return helpStyle.Render("No messages yet. Type below and press enter.")
	}
	return strings.Join(blocks, "\n\n")
}

func renderMessage(msg *types.Message, width int) string {
	lines := []string{messageLabel(msg)}
	for _, part := range msg.Parts {
		rendered := renderPart(part, width)
		if rendered == "" {
			continue
		}
		lines = append(lines, rendered)
	}
	if len(lines) == 1 {
		lines = append(lines, statusStyle.Render("…"))
	}
	return strings.Join(lines, "\n")
}

func messageLabel(msg *types.Message) string {
	var label string
	switch msg.Role {
	case types.MessageRoleUser:
		label = userLabelStyle.Render("You")
	case types.MessageRoleAssistant:
		label = agentLabelStyle.Render("Agent")
	default:
		label = systemLabelStyle.Render("System")
	}
	switch msg.Status {
	case types.MessageStatusStreaming:
		label += statusStyle.Render(" (streaming)")
	case types.MessageStatusErrored:
		label += errorStyle.Render(" (errored)")
	case types.MessageStatusAborted:
		label += statusStyle.Render(" (aborted)")
	}
	return label
}

func renderPart(part *types.Part, width int) string {
	switch part.Kind {
	case types.PartKindText:
		return renderMarkdown(part.Text, width)
	case types.PartKindReasoning:
		text := strings.TrimSpace(part.Text)
		if text == "" {
			return ""
		}
		return reasoningStyle.Render(renderMarkdown(escapeMarkdown(text), width))
	case types.PartKindTool:
		var payload toolPayload
		_ = json.Unmarshal(part.Payload, &payload)
		name := payload.Name
		if name == "" {
			name = "tool"
		}
		line := "⚙ " + name
		if payload.Status != "" {
			line += " [" + payload.Status + "]"
		}
		return toolStyle.Render(line)
	case types.PartKindToolResult:
		var payload toolPayload
		_ = json.Unmarshal(part.Payload, &payload)
		out := strings.TrimSpace(payload.Output)
		if out == "" {
			out = strings.TrimSpace(part.Text)
		}
		if out == "" {
			return ""
		}
		return toolStyle.Render(firstLines(out, 8))
	case types.PartKindFileEdit:
		var payload fileEditPayload
		_ = json.Unmarshal(part.Payload, &payload)
		if payload.Path == "" {
			return toolStyle.Render("✎ file edit")
		}
		return toolStyle.Render("✎ " + payload.Path)
	default:
		return ""
	}
}

func firstLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	kept := lines[:n]
	return strings.Join(kept, "\n") + fmt.Sprintf("\n… %d more lines", len(lines)-n)
}

// plainMessageText is what the copy action puts on the clipboard: part text
// only, no styling.
func plainMessageText(msg *types.Message) string {
	if msg == nil {
		return ""
	}
	var out []string
	for _, part := range msg.Parts {
		if part.Kind != types.PartKindText || strings.TrimSpace(part.Text) == "" {
			continue
		}
		out = append(out, part.Text)
	}
	return strings.Join(out, "\n")
}
