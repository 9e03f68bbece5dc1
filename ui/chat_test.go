package ui

import (
	"strings"
	"testing"
	"time"

	"chatclient/chat"
)

func TestFormatDateRelative(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-time.Hour), "Today"},
		{now.AddDate(0, 0, -1), "Yesterday"},
		{time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), "March 2"},
		{time.Date(2023, 12, 31, 9, 0, 0, 0, time.UTC), "December 31, 2023"},
	}
	for _, tt := range tests {
		if got := formatDateRelative(tt.t, now); got != tt.want {
			t.Errorf("formatDateRelative(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestFormatMessages(t *testing.T) {
	sent := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	msgs := []chat.MessageView{
		{Own: true, Sender: "alice", Text: "hi [red]bob", Time: "12:00:00", SentAt: sent},
		{Sender: "bob", Text: "report.pdf", Time: "12:01:00", SentAt: sent, File: true, Icon: "📄", Size: "1.5 KB", SavedTo: "/tmp/report.pdf"},
	}

	out := formatMessages(msgs, true, 40)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected a date separator and two messages, got %q", out)
	}
	if !strings.Contains(lines[1], "→ hi [red[]bob") {
		t.Errorf("Expected escaped own message, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "bob:") || !strings.Contains(lines[2], "📄 report.pdf") || !strings.Contains(lines[2], "1.5 KB") {
		t.Errorf("Expected attachment line from bob, got %q", lines[2])
	}
	if !strings.Contains(lines[2], "saved") {
		t.Errorf("Expected saved marker, got %q", lines[2])
	}

	if out := formatMessages(nil, false, 40); !strings.Contains(out, "No messages yet") {
		t.Errorf("Expected empty placeholder, got %q", out)
	}
}

func TestChatItemText(t *testing.T) {
	if got := chatItemText(chat.ChatItem{Name: "team", Group: true, Active: true}); !strings.Contains(got, "▶") || !strings.Contains(got, "#") {
		t.Errorf("Unexpected group row %q", got)
	}
	if got := chatItemText(chat.ChatItem{Name: "bob"}); strings.Contains(got, "▶") || !strings.HasSuffix(got, "bob") {
		t.Errorf("Unexpected direct row %q", got)
	}
}
