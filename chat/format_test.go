package chat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatclient/models"
)

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{-5, "0 B"},
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1500, "1.46 KB"},
		{1536, "1.5 KB"},
		{1 << 20, "1 MB"},
		{1 << 30, "1 GB"},
		{5 << 40, "5120 GB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.bytes); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestFileIcon(t *testing.T) {
	tests := map[string]string{
		models.ContentImage: "🖼️",
		models.ContentVideo: "🎥",
		models.ContentFile:  "📄",
		models.ContentText:  "📝",
		models.ContentAudio: "📎",
		"":                  "📎",
	}
	for ct, want := range tests {
		if got := FileIcon(ct); got != want {
			t.Errorf("FileIcon(%q) = %q, want %q", ct, got, want)
		}
	}
}

func TestChatName(t *testing.T) {
	alice := models.User{ID: "a", Username: "alice"}
	bob := models.User{ID: "b", Username: "bob"}

	direct := models.Conversation{Type: models.ConversationDirect, Participants: []models.Participant{{User: alice}, {User: bob}}}
	if got := ChatName(direct, alice.ID); got != "bob" {
		t.Errorf("Expected bob, got %q", got)
	}
	if got := ChatName(direct, bob.ID); got != "alice" {
		t.Errorf("Expected alice, got %q", got)
	}

	alone := models.Conversation{Type: models.ConversationDirect, Participants: []models.Participant{{User: alice}}}
	if got := ChatName(alone, alice.ID); got != "Unknown" {
		t.Errorf("Expected Unknown, got %q", got)
	}

	if got := ChatName(models.Conversation{Type: models.ConversationGroup}, alice.ID); got != "Group Chat" {
		t.Errorf("Expected Group Chat, got %q", got)
	}
	if got := ChatName(models.Conversation{Type: models.ConversationGroup, Name: "team"}, alice.ID); got != "team" {
		t.Errorf("Expected team, got %q", got)
	}
}

func TestChatTitle(t *testing.T) {
	alice := models.User{ID: "a", Username: "alice"}
	bob := models.User{ID: "b", Username: "bob"}

	alone := models.Conversation{Type: models.ConversationDirect, Participants: []models.Participant{{User: alice}}}
	if got := ChatTitle(alone, alice.ID); got != "Chat" {
		t.Errorf("Expected Chat, got %q", got)
	}
	direct := models.Conversation{Type: models.ConversationDirect, Participants: []models.Participant{{User: alice}, {User: bob}}}
	if got := ChatTitle(direct, alice.ID); got != "bob" {
		t.Errorf("Expected bob, got %q", got)
	}
	if got := ChatTitle(models.Conversation{Type: models.ConversationGroup}, alice.ID); got != "Group Chat" {
		t.Errorf("Expected Group Chat, got %q", got)
	}

	win := buildChatWindow(State{User: &alice, Current: &alone})
	if win.Title != "Chat" {
		t.Errorf("Expected window title Chat, got %q", win.Title)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview(models.Conversation{}); got != "No messages yet" {
		t.Errorf("Expected placeholder, got %q", got)
	}

	long := strings.Repeat("é", 50)
	conv := models.Conversation{Messages: []models.Message{{Content: "first"}, {Content: long}}}
	if got := Preview(conv); got != strings.Repeat("é", 40) {
		t.Errorf("Expected 40 runes of the last message, got %q", got)
	}
}

func TestPresenceText(t *testing.T) {
	if got := PresenceText(models.User{IsOnline: true, OfflineMinutes: 9}); got != "Online" {
		t.Errorf("Expected Online, got %q", got)
	}
	if got := PresenceText(models.User{OfflineMinutes: 12}); got != "Offline: 12" {
		t.Errorf("Expected Offline: 12, got %q", got)
	}
}

func TestPlainText(t *testing.T) {
	tests := map[string]string{
		"hello":                          "hello",
		"<script>alert(1)</script>hi":    "hi",
		"<b>bold</b> &amp; plain":        "bold & plain",
		"a < b":                          "a < b",
		`<img src=x onerror="alert(1)">`: "",
	}
	for in, want := range tests {
		if got := PlainText(in); got != want {
			t.Errorf("PlainText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterItems(t *testing.T) {
	items := []ChatItem{{Name: "bob"}, {Name: "Carol"}}

	for _, it := range FilterItems(items, "car") {
		if it.Hidden != (it.Name == "bob") {
			t.Errorf("Unexpected visibility for %s: hidden=%v", it.Name, it.Hidden)
		}
	}
	for _, it := range FilterItems(items, "") {
		if it.Hidden {
			t.Errorf("Expected %s visible with empty filter", it.Name)
		}
	}
}

func TestSaveFileNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	path, err := SaveFile(dir, "../../etc/a.txt", []byte("new"))
	if err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	if path != filepath.Join(dir, "a (1).txt") {
		t.Errorf("Expected a (1).txt, got %s", path)
	}

	old, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	if string(old) != "old" {
		t.Errorf("Existing file was overwritten: %q", old)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected no leftover temp files, got %d entries", len(entries))
	}

	if path, err := SaveFile(dir, "", []byte("x")); err != nil || filepath.Base(path) != "download" {
		t.Errorf("Expected fallback name, got %s (%v)", path, err)
	}
}

func TestNotifyActivityCoalesces(t *testing.T) {
	c := New(nil, nil, nil, Options{})
	for i := 0; i < 100; i++ {
		c.NotifyActivity()
	}
	if n := len(c.activity); n != 1 {
		t.Errorf("Expected one pending report, got %d", n)
	}
}
