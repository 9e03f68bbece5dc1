package chat

import (
	"strings"
	"time"

	"chatclient/models"
)

// ChatItem is one row of the chat list.
type ChatItem struct {
	ID      string
	Name    string
	Preview string
	Group   bool
	Active  bool
	Hidden  bool
}

// ChatWindow is the header of the open conversation plus its messages.
type ChatWindow struct {
	ID         string
	Title      string
	Group      bool
	MemberInfo string
	Members    []models.User
	Admin      string
	Messages   []MessageView
}

// MessageView is a message ready for display. Text fields are already stripped
// of markup.
type MessageView struct {
	ID       string
	Own      bool
	Sender   string
	Text     string
	Time     string
	Edited   bool
	File     bool
	FileID   string
	Icon     string
	Size     string
	SavedTo  string
	SentAt   time.Time
	MimeType string
}

// timeLayout is a locale-neutral clock time.
const timeLayout = "15:04:05"

func buildChatItems(s State) []ChatItem {
	selfID := ""
	if s.User != nil {
		selfID = s.User.ID
	}
	currentID := ""
	if s.Current != nil {
		currentID = s.Current.ID
	}
	items := make([]ChatItem, 0, len(s.Conversations))
	for _, conv := range s.Conversations {
		items = append(items, ChatItem{
			ID:      conv.ID,
			Name:    PlainText(ChatName(conv, selfID)),
			Preview: Preview(conv),
			Group:   conv.IsGroup(),
			Active:  conv.ID == currentID,
		})
	}
	return FilterItems(items, s.Filter)
}

// FilterItems marks items whose name does not contain query (case-insensitive)
// as hidden. An empty query shows everything.
func FilterItems(items []ChatItem, query string) []ChatItem {
	q := strings.ToLower(strings.TrimSpace(query))
	for i := range items {
		items[i].Hidden = q != "" && !strings.Contains(strings.ToLower(items[i].Name), q)
	}
	return items
}

func buildChatWindow(s State) ChatWindow {
	conv := *s.Current
	selfID := ""
	if s.User != nil {
		selfID = s.User.ID
	}
	win := ChatWindow{
		ID:       conv.ID,
		Title:    PlainText(ChatTitle(conv, selfID)),
		Group:    conv.IsGroup(),
		Messages: buildMessages(s),
	}
	if win.Group {
		win.MemberInfo = MemberInfo(conv)
		for _, p := range conv.Participants {
			win.Members = append(win.Members, p.User)
		}
		if conv.GroupAdmin != nil {
			win.Admin = conv.GroupAdmin.ID
		}
	}
	return win
}

func buildMessages(s State) []MessageView {
	conv := s.Current
	selfID := ""
	if s.User != nil {
		selfID = s.User.ID
	}
	out := make([]MessageView, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		mv := MessageView{
			ID:      m.ID,
			Own:     m.Sender.ID == selfID,
			Sender:  PlainText(m.Sender.Username),
			Text:    PlainText(m.Content),
			Time:    m.SentAt.Local().Format(timeLayout),
			Edited:  m.Edited,
			SentAt:  m.SentAt,
		}
		if m.IsAttachment() && m.File != nil {
			mv.File = true
			mv.FileID = m.File.ID
			mv.Icon = FileIcon(m.ContentType)
			mv.Size = FormatFileSize(m.File.SizeBytes)
			mv.MimeType = m.File.MimeType
			mv.SavedTo = s.Downloads[m.File.ID]
		}
		out = append(out, mv)
	}
	return out
}
