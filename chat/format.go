package chat

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"chatclient/models"

	"github.com/microcosm-cc/bluemonday"
)

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatFileSize renders byte counts as "1.5 KB" style strings using powers of
// 1024, at most two decimals and no trailing zeros.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	i, div := 0, int64(1)
	for i < len(sizeUnits)-1 && bytes >= div*1024 {
		div *= 1024
		i++
	}
	v := float64(bytes) / float64(div)
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// FileIcon picks the glyph shown next to an attachment.
func FileIcon(contentType string) string {
	switch contentType {
	case models.ContentImage:
		return "🖼️"
	case models.ContentVideo:
		return "🎥"
	case models.ContentFile:
		return "📄"
	case models.ContentText:
		return "📝"
	default:
		return "📎"
	}
}

// ChatName is the label for a conversation as seen by selfID.
func ChatName(conv models.Conversation, selfID string) string {
	if conv.IsGroup() {
		if conv.Name != "" {
			return conv.Name
		}
		return "Group Chat"
	}
	if other, ok := conv.OtherParticipant(selfID); ok && other.Username != "" {
		return other.Username
	}
	return "Unknown"
}

// ChatTitle is the chat window header: like ChatName, but a direct chat with
// nobody else in it is titled "Chat".
func ChatTitle(conv models.Conversation, selfID string) string {
	if !conv.IsGroup() {
		if other, ok := conv.OtherParticipant(selfID); !ok || other.Username == "" {
			return "Chat"
		}
	}
	return ChatName(conv, selfID)
}

const previewLen = 40

// Preview is the first 40 characters of the last message.
func Preview(conv models.Conversation) string {
	last, ok := conv.LastMessage()
	if !ok {
		return "No messages yet"
	}
	r := []rune(PlainText(last.Content))
	if len(r) > previewLen {
		r = r[:previewLen]
	}
	return string(r)
}

// PresenceText is "Online" or "Offline: <minutes>".
func PresenceText(u models.User) string {
	if u.IsOnline {
		return "Online"
	}
	return fmt.Sprintf("Offline: %d", u.OfflineMinutes)
}

// MemberInfo summarizes a group as "<n>/<limit> members • <privacy>".
func MemberInfo(conv models.Conversation) string {
	return fmt.Sprintf("%d/%d members • %s", len(conv.Participants), conv.GroupMemberLimit, conv.GroupPrivacy)
}

var plainPolicy = bluemonday.StrictPolicy()

// PlainText strips any markup from server-supplied text. Entities are decoded
// so the result is what a user would read, not HTML.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	return html.UnescapeString(plainPolicy.Sanitize(html.UnescapeString(s)))
}
