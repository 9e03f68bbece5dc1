package models

import "time"

// Conversation types
const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

// Message content types
const (
	ContentText  = "text"
	ContentFile  = "file"
	ContentImage = "image"
	ContentVideo = "video"
	ContentAudio = "audio"
)

// Group privacy values accepted by create_group
const (
	PrivacyPublic = "public"
	PrivacyInvite = "invite"
	PrivacyClosed = "closed"
)

// GroupPrivacies lists privacy options in the order they are offered.
var GroupPrivacies = []string{PrivacyPublic, PrivacyInvite, PrivacyClosed}

// GroupMemberLimits lists the member limits the backend accepts.
var GroupMemberLimits = []int{5, 10, 15, 50}

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	IsOnline       bool      `json:"is_online"`
	OfflineMinutes int       `json:"offline_minutes"`
}

type Participant struct {
	User     User      `json:"user"`
	JoinedAt time.Time `json:"joined_at,omitempty"`
}

type File struct {
	ID          string `json:"id"`
	StoragePath string `json:"storage_path,omitempty"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation,omitempty"`
	Sender         User       `json:"sender"`
	Content        string     `json:"content"`
	ContentType    string     `json:"content_type"`
	SentAt         time.Time  `json:"sent_at"`
	Edited         bool       `json:"edited,omitempty"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	File           *File      `json:"file,omitempty"`
}

// IsAttachment reports whether the message carries a file rather than text.
func (m Message) IsAttachment() bool {
	switch m.ContentType {
	case ContentFile, ContentImage, ContentVideo, ContentAudio:
		return true
	}
	return false
}

type Conversation struct {
	ID               string        `json:"id"`
	Type             string        `json:"type"`
	Name             string        `json:"name,omitempty"`
	Description      string        `json:"description,omitempty"`
	GroupPrivacy     string        `json:"group_privacy,omitempty"`
	GroupMemberLimit int           `json:"group_member_limit,omitempty"`
	GroupAdmin       *User         `json:"group_admin,omitempty"`
	Participants     []Participant `json:"participants"`
	Messages         []Message     `json:"messages"`
	CreatedAt        time.Time     `json:"created_at,omitempty"`
}

// IsGroup reports whether the conversation is a group chat. Anything else is direct.
func (c Conversation) IsGroup() bool {
	return c.Type == ConversationGroup
}

// OtherParticipant returns the first participant that is not selfID.
func (c Conversation) OtherParticipant(selfID string) (User, bool) {
	for _, p := range c.Participants {
		if p.User.ID != selfID {
			return p.User, true
		}
	}
	return User{}, false
}

// LastMessage returns the newest message, if any.
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// NewGroup is the payload of create_group.
type NewGroup struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"group_name"`
	Description string   `json:"description"`
	Privacy     string   `json:"group_privacy"`
	MemberLimit int      `json:"group_member_limit"`
	MemberIDs   []string `json:"member_ids"`
}

// Download is the JSON envelope returned by files/download.
type Download struct {
	File     string `json:"file"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size,omitempty"`
}
