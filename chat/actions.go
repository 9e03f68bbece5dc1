package chat

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ActionKind names something the user asked for.
type ActionKind int

const (
	ActionLogin ActionKind = iota
	ActionLogout
	ActionOpenConversation
	ActionSendMessage
	ActionUploadFile
	ActionDownloadFile
	ActionStartChat
	ActionCreateGroup
	ActionAddMember
	ActionRemoveMember
	ActionFilterChats
	ActionActivity
)

var actionNames = map[ActionKind]string{
	ActionLogin:            "login",
	ActionLogout:           "logout",
	ActionOpenConversation: "open_conversation",
	ActionSendMessage:      "send_message",
	ActionUploadFile:       "upload_file",
	ActionDownloadFile:     "download_file",
	ActionStartChat:        "start_chat",
	ActionCreateGroup:      "create_group",
	ActionAddMember:        "add_member",
	ActionRemoveMember:     "remove_member",
	ActionFilterChats:      "filter_chats",
	ActionActivity:         "activity",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return "unknown"
}

// Action is a UI request. Which fields matter depends on Kind:
// Text carries a username, message or filter query; ID a conversation, user or
// file id; Path a local file or directory.
type Action struct {
	Kind  ActionKind
	ID    string
	Text  string
	Path  string
	Group GroupForm
}

// Dispatch runs a and blocks until it is done. UIs call it off their event loop.
func (c *Controller) Dispatch(ctx context.Context, a Action) {
	if a.Kind != ActionActivity && a.Kind != ActionFilterChats {
		log.Debug().Stringer("action", a.Kind).Str("id", a.ID).Msg("[chat] dispatch")
	}
	switch a.Kind {
	case ActionLogin:
		c.Login(ctx, a.Text)
	case ActionLogout:
		c.Logout(ctx)
	case ActionOpenConversation:
		c.OpenFromList(ctx, a.ID)
	case ActionSendMessage:
		c.SendMessage(ctx, a.Text)
	case ActionUploadFile:
		c.UploadFile(ctx, a.Path)
	case ActionDownloadFile:
		c.DownloadFile(ctx, a.ID, a.Path)
	case ActionStartChat:
		c.StartChat(ctx, a.ID)
	case ActionCreateGroup:
		c.CreateGroup(ctx, a.Group)
	case ActionAddMember:
		c.AddMember(ctx, a.ID)
	case ActionRemoveMember:
		c.RemoveMember(ctx, a.ID)
	case ActionFilterChats:
		c.FilterChats(a.Text)
	case ActionActivity:
		c.NotifyActivity()
	default:
		log.Warn().Int("kind", int(a.Kind)).Msg("[chat] unknown action")
	}
}
