package chat

import (
	"context"
	"strings"

	"chatclient/api"
	"chatclient/models"

	"github.com/rs/zerolog/log"
)

// OpenConversation fetches a conversation and makes it current. If another open
// is issued before the response arrives, this one is discarded.
func (c *Controller) OpenConversation(ctx context.Context, id string) error {
	token := c.openSeq.Add(1)
	conv, err := c.backend.Conversation(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("conversation", id).Msg("[chat] open failed")
		if token == c.openSeq.Load() {
			c.view.Alert("Error opening conversation: " + err.Error())
		}
		return err
	}

	c.mu.Lock()
	if token != c.openSeq.Load() || c.state.User == nil {
		c.mu.Unlock()
		log.Debug().Str("conversation", id).Msg("[chat] stale open dropped")
		return nil
	}
	c.state.Current = conv
	c.state.LastMessageCount = len(conv.Messages)
	c.mu.Unlock()

	c.renderChatWindow()
	c.renderChatList()
	return nil
}

// OpenFromList opens a conversation picked from the chat list. Picks made while
// a previous pick is still loading are ignored.
func (c *Controller) OpenFromList(ctx context.Context, id string) {
	if !c.loading.CompareAndSwap(false, true) {
		log.Debug().Str("conversation", id).Msg("[chat] open ignored, already loading")
		return
	}
	defer c.loading.Store(false)
	_ = c.OpenConversation(ctx, id)
}

// SendMessage posts text to the open conversation and reloads it. Blank input is
// ignored.
func (c *Controller) SendMessage(ctx context.Context, text string) {
	content := strings.TrimSpace(text)
	if content == "" {
		return
	}
	user := c.currentUser()
	convID := c.currentConversationID()
	if user == nil || convID == "" {
		return
	}

	if _, err := c.backend.SendMessage(ctx, convID, user.ID, content); err != nil {
		log.Error().Err(err).Str("conversation", convID).Msg("[chat] send failed")
		c.view.Alert("Error sending message: " + describe(err))
		return
	}
	c.view.ClearInput()
	_ = c.OpenConversation(ctx, convID)
}

// StartChat gets or creates the direct conversation with userID and opens it.
func (c *Controller) StartChat(ctx context.Context, userID string) {
	user := c.currentUser()
	if user == nil {
		return
	}
	conv, err := c.backend.GetOrCreateDirect(ctx, user.ID, userID)
	if err != nil {
		log.Error().Err(err).Str("other", userID).Msg("[chat] start chat failed")
		msg := api.MessageOf(err)
		switch {
		case api.StatusOf(err) == 0:
			msg = err.Error()
		case msg == "":
			msg = "Unknown error"
		}
		c.view.Alert("Error starting chat: " + msg)
		return
	}
	c.view.HideModal()
	c.loadConversations(ctx)
	_ = c.OpenConversation(ctx, conv.ID)
}

// GroupForm is what the create-group dialog collects.
type GroupForm struct {
	Name        string
	Description string
	Privacy     string
	MemberLimit int
	MemberIDs   []string
}

// CreateGroup validates form, creates the group and opens it. Failures are shown
// inside the dialog, which stays open.
func (c *Controller) CreateGroup(ctx context.Context, form GroupForm) {
	user := c.currentUser()
	if user == nil {
		return
	}
	name := strings.TrimSpace(form.Name)
	if name == "" {
		c.view.GroupError("Group name required")
		return
	}
	privacy := form.Privacy
	if privacy == "" {
		privacy = models.PrivacyPublic
	}
	limit := form.MemberLimit
	if limit == 0 {
		limit = models.GroupMemberLimits[0]
	}

	group, err := c.backend.CreateGroup(ctx, models.NewGroup{
		UserID:      user.ID,
		Name:        name,
		Description: strings.TrimSpace(form.Description),
		Privacy:     privacy,
		MemberLimit: limit,
		MemberIDs:   form.MemberIDs,
	})
	if err != nil {
		log.Error().Err(err).Str("group", name).Msg("[chat] create group failed")
		switch {
		case api.StatusOf(err) == 0:
			c.view.GroupError("Error: " + err.Error())
		case api.MessageOf(err) != "":
			c.view.GroupError(api.MessageOf(err))
		default:
			c.view.GroupError("Error creating group")
		}
		return
	}
	log.Info().Str("group", group.ID).Msg("[chat] group created")
	c.view.HideModal()
	c.loadConversations(ctx)
	_ = c.OpenConversation(ctx, group.ID)
}

// AddMember adds userID to the open group.
func (c *Controller) AddMember(ctx context.Context, userID string) {
	c.changeMembers(ctx, userID, c.backend.AddMember)
}

// RemoveMember removes userID from the open group.
func (c *Controller) RemoveMember(ctx context.Context, userID string) {
	c.changeMembers(ctx, userID, c.backend.RemoveMember)
}

type memberFunc func(ctx context.Context, conversationID, userID, requesterID string) (*models.Conversation, error)

func (c *Controller) changeMembers(ctx context.Context, userID string, fn memberFunc) {
	user := c.currentUser()
	c.mu.Lock()
	cur := c.state.Current
	c.mu.Unlock()
	if user == nil || cur == nil || !cur.IsGroup() {
		return
	}

	conv, err := fn(ctx, cur.ID, userID, user.ID)
	if err != nil {
		log.Error().Err(err).Str("conversation", cur.ID).Str("member", userID).Msg("[chat] member change failed")
		c.view.Alert("Error updating members: " + describe(err))
		return
	}

	c.mu.Lock()
	if c.state.Current == nil || c.state.Current.ID != conv.ID {
		c.mu.Unlock()
		return
	}
	c.state.Current = conv
	c.state.LastMessageCount = len(conv.Messages)
	c.mu.Unlock()

	c.view.HideModal()
	c.renderChatWindow()
	c.loadConversations(ctx)
}

// FilterChats hides chat list entries whose name does not contain query. The
// filter survives list reloads until changed.
func (c *Controller) FilterChats(query string) {
	c.SetFilter(query)
	c.renderChatList()
}

// SetFilter records the chat list filter without redrawing. It never blocks on
// the view, so UIs may call it from their event loop.
func (c *Controller) SetFilter(query string) {
	c.mu.Lock()
	c.state.Filter = query
	c.mu.Unlock()
}

// describe prefers the backend's message for API errors.
func describe(err error) string {
	if msg := api.MessageOf(err); msg != "" {
		return msg
	}
	return err.Error()
}
