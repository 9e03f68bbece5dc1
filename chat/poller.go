package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// NotifyActivity reports user input. Reports are coalesced: while one is in
// flight further calls are dropped.
func (c *Controller) NotifyActivity() {
	select {
	case c.activity <- struct{}{}:
	default:
	}
}

// PollOnce runs one tick of the presence loop: report activity, refresh users
// and conversations, then reload the open conversation if it gained messages.
func (c *Controller) PollOnce(ctx context.Context) {
	if c.currentUser() == nil {
		return
	}
	c.trackActivity(ctx)
	c.loadUsers(ctx)
	c.loadConversations(ctx)
	c.refreshMessages(ctx)
}

func (c *Controller) startTracking() {
	c.stopTracking()

	c.mu.Lock()
	ctx, cancel := context.WithCancel(c.root)
	c.sessionCancel = cancel
	c.mu.Unlock()

	c.trackActivity(ctx)

	c.wg.Add(2)
	go c.pollLoop(ctx)
	go c.activityLoop(ctx)
}

func (c *Controller) stopTracking() {
	c.mu.Lock()
	cancel := c.sessionCancel
	c.sessionCancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) pollLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.PollOnce(ctx)
		}
	}
}

func (c *Controller) activityLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.activity:
			c.trackActivity(ctx)
		}
	}
}

func (c *Controller) trackActivity(ctx context.Context) {
	user := c.currentUser()
	if user == nil {
		return
	}
	if err := c.backend.TrackActivity(ctx, user.ID); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("[poll] track activity failed")
	}
}

func (c *Controller) loadUsers(ctx context.Context) {
	user := c.currentUser()
	if user == nil {
		return
	}
	users, err := c.backend.ListUsers(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("[poll] load users failed")
		}
		return
	}
	others := users[:0]
	for _, u := range users {
		if u.ID != user.ID {
			others = append(others, u)
		}
	}
	c.mu.Lock()
	if c.state.User != nil && c.state.User.ID == user.ID {
		c.state.Users = others
	}
	c.mu.Unlock()
}

func (c *Controller) loadConversations(ctx context.Context) {
	user := c.currentUser()
	if user == nil {
		return
	}
	convs, err := c.backend.Conversations(ctx, user.ID)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("[poll] load conversations failed")
		}
		return
	}
	c.mu.Lock()
	if c.state.User == nil || c.state.User.ID != user.ID {
		c.mu.Unlock()
		return
	}
	c.state.Conversations = convs
	c.mu.Unlock()
	c.renderChatList()
}

// refreshMessages reloads the open conversation and redraws its messages when
// the count changed. A response is dropped if another conversation was opened
// while it was in flight.
func (c *Controller) refreshMessages(ctx context.Context) {
	id := c.currentConversationID()
	if id == "" {
		return
	}
	seq := c.openSeq.Load()
	conv, err := c.backend.Conversation(ctx, id)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Str("conversation", id).Msg("[poll] refresh failed")
		}
		return
	}

	c.mu.Lock()
	if seq != c.openSeq.Load() || c.state.Current == nil || c.state.Current.ID != conv.ID {
		c.mu.Unlock()
		log.Debug().Str("conversation", id).Msg("[poll] stale refresh dropped")
		return
	}
	if len(conv.Messages) == c.state.LastMessageCount {
		c.mu.Unlock()
		return
	}
	c.state.Current = conv
	c.state.LastMessageCount = len(conv.Messages)
	c.mu.Unlock()
	c.renderMessages()
}
