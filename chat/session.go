package chat

import (
	"context"
	"strings"

	"chatclient/api"
	"chatclient/models"

	"github.com/rs/zerolog/log"
)

// Restore enters the main view for a persisted session, or shows the auth screen.
func (c *Controller) Restore(ctx context.Context) {
	user, ok, err := c.store.LoadSession()
	if err != nil {
		log.Warn().Err(err).Msg("[session] restore failed")
	}
	if err != nil || !ok {
		c.view.ShowAuth()
		return
	}
	log.Info().Str("user", user.Username).Msg("[session] restored")
	c.enter(ctx, user)
}

// Login authenticates username, signing it up when the backend does not know it.
func (c *Controller) Login(ctx context.Context, username string) {
	username = strings.TrimSpace(username)
	if username == "" {
		c.view.AuthError("Username required")
		return
	}

	user, err := c.backend.Login(ctx, username)
	if err != nil {
		if api.StatusOf(err) == 0 {
			log.Error().Err(err).Msg("[session] login request failed")
			c.view.AuthError("Connection error")
			return
		}
		log.Info().Str("user", username).Int("status", api.StatusOf(err)).Msg("[session] login refused, signing up")
		user, err = c.backend.Signup(ctx, username)
		if err != nil {
			if api.StatusOf(err) == 0 {
				log.Error().Err(err).Msg("[session] signup request failed")
				c.view.AuthError("Connection error")
			} else {
				log.Warn().Err(err).Msg("[session] signup refused")
				c.view.AuthError("Error with authentication")
			}
			return
		}
	}

	if err := c.store.SaveSession(*user); err != nil {
		log.Error().Err(err).Msg("[session] persist failed")
	}
	log.Info().Str("user", user.Username).Str("id", user.ID).Msg("[session] logged in")
	c.enter(ctx, *user)
}

// Logout stops the poll loop, forgets the session and returns to the auth screen.
// The backend is told on a best-effort basis.
func (c *Controller) Logout(ctx context.Context) {
	c.stopTracking()

	user := c.currentUser()
	if user != nil {
		if err := c.backend.Logout(ctx, user.ID); err != nil {
			log.Warn().Err(err).Msg("[session] backend logout failed")
		}
	}
	if err := c.store.ClearSession(); err != nil {
		log.Error().Err(err).Msg("[session] clear failed")
	}

	c.mu.Lock()
	c.state.User = nil
	c.state.Current = nil
	c.state.Conversations = nil
	c.state.Users = nil
	c.state.LastMessageCount = 0
	c.state.Filter = ""
	c.mu.Unlock()
	c.openSeq.Add(1)

	c.view.ShowAuth()
}

// enter shows the main view for user, loads its data and starts the poll loop.
func (c *Controller) enter(ctx context.Context, user models.User) {
	c.mu.Lock()
	c.state.User = &user
	c.state.Current = nil
	c.state.LastMessageCount = 0
	c.mu.Unlock()

	c.view.ShowMain(user)
	c.loadConversations(ctx)
	c.loadUsers(ctx)
	c.startTracking()
}
