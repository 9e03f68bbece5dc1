package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chatclient/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Client talks to the chat backend REST API
type Client struct {
	baseURL  string
	http     *http.Client
	transfer *http.Client
}

// NewClient creates a client for the API rooted at baseURL (for example http://host/api).
// timeout bounds JSON calls end to end. File transfers only wait at most timeout for
// response headers once the body is sent; their duration is left to the caller's ctx.
func NewClient(baseURL string, timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		transfer: &http.Client{Transport: transport},
	}
}

// BaseURL returns the API root the client was created with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Error is returned for any non-2xx response
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// StatusOf returns the HTTP status carried by err, or 0 if err is not an *Error
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the backend's error text, or "" if err carries none
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// do sends req and decodes a JSON response into out (if out is non-nil)
func (c *Client) do(req *http.Request, out any) error {
	return c.send(c.http, req, out)
}

func (c *Client) send(hc *http.Client, req *http.Request, out any) error {
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("[api] request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		if raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
			if json.Unmarshal(raw, &body) == nil {
				apiErr.Message = body.Error
			}
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// User endpoints

// Login returns the user registered as username
func (c *Client) Login(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := c.postJSON(ctx, "/users/login/", map[string]string{"username": username}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Signup registers username
func (c *Client) Signup(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := c.postJSON(ctx, "/users/signup/", map[string]string{"username": username}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout marks the user offline on the backend
func (c *Client) Logout(ctx context.Context, userID string) error {
	return c.postJSON(ctx, "/users/logout/", map[string]string{"user_id": userID}, nil)
}

// TrackActivity reports that the user is active
func (c *Client) TrackActivity(ctx context.Context, userID string) error {
	return c.postJSON(ctx, "/users/track_activity/", map[string]string{"user_id": userID}, nil)
}

// ListUsers returns every registered user
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.getJSON(ctx, "/users/list_users/", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Conversation endpoints

// Conversations returns the conversations userID participates in, in server order
func (c *Client) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	if err := c.getJSON(ctx, "/conversations/by_user/?user_id="+url.QueryEscape(userID), &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// Conversation fetches one conversation with participants and messages
func (c *Client) Conversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := c.getJSON(ctx, "/conversations/"+url.PathEscape(id)+"/", &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetOrCreateDirect returns the direct conversation between two users, creating it if needed
func (c *Client) GetOrCreateDirect(ctx context.Context, userID, otherUserID string) (*models.Conversation, error) {
	var conv models.Conversation
	body := map[string]string{"user_id": userID, "other_user_id": otherUserID}
	if err := c.postJSON(ctx, "/conversations/get_or_create/", body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateGroup creates a group conversation
func (c *Client) CreateGroup(ctx context.Context, group models.NewGroup) (*models.Conversation, error) {
	if group.MemberIDs == nil {
		group.MemberIDs = []string{}
	}
	var conv models.Conversation
	if err := c.postJSON(ctx, "/conversations/create_group/", group, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// AddMember adds userID to a group on behalf of requesterID
func (c *Client) AddMember(ctx context.Context, conversationID, userID, requesterID string) (*models.Conversation, error) {
	return c.memberAction(ctx, conversationID, "add_member", userID, requesterID)
}

// RemoveMember removes userID from a group on behalf of requesterID
func (c *Client) RemoveMember(ctx context.Context, conversationID, userID, requesterID string) (*models.Conversation, error) {
	return c.memberAction(ctx, conversationID, "remove_member", userID, requesterID)
}

func (c *Client) memberAction(ctx context.Context, conversationID, action, userID, requesterID string) (*models.Conversation, error) {
	var conv models.Conversation
	body := map[string]string{"user_id": userID, "requester_id": requesterID}
	if err := c.postJSON(ctx, "/conversations/"+url.PathEscape(conversationID)+"/"+action+"/", body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Message endpoints

// SendMessage posts a text message
func (c *Client) SendMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error) {
	body := map[string]string{
		"conversation_id": conversationID,
		"sender_id":       senderID,
		"content":         content,
		"content_type":    models.ContentText,
	}
	var msg models.Message
	if err := c.postJSON(ctx, "/messages/send/", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
