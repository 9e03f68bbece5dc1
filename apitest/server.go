// Package apitest serves an in-memory imitation of the chat backend for tests.
package apitest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"chatclient/models"

	"github.com/go-chi/chi/v5"
)

// Backend holds the fake server state. Fields are guarded by mu; use the accessor methods from tests.
type Backend struct {
	Server *httptest.Server

	mu            sync.Mutex
	seq           int
	users         map[string]*models.User
	order         []string
	conversations map[string]*models.Conversation
	convOrder     []string
	files         map[string][]byte
	calls         map[string]int

	// Hooks let a test intercept a route before the default handler runs. Returning true means handled.
	Hooks map[string]func(w http.ResponseWriter, r *http.Request) bool
}

// New starts a fake backend; the API root is Server.URL + "/api".
func New() *Backend {
	b := &Backend{
		users:         make(map[string]*models.User),
		conversations: make(map[string]*models.Conversation),
		files:         make(map[string][]byte),
		calls:         make(map[string]int),
		Hooks:         make(map[string]func(http.ResponseWriter, *http.Request) bool),
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/users/login/", b.route("login", b.login))
		r.Post("/users/signup/", b.route("signup", b.signup))
		r.Post("/users/logout/", b.route("logout", b.logout))
		r.Post("/users/track_activity/", b.route("track_activity", b.trackActivity))
		r.Get("/users/list_users/", b.route("list_users", b.listUsers))
		r.Get("/conversations/by_user/", b.route("by_user", b.byUser))
		r.Post("/conversations/get_or_create/", b.route("get_or_create", b.getOrCreate))
		r.Post("/conversations/create_group/", b.route("create_group", b.createGroup))
		r.Get("/conversations/{id}/", b.route("conversation", b.conversation))
		r.Post("/conversations/{id}/add_member/", b.route("add_member", b.addMember))
		r.Post("/conversations/{id}/remove_member/", b.route("remove_member", b.removeMember))
		r.Post("/messages/send/", b.route("send", b.send))
		r.Post("/files/upload/", b.route("upload", b.upload))
		r.Get("/files/download/", b.route("download", b.download))
	})

	b.Server = httptest.NewServer(r)
	return b
}

// URL returns the API root.
func (b *Backend) URL() string {
	return b.Server.URL + "/api"
}

func (b *Backend) Close() {
	b.Server.Close()
}

// Calls returns how many times the named route was hit.
func (b *Backend) Calls(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

// TotalCalls returns the number of requests served on any route.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// Hook installs an interceptor for a route name.
func (b *Backend) Hook(name string, fn func(w http.ResponseWriter, r *http.Request) bool) {
	b.mu.Lock()
	b.Hooks[name] = fn
	b.mu.Unlock()
}

// AddUser registers a user directly.
func (b *Backend) AddUser(username string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.addUserLocked(username)
}

// AddDirect creates a direct conversation between two users.
func (b *Backend) AddDirect(a, c models.User) models.Conversation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.addConversationLocked(&models.Conversation{
		Type:         models.ConversationDirect,
		Participants: []models.Participant{{User: a}, {User: c}},
	})
}

// AddMessage appends a text message to a conversation.
func (b *Backend) AddMessage(convID string, sender models.User, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if conv, ok := b.conversations[convID]; ok {
		conv.Messages = append(conv.Messages, b.newMessageLocked(convID, sender, content, models.ContentText))
	}
}

// StoreFile attaches a file message to a conversation and returns the file id.
func (b *Backend) StoreFile(convID string, sender models.User, filename string, data []byte) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg := b.newMessageLocked(convID, sender, filename, models.ContentFile)
	msg.File = &models.File{ID: b.nextIDLocked("file"), MimeType: "application/octet-stream", SizeBytes: int64(len(data))}
	b.files[msg.File.ID] = data
	if conv, ok := b.conversations[convID]; ok {
		conv.Messages = append(conv.Messages, msg)
	}
	return msg.File.ID
}

// Messages returns a copy of a conversation's messages.
func (b *Backend) Messages(convID string) []models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	conv, ok := b.conversations[convID]
	if !ok {
		return nil
	}
	return append([]models.Message(nil), conv.Messages...)
}

// Conversation returns a copy of a stored conversation.
func (b *Backend) Conversation(id string) (models.Conversation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	conv, ok := b.conversations[id]
	if !ok {
		return models.Conversation{}, false
	}
	return *conv, true
}

func (b *Backend) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[name]++
		hook := b.Hooks[name]
		b.mu.Unlock()
		if hook != nil && hook(w, r) {
			return
		}
		h(w, r)
	}
}

func (b *Backend) nextIDLocked(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%04d", prefix, b.seq)
}

func (b *Backend) addUserLocked(username string) *models.User {
	u := &models.User{ID: b.nextIDLocked("user"), Username: username, IsOnline: true, CreatedAt: time.Now().UTC()}
	b.users[u.ID] = u
	b.order = append(b.order, u.ID)
	return u
}

func (b *Backend) addConversationLocked(conv *models.Conversation) *models.Conversation {
	conv.ID = b.nextIDLocked("conv")
	conv.CreatedAt = time.Now().UTC()
	if conv.Messages == nil {
		conv.Messages = []models.Message{}
	}
	b.conversations[conv.ID] = conv
	b.convOrder = append(b.convOrder, conv.ID)
	return conv
}

func (b *Backend) newMessageLocked(convID string, sender models.User, content, contentType string) models.Message {
	return models.Message{
		ID:             b.nextIDLocked("msg"),
		ConversationID: convID,
		Sender:         sender,
		Content:        content,
		ContentType:    contentType,
		SentAt:         time.Now().UTC(),
	}
}

func (b *Backend) userByName(name string) *models.User {
	for _, id := range b.order {
		if b.users[id].Username == name {
			return b.users[id]
		}
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req struct{ Username string }
	if !decode(r, &req) || strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "Username required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.userByName(strings.TrimSpace(req.Username))
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	u.IsOnline = true
	WriteJSON(w, http.StatusOK, u)
}

func (b *Backend) signup(w http.ResponseWriter, r *http.Request) {
	var req struct{ Username string }
	if !decode(r, &req) || strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "Username required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	name := strings.TrimSpace(req.Username)
	if b.userByName(name) != nil {
		writeError(w, http.StatusBadRequest, "Username already exists")
		return
	}
	WriteJSON(w, http.StatusCreated, b.addUserLocked(name))
}

func (b *Backend) userAction(w http.ResponseWriter, r *http.Request, online bool) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if !decode(r, &req) || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[req.UserID]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	u.IsOnline = online
	WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	b.userAction(w, r, false)
}

func (b *Backend) trackActivity(w http.ResponseWriter, r *http.Request) {
	b.userAction(w, r, true)
}

func (b *Backend) listUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.User, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.users[id])
	}
	WriteJSON(w, http.StatusOK, out)
}

func (b *Backend) byUser(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Conversation{}
	for _, id := range b.convOrder {
		conv := b.conversations[id]
		for _, p := range conv.Participants {
			if p.User.ID == userID {
				out = append(out, *conv)
				break
			}
		}
	}
	WriteJSON(w, http.StatusOK, out)
}

func (b *Backend) conversation(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	conv, ok := b.conversations[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	WriteJSON(w, http.StatusOK, conv)
}

func (b *Backend) getOrCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string `json:"user_id"`
		OtherUserID string `json:"other_user_id"`
	}
	if !decode(r, &req) || req.UserID == "" || req.OtherUserID == "" {
		writeError(w, http.StatusBadRequest, "user_id and other_user_id required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, okA := b.users[req.UserID]
	o, okO := b.users[req.OtherUserID]
	if !okA || !okO {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	for _, id := range b.convOrder {
		conv := b.conversations[id]
		if conv.IsGroup() || len(conv.Participants) != 2 {
			continue
		}
		ids := conv.Participants[0].User.ID + "|" + conv.Participants[1].User.ID
		if ids == a.ID+"|"+o.ID || ids == o.ID+"|"+a.ID {
			WriteJSON(w, http.StatusOK, conv)
			return
		}
	}
	conv := b.addConversationLocked(&models.Conversation{
		Type:         models.ConversationDirect,
		Participants: []models.Participant{{User: *a}, {User: *o}},
	})
	WriteJSON(w, http.StatusOK, conv)
}

func (b *Backend) createGroup(w http.ResponseWriter, r *http.Request) {
	var req models.NewGroup
	if !decode(r, &req) || req.UserID == "" || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "user_id and group_name required")
		return
	}
	switch req.Privacy {
	case models.PrivacyPublic, models.PrivacyInvite, models.PrivacyClosed:
	default:
		writeError(w, http.StatusBadRequest, "Invalid group_privacy")
		return
	}
	switch req.MemberLimit {
	case 5, 10, 15, 50:
	default:
		writeError(w, http.StatusBadRequest, "Invalid group_member_limit. Must be 5, 10, 15, or 50")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	admin, ok := b.users[req.UserID]
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	conv := &models.Conversation{
		Type:             models.ConversationGroup,
		Name:             req.Name,
		Description:      req.Description,
		GroupPrivacy:     req.Privacy,
		GroupMemberLimit: req.MemberLimit,
		GroupAdmin:       admin,
		Participants:     []models.Participant{{User: *admin}},
	}
	for _, id := range req.MemberIDs {
		if u, ok := b.users[id]; ok && len(conv.Participants) < req.MemberLimit {
			conv.Participants = append(conv.Participants, models.Participant{User: *u})
		}
	}
	WriteJSON(w, http.StatusCreated, b.addConversationLocked(conv))
}

func (b *Backend) memberRequest(w http.ResponseWriter, r *http.Request) (*models.Conversation, *models.User, *models.User, bool) {
	var req struct {
		UserID      string `json:"user_id"`
		RequesterID string `json:"requester_id"`
	}
	if !decode(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid body")
		return nil, nil, nil, false
	}
	conv, ok := b.conversations[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return nil, nil, nil, false
	}
	if !conv.IsGroup() {
		writeError(w, http.StatusBadRequest, "Only group conversations allowed")
		return nil, nil, nil, false
	}
	user, okU := b.users[req.UserID]
	requester := b.users[req.RequesterID]
	if !okU {
		writeError(w, http.StatusNotFound, "Not found.")
		return nil, nil, nil, false
	}
	return conv, user, requester, true
}

func (b *Backend) addMember(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	conv, user, requester, ok := b.memberRequest(w, r)
	if !ok {
		return
	}
	if conv.GroupPrivacy == models.PrivacyClosed && (requester == nil || conv.GroupAdmin == nil || conv.GroupAdmin.ID != requester.ID) {
		writeError(w, http.StatusForbidden, "Only admin can add members to closed group")
		return
	}
	if len(conv.Participants) >= conv.GroupMemberLimit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Group is full. Max members: %d", conv.GroupMemberLimit))
		return
	}
	for _, p := range conv.Participants {
		if p.User.ID == user.ID {
			writeError(w, http.StatusBadRequest, "User already in group")
			return
		}
	}
	conv.Participants = append(conv.Participants, models.Participant{User: *user})
	WriteJSON(w, http.StatusOK, conv)
}

func (b *Backend) removeMember(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	conv, user, requester, ok := b.memberRequest(w, r)
	if !ok {
		return
	}
	if requester == nil || conv.GroupAdmin == nil || conv.GroupAdmin.ID != requester.ID {
		writeError(w, http.StatusForbidden, "Only admin can remove members")
		return
	}
	kept := conv.Participants[:0]
	for _, p := range conv.Participants {
		if p.User.ID != user.ID {
			kept = append(kept, p)
		}
	}
	conv.Participants = kept
	WriteJSON(w, http.StatusOK, conv)
}

func (b *Backend) send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		SenderID       string `json:"sender_id"`
		Content        string `json:"content"`
		ContentType    string `json:"content_type"`
	}
	if !decode(r, &req) || req.ConversationID == "" || req.SenderID == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	conv, okC := b.conversations[req.ConversationID]
	sender, okS := b.users[req.SenderID]
	if !okC || !okS {
		writeError(w, http.StatusNotFound, "Conversation or user not found")
		return
	}
	msg := b.newMessageLocked(conv.ID, *sender, strings.TrimSpace(req.Content), req.ContentType)
	conv.Messages = append(conv.Messages, msg)
	WriteJSON(w, http.StatusCreated, msg)
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Upload error")
		return
	}
	convID := r.FormValue("conversation_id")
	senderID := r.FormValue("sender_id")

	b.mu.Lock()
	defer b.mu.Unlock()
	conv, okC := b.conversations[convID]
	sender, okS := b.users[senderID]
	if !okC || !okS {
		writeError(w, http.StatusNotFound, "Conversation or user not found")
		return
	}
	msg := b.newMessageLocked(conv.ID, *sender, header.Filename, models.ContentFile)
	msg.File = &models.File{ID: b.nextIDLocked("file"), MimeType: header.Header.Get("Content-Type"), SizeBytes: int64(len(data))}
	b.files[msg.File.ID] = data
	conv.Messages = append(conv.Messages, msg)
	WriteJSON(w, http.StatusCreated, msg)
}

func (b *Backend) download(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("file_id")
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[id]
	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	name := id
	for _, conv := range b.conversations {
		for _, m := range conv.Messages {
			if m.File != nil && m.File.ID == id {
				name = m.Content
			}
		}
	}
	WriteJSON(w, http.StatusOK, models.Download{
		File:     base64.StdEncoding.EncodeToString(data),
		Filename: name,
		MimeType: "application/octet-stream",
		Size:     int64(len(data)),
	})
}
