package api_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"chatclient/api"
	"chatclient/apitest"
	"chatclient/models"
)

func setupTestClient(t *testing.T) (*api.Client, *apitest.Backend) {
	t.Helper()
	backend := apitest.New()
	t.Cleanup(backend.Close)
	return api.NewClient(backend.URL()+"/", 5*time.Second), backend
}

func TestLoginUnknownUserFails(t *testing.T) {
	client, _ := setupTestClient(t)

	_, err := client.Login(context.Background(), "ghost")
	if err == nil {
		t.Fatal("Expected login of unknown user to fail")
	}
	if api.StatusOf(err) != http.StatusNotFound {
		t.Errorf("Expected 404, got %d (%v)", api.StatusOf(err), err)
	}
	if api.MessageOf(err) != "User not found" {
		t.Errorf("Expected backend message, got %q", api.MessageOf(err))
	}
}

func TestSignupThenLogin(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	created, err := client.Signup(ctx, "alice")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if created.ID == "" || created.Username != "alice" {
		t.Fatalf("Unexpected user: %+v", created)
	}

	if _, err := client.Signup(ctx, "alice"); api.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("Expected duplicate signup to be rejected, got %v", err)
	}

	logged, err := client.Login(ctx, "alice")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if logged.ID != created.ID {
		t.Errorf("Expected id %s, got %s", created.ID, logged.ID)
	}
}

func TestConversationsAndMessages(t *testing.T) {
	client, backend := setupTestClient(t)
	ctx := context.Background()

	alice := backend.AddUser("alice")
	bob := backend.AddUser("bob")

	conv, err := client.GetOrCreateDirect(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDirect failed: %v", err)
	}
	again, err := client.GetOrCreateDirect(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDirect failed: %v", err)
	}
	if again.ID != conv.ID {
		t.Errorf("Expected the same direct conversation, got %s and %s", conv.ID, again.ID)
	}

	if _, err := client.SendMessage(ctx, conv.ID, alice.ID, "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	full, err := client.Conversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(full.Messages) != 1 || full.Messages[0].Content != "hello" {
		t.Errorf("Unexpected messages: %+v", full.Messages)
	}
	if full.Messages[0].Sender.ID != alice.ID {
		t.Errorf("Expected sender %s, got %s", alice.ID, full.Messages[0].Sender.ID)
	}

	list, err := client.Conversations(ctx, bob.ID)
	if err != nil {
		t.Fatalf("Conversations failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != conv.ID {
		t.Errorf("Unexpected conversation list: %+v", list)
	}
}

func TestCreateGroupRejected(t *testing.T) {
	client, backend := setupTestClient(t)
	alice := backend.AddUser("alice")

	_, err := client.CreateGroup(context.Background(), models.NewGroup{
		UserID:      alice.ID,
		Name:        "team",
		Privacy:     models.PrivacyPublic,
		MemberLimit: 7,
	})
	if api.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %v", err)
	}
	if !strings.HasPrefix(api.MessageOf(err), "Invalid group_member_limit") {
		t.Errorf("Unexpected message %q", api.MessageOf(err))
	}
}

func TestGroupMembers(t *testing.T) {
	client, backend := setupTestClient(t)
	ctx := context.Background()
	alice := backend.AddUser("alice")
	bob := backend.AddUser("bob")
	carol := backend.AddUser("carol")

	group, err := client.CreateGroup(ctx, models.NewGroup{
		UserID:      alice.ID,
		Name:        "team",
		Privacy:     models.PrivacyClosed,
		MemberLimit: 5,
		MemberIDs:   []string{bob.ID},
	})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if len(group.Participants) != 2 {
		t.Fatalf("Expected 2 participants, got %d", len(group.Participants))
	}

	if _, err := client.AddMember(ctx, group.ID, carol.ID, bob.ID); api.StatusOf(err) != http.StatusForbidden {
		t.Errorf("Expected non-admin add to closed group to be forbidden, got %v", err)
	}

	updated, err := client.AddMember(ctx, group.ID, carol.ID, alice.ID)
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if len(updated.Participants) != 3 {
		t.Errorf("Expected 3 participants, got %d", len(updated.Participants))
	}

	updated, err = client.RemoveMember(ctx, group.ID, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if len(updated.Participants) != 2 {
		t.Errorf("Expected 2 participants, got %d", len(updated.Participants))
	}
}

func TestUploadAndDownload(t *testing.T) {
	client, backend := setupTestClient(t)
	ctx := context.Background()
	alice := backend.AddUser("alice")
	bob := backend.AddUser("bob")
	conv := backend.AddDirect(alice, bob)

	payload := []byte("binary\x00payload")
	msg, err := client.UploadFile(ctx, conv.ID, alice.ID, "notes \"v2\".txt", int64(len(payload)), bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if msg.File == nil || msg.File.SizeBytes != int64(len(payload)) {
		t.Fatalf("Unexpected upload result: %+v", msg)
	}
	if msg.Content != `notes "v2".txt` {
		t.Errorf("Expected filename to survive quoting, got %q", msg.Content)
	}
	if !strings.HasPrefix(msg.File.MimeType, "text/plain") {
		t.Errorf("Expected text/plain part, got %q", msg.File.MimeType)
	}

	env, data, err := client.DownloadFile(ctx, msg.File.ID)
	if err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Expected %q, got %q", payload, data)
	}
	if env.Filename != msg.Content {
		t.Errorf("Expected filename %q, got %q", msg.Content, env.Filename)
	}
}

func TestUploadTooLargeMakesNoRequest(t *testing.T) {
	client, backend := setupTestClient(t)

	_, err := client.UploadFile(context.Background(), "c", "u", "huge.bin", api.MaxUploadSize+1, bytes.NewReader(nil))
	if !errors.Is(err, api.ErrFileTooLarge) {
		t.Fatalf("Expected ErrFileTooLarge, got %v", err)
	}
	if n := backend.TotalCalls(); n != 0 {
		t.Errorf("Expected no requests, got %d", n)
	}
}

// slowReader yields its data only after delay.
type slowReader struct {
	delay time.Duration
	r     *bytes.Reader
}

func (s *slowReader) Read(p []byte) (int, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
		s.delay = 0
	}
	return s.r.Read(p)
}

func TestSlowTransfersOutliveRequestTimeout(t *testing.T) {
	backend := apitest.New()
	t.Cleanup(backend.Close)
	client := api.NewClient(backend.URL(), 300*time.Millisecond)
	ctx := context.Background()
	alice := backend.AddUser("alice")
	bob := backend.AddUser("bob")
	conv := backend.AddDirect(alice, bob)

	payload := []byte("0123456789")
	body := &slowReader{delay: time.Second, r: bytes.NewReader(payload)}
	msg, err := client.UploadFile(ctx, conv.ID, alice.ID, "slow.txt", int64(len(payload)), body)
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	backend.Hook("download", func(w http.ResponseWriter, r *http.Request) bool {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"file": "`))
		w.(http.Flusher).Flush()
		time.Sleep(time.Second)
		w.Write([]byte(`MDEyMzQ1Njc4OQ==", "filename": "slow.txt"}`))
		return true
	})
	_, data, err := client.DownloadFile(ctx, msg.File.ID)
	if err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Expected %q, got %q", payload, data)
	}

	backend.Hook("list_users", func(w http.ResponseWriter, r *http.Request) bool {
		time.Sleep(time.Second)
		apitest.WriteJSON(w, http.StatusOK, []models.User{})
		return true
	})
	if _, err := client.ListUsers(ctx); err == nil {
		t.Error("Expected JSON calls to keep the request timeout")
	}
}

func TestDownloadBadBase64(t *testing.T) {
	client, backend := setupTestClient(t)
	backend.Hook("download", func(w http.ResponseWriter, r *http.Request) bool {
		apitest.WriteJSON(w, http.StatusOK, map[string]string{"file": "!!!", "filename": "x"})
		return true
	})

	if _, _, err := client.DownloadFile(context.Background(), "f"); err == nil {
		t.Error("Expected decode error")
	}
}

func TestTrackActivityAndLogout(t *testing.T) {
	client, backend := setupTestClient(t)
	ctx := context.Background()
	alice := backend.AddUser("alice")

	if err := client.TrackActivity(ctx, alice.ID); err != nil {
		t.Fatalf("TrackActivity failed: %v", err)
	}
	if err := client.Logout(ctx, alice.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	users, err := client.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].IsOnline {
		t.Errorf("Expected alice offline after logout, got %+v", users)
	}

	if err := client.TrackActivity(ctx, "missing"); api.StatusOf(err) != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown user, got %v", err)
	}
}

func TestRequestCarriesRequestID(t *testing.T) {
	client, backend := setupTestClient(t)
	seen := make(chan string, 1)
	backend.Hook("list_users", func(w http.ResponseWriter, r *http.Request) bool {
		seen <- r.Header.Get("X-Request-ID")
		return false
	})

	if _, err := client.ListUsers(context.Background()); err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if id := <-seen; len(id) != 36 {
		t.Errorf("Expected a uuid request id, got %q", id)
	}
}
