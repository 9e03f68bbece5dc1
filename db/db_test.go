package db

import (
	"path/filepath"
	"testing"

	"chatclient/models"
)

// setupTestDB creates a database in a temporary directory
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSessionRoundTrip(t *testing.T) {
	database := setupTestDB(t)

	if _, ok, err := database.LoadSession(); err != nil || ok {
		t.Fatalf("Expected no session, got ok=%v err=%v", ok, err)
	}

	user := models.User{ID: "7c1c2f3e-0000-4000-8000-000000000001", Username: "alice"}
	if err := database.SaveSession(user); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	got, ok, err := database.LoadSession()
	if err != nil || !ok {
		t.Fatalf("Expected session, got ok=%v err=%v", ok, err)
	}
	if got.ID != user.ID || got.Username != user.Username {
		t.Errorf("Expected %+v, got %+v", user, got)
	}

	// Saving again replaces the stored user
	user.Username = "alice2"
	if err := database.SaveSession(user); err != nil {
		t.Fatalf("Failed to overwrite session: %v", err)
	}
	got, _, _ = database.LoadSession()
	if got.Username != "alice2" {
		t.Errorf("Expected overwritten username, got %q", got.Username)
	}

	if err := database.ClearSession(); err != nil {
		t.Fatalf("Failed to clear session: %v", err)
	}
	if _, ok, _ := database.LoadSession(); ok {
		t.Error("Expected session to be gone after clear")
	}
}

func TestSessionSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	first, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	if err := first.SaveSession(models.User{ID: "u1", Username: "bob"}); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	first.Close()

	second, err := New(path)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer second.Close()

	got, ok, err := second.LoadSession()
	if err != nil || !ok {
		t.Fatalf("Expected persisted session, got ok=%v err=%v", ok, err)
	}
	if got.Username != "bob" {
		t.Errorf("Expected bob, got %q", got.Username)
	}
}

func TestGetMissingKey(t *testing.T) {
	database := setupTestDB(t)

	if _, err := database.Get("nope"); err != ErrNoRows {
		t.Errorf("Expected ErrNoRows, got %v", err)
	}
}

func TestRecordDownload(t *testing.T) {
	database := setupTestDB(t)

	if err := database.RecordDownload("f1", "/tmp/a.txt"); err != nil {
		t.Fatalf("Failed to record download: %v", err)
	}
	if err := database.RecordDownload("f1", "/tmp/a (1).txt"); err != nil {
		t.Fatalf("Failed to update download: %v", err)
	}

	paths, err := database.DownloadedFiles()
	if err != nil {
		t.Fatalf("Failed to list downloads: %v", err)
	}
	if len(paths) != 1 || paths["f1"] != "/tmp/a (1).txt" {
		t.Errorf("Unexpected downloads: %v", paths)
	}
}
