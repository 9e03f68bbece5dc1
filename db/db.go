package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"chatclient/models"

	_ "github.com/mattn/go-sqlite3"
)

// SessionKey is the fixed key the logged-in user is stored under.
const SessionKey = "currentUser"

var ErrNoRows = errors.New("no rows found")

type DB struct {
	conn *sql.DB
}

func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS downloads (
			file_id TEXT PRIMARY KEY,
			path TEXT NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return err
		}
	}

	return db.migrate()
}

// migrate adds columns introduced after the first schema
func (db *DB) migrate() error {
	now := time.Now().UTC().Format(time.RFC3339)

	if !db.columnExists("kv", "updated_at") {
		// SQLite doesn't support parameters in ALTER TABLE
		if _, err := db.conn.Exec("ALTER TABLE kv ADD COLUMN updated_at TEXT DEFAULT '" + now + "'"); err != nil {
			return err
		}
	}

	if !db.columnExists("downloads", "downloaded_at") {
		if _, err := db.conn.Exec("ALTER TABLE downloads ADD COLUMN downloaded_at TEXT DEFAULT '" + now + "'"); err != nil {
			return err
		}
	}

	return nil
}

func (db *DB) columnExists(table, column string) bool {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// Get returns the value stored under key, or ErrNoRows.
func (db *DB) Get(key string) (string, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNoRows
	}
	return value, err
}

func (db *DB) Set(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (db *DB) Delete(key string) error {
	_, err := db.conn.Exec("DELETE FROM kv WHERE key = ?", key)
	return err
}

// Session methods

// LoadSession returns the persisted user. ok is false when nobody is logged in.
func (db *DB) LoadSession() (user models.User, ok bool, err error) {
	raw, err := db.Get(SessionKey)
	if err == ErrNoRows {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

func (db *DB) SaveSession(user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return db.Set(SessionKey, string(raw))
}

func (db *DB) ClearSession() error {
	return db.Delete(SessionKey)
}

// Download methods

func (db *DB) RecordDownload(fileID, path string) error {
	_, err := db.conn.Exec(
		`INSERT INTO downloads (file_id, path, downloaded_at) VALUES (?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET path = excluded.path, downloaded_at = excluded.downloaded_at`,
		fileID, path, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// DownloadedFiles returns saved paths keyed by file id.
func (db *DB) DownloadedFiles() (map[string]string, error) {
	rows, err := db.conn.Query("SELECT file_id, path FROM downloads")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make(map[string]string)
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, err
		}
		paths[id] = path
	}

	return paths, rows.Err()
}
