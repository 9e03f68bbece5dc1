package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	APIURL       string
	DBPath       string
	DownloadDir  string
	LogFile      string
	LogLevel     string
	PollInterval time.Duration
	HTTPTimeout  time.Duration
}

// Load returns defaults overridden by an optional .env file and CHAT_* environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("[config] .env could not be loaded")
	}

	cfg := &Config{
		APIURL:       "http://localhost:8000/api",
		DBPath:       "chat-client.db",
		DownloadDir:  ".",
		LogFile:      "chat-client.log",
		LogLevel:     "info",
		PollInterval: 3 * time.Second,
		HTTPTimeout:  30 * time.Second,
	}

	if v := os.Getenv("CHAT_API_URL"); v != "" {
		cfg.APIURL = v
	}

	if v := os.Getenv("CHAT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("CHAT_DOWNLOAD_DIR"); v != "" {
		cfg.DownloadDir = v
	}

	if v := os.Getenv("CHAT_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	if v := os.Getenv("CHAT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("CHAT_POLL_INTERVAL"); v != "" {
		if d, ok := parseSeconds(v); ok {
			cfg.PollInterval = d
		}
	}

	if v := os.Getenv("CHAT_HTTP_TIMEOUT"); v != "" {
		if d, ok := parseSeconds(v); ok {
			cfg.HTTPTimeout = d
		}
	}

	return cfg
}

// parseSeconds accepts either a Go duration ("1500ms") or a whole number of seconds.
func parseSeconds(s string) (time.Duration, bool) {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, true
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}
