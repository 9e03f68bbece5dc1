package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatclient/api"
	"chatclient/chat"
	"chatclient/config"
	"chatclient/db"
	"chatclient/ui"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "chat-client",
	Short:        "Terminal client for the chat REST API",
	SilenceUsage: true,
	RunE:         runClient,
}

var (
	flagAPIURL       string
	flagDBPath       string
	flagDownloadDir  string
	flagLogFile      string
	flagLogLevel     string
	flagPollInterval time.Duration
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagAPIURL, "api-url", "", "backend API root, e.g. http://localhost:8000/api (env CHAT_API_URL)")
	flags.StringVar(&flagDBPath, "db", "", "local session database (env CHAT_DB_PATH)")
	flags.StringVar(&flagDownloadDir, "download-dir", "", "default directory for downloads (env CHAT_DOWNLOAD_DIR)")
	flags.StringVar(&flagLogFile, "log-file", "", "log file; the terminal is owned by the UI (env CHAT_LOG_FILE)")
	flags.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (env CHAT_LOG_LEVEL)")
	flags.DurationVar(&flagPollInterval, "poll-interval", 0, "presence and refresh period (env CHAT_POLL_INTERVAL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runClient(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyFlags(cmd, cfg)

	logFile, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("[main] open database failed")
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	client := api.NewClient(cfg.APIURL, cfg.HTTPTimeout)
	app := ui.NewApp(client.BaseURL())
	ctrl := chat.New(client, database, app, chat.Options{
		PollInterval: cfg.PollInterval,
		DownloadDir:  cfg.DownloadDir,
	})

	log.Info().
		Str("api", client.BaseURL()).
		Str("db", cfg.DBPath).
		Dur("poll", cfg.PollInterval).
		Msg("[main] starting")

	runErr := app.Run(ctx, ctrl)
	stop()
	ctrl.Close()

	if runErr != nil {
		log.Error().Err(runErr).Msg("[main] ui exited")
		return runErr
	}
	log.Info().Msg("[main] bye")
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = flagAPIURL
	}
	if flags.Changed("db") {
		cfg.DBPath = flagDBPath
	}
	if flags.Changed("download-dir") {
		cfg.DownloadDir = flagDownloadDir
	}
	if flags.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("poll-interval") && flagPollInterval > 0 {
		cfg.PollInterval = flagPollInterval
	}
}

// setupLogging sends zerolog to the log file, since stdout belongs to the UI.
func setupLogging(cfg *config.Config) (*os.File, error) {
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return f, nil
}
