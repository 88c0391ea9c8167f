package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// DefaultManifest lists the static assets cached on install.
var DefaultManifest = []string{
	"/index.html",
	"/style.css",
	"/script.js",
	"/notification.mp3",
	"/manifest.json",
	"/favicon.ico",
}

// AppConfig holds all configuration for the agent and the sync server
type AppConfig struct {
	LogLevel    string
	Environment string

	DataDir       string
	SQLitePath    string
	SchedulesFile string

	CronSpecMatch string // Matcher polling cadence
	CronSpecSync  string // Fallback sync poll when no reconnect signal arrives

	SyncURL              string
	SyncToken            string
	SyncTimeout          time.Duration
	ConnectivityCheck    bool
	ConnectivityInterval time.Duration

	AssetOrigin     string // Empty disables the resource cache
	AssetManifest   []string
	CachePrefix     string
	CacheGeneration string

	AgentListenAddr  string
	ServerListenAddr string
	DatabaseURL      string // Sync server only

	TelegramToken  string
	TelegramChatID int64

	DesktopNotifications bool
	NotificationsEnabled bool
	SoundFile            string
	SoundPlayer          string
	TonePlayer           string
	AlertCommand         []string // Modal alert program, text appended; empty prints to stderr
	ViewportWidth        int
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))

	cfg.DataDir = getEnv("DATA_DIR", "data")
	cfg.SQLitePath = getEnv("SQLITE_PATH", filepath.Join(cfg.DataDir, "reminder.db"))
	cfg.SchedulesFile = getEnv("SCHEDULES_FILE", filepath.Join(cfg.DataDir, "medicines.yaml"))

	cfg.CronSpecMatch = getEnv("CRON_SPEC_MATCH", "@every 30s")
	cfg.CronSpecSync = getEnv("CRON_SPEC_SYNC", "@every 1m")

	cfg.SyncURL = getEnv("SYNC_URL", "http://localhost:8080/api/sync")
	cfg.SyncToken = os.Getenv("SYNC_TOKEN")
	if cfg.SyncTimeout, err = getDuration("SYNC_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ConnectivityCheck, err = getBool("CONNECTIVITY_CHECK", true); err != nil {
		return nil, err
	}
	if cfg.ConnectivityInterval, err = getDuration("CONNECTIVITY_INTERVAL", 15*time.Second); err != nil {
		return nil, err
	}

	cfg.AssetOrigin = os.Getenv("ASSET_ORIGIN")
	cfg.AssetManifest = DefaultManifest
	if raw := os.Getenv("ASSET_MANIFEST"); raw != "" {
		cfg.AssetManifest = splitList(raw)
	}
	cfg.CachePrefix = getEnv("CACHE_PREFIX", "medicine-reminder")
	cfg.CacheGeneration = getEnv("CACHE_GENERATION", "v1")

	cfg.AgentListenAddr = getEnv("AGENT_LISTEN_ADDR", "localhost:8787")
	cfg.ServerListenAddr = getEnv("SERVER_LISTEN_ADDR", ":8080")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	}

	if cfg.DesktopNotifications, err = getBool("DESKTOP_NOTIFICATIONS", true); err != nil {
		return nil, err
	}
	if cfg.NotificationsEnabled, err = getBool("NOTIFICATIONS_ENABLED", true); err != nil {
		return nil, err
	}
	cfg.SoundFile = getEnv("SOUND_FILE", filepath.Join(cfg.DataDir, "notification.mp3"))
	cfg.SoundPlayer = getEnv("SOUND_PLAYER", "paplay")
	cfg.TonePlayer = getEnv("TONE_PLAYER", "aplay")
	cfg.AlertCommand = strings.Fields(os.Getenv("ALERT_COMMAND"))
	if widthStr := os.Getenv("VIEWPORT_WIDTH"); widthStr != "" {
		cfg.ViewportWidth, err = strconv.Atoi(widthStr)
		if err != nil {
			return nil, fmt.Errorf("invalid VIEWPORT_WIDTH: %w", err)
		}
	}

	return cfg, nil
}

// ValidateServer checks the keys only the sync server needs.
func (c *AppConfig) ValidateServer() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	return nil
}

// TelegramEnabled reports whether the Telegram fallback channel is configured.
func (c *AppConfig) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
