package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Telegram holds the credentials needed to talk to the remote API.
type Telegram struct {
	APIID   int
	APIHash string
	Session string
	Channel string // normalized channel identifier (no @, no t.me prefix)
}

// Sync holds the knobs of one reconciliation run.
type Sync struct {
	DownloadMedia      bool
	MediaMaxBytes      int64
	InitialLimit       int // 0 = import the whole history
	RefreshLastN       int
	MediaDownloadScope int
	MaxRetries         int
	Backoff            time.Duration
	SiteURL            string
	DryRun             bool
	GenerateSiteFiles  bool
	AllowIndexing      bool
	AnalyticsID        string
	SubscribeLink      string
	PromoText          string
}

// Config is the full application configuration.
type Config struct {
	AppEnv    string
	Debug     bool
	Version   string
	SentryDSN string
	LogLevel  slog.Level
	DocsDir   string
	Telegram  Telegram
	Sync      Sync
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present so local runs behave like the scheduled job.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	apiID, err := strconv.Atoi(os.Getenv("TG_API_ID"))
	if err != nil {
		return nil, fmt.Errorf("invalid TG_API_ID: %w", err)
	}

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "production"),
		Debug:     envBool("DEBUG", false),
		Version:   getEnv("VERSION", "dev"),
		SentryDSN: getEnv("SENTRY_DSN", ""),
		LogLevel:  parseLevel(getEnv("LOG_LEVEL", "INFO")),
		DocsDir:   getEnv("DOCS_DIR", "docs"),
		Telegram: Telegram{
			APIID:   apiID,
			APIHash: os.Getenv("TG_API_HASH"),
			Session: os.Getenv("TG_SESSION"),
			Channel: CleanChannel(os.Getenv("TG_CHANNEL")),
		},
		Sync: Sync{
			DownloadMedia:      envBool("DOWNLOAD_MEDIA", true),
			MediaMaxBytes:      int64(max(1, envInt("MEDIA_MAX_MB", 200))) * 1024 * 1024,
			InitialLimit:       envInt("INITIAL_FETCH_LIMIT", 0),
			RefreshLastN:       envInt("REFRESH_LAST_N", 500),
			MediaDownloadScope: envInt("MEDIA_DOWNLOAD_SCOPE", 200),
			MaxRetries:         envInt("MAX_RETRIES", 3),
			Backoff:            time.Duration(envInt("BACKOFF_SECONDS", 2)) * time.Second,
			SiteURL:            NormalizeSiteURL(strings.TrimSpace(firstEnv("FEED_SITE_URL", "SITE_URL"))),
			DryRun:             envBool("DRY_RUN", false),
			GenerateSiteFiles:  envBool("GENERATE_SITE_FILES", true),
			AllowIndexing:      envBool("SEO", true),
			AnalyticsID:        getEnv("ANALYTICS_ID", ""),
			SubscribeLink:      getEnv("CHANNEL_SPECIFIC_LINK", ""),
			PromoText:          getEnv("PROMO_TEXT", ""),
		},
	}

	if cfg.Telegram.APIHash == "" || cfg.Telegram.Session == "" || cfg.Telegram.Channel == "" {
		return nil, fmt.Errorf("TG_API_HASH, TG_SESSION and TG_CHANNEL are required")
	}
	return cfg, nil
}

// CleanChannel normalizes a channel identifier: t.me links and @-prefixed
// usernames are reduced to the bare username.
func CleanChannel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://t.me/")
	s = strings.TrimPrefix(s, "@")
	return s
}

// NormalizeSiteURL guarantees a trailing slash on non-empty base URLs so
// relative joins behave.
func NormalizeSiteURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasSuffix(raw, "/") {
		return raw
	}
	return raw + "/"
}

// InferGitHubPagesURL derives the deployed site URL from the GITHUB_*
// variables set by Actions, so the scheduled job does not need SITE_URL.
func InferGitHubPagesURL() string {
	owner := strings.TrimSpace(os.Getenv("GITHUB_REPOSITORY_OWNER"))
	repo := strings.TrimSpace(os.Getenv("GITHUB_REPOSITORY"))
	name := ""
	if repo != "" {
		if i := strings.Index(repo, "/"); i >= 0 {
			if owner == "" {
				owner = repo[:i]
			}
			name = repo[i+1:]
		} else {
			name = repo
		}
	}
	if owner == "" || name == "" {
		return ""
	}
	if strings.EqualFold(name, owner+".github.io") {
		return NormalizeSiteURL(fmt.Sprintf("https://%s.github.io/", owner))
	}
	return NormalizeSiteURL(fmt.Sprintf("https://%s.github.io/%s/", owner, name))
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
