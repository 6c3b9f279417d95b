package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mmuslimabdulj/chat-together/internal/domain"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port            string
	ShutdownTimeout time.Duration

	// Security
	AllowedOrigins []string
	JWTSecret      string
	TokenTTL       time.Duration

	// Logging
	LogLevel string

	// WebSocket
	MaxMessageSize int

	// Storage
	DatabasePath string
	PublicDir    string
	UploadDir    string

	// Uploads
	MaxFileSize     int64
	MaxAvatarSize   int64
	FileRetention   time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:            "7070",
		ShutdownTimeout: 30 * time.Second,
		AllowedOrigins:  []string{"http://localhost:7070"},
		JWTSecret:       "change-me-in-production",
		TokenTTL:        domain.TokenTTL,
		LogLevel:        "info", // Options: debug, info, warn, error, silent
		MaxMessageSize:  domain.MaxMessageSize,
		DatabasePath:    "data/chat.db",
		PublicDir:       "public",
		UploadDir:       "public/uploads",
		MaxFileSize:     domain.MaxFileSize,
		MaxAvatarSize:   domain.MaxAvatarSize,
		FileRetention:   domain.FileRetention,
		CleanupInterval: domain.CleanupInterval,
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	// Server
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if secs := positiveInt("SHUTDOWN_TIMEOUT_SECONDS"); secs > 0 {
		cfg.ShutdownTimeout = time.Duration(secs) * time.Second
	}

	// Security
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if hours := positiveInt("TOKEN_TTL_HOURS"); hours > 0 {
		cfg.TokenTTL = time.Duration(hours) * time.Hour
	}

	// Logging
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	// WebSocket
	if size := positiveInt("MAX_MESSAGE_SIZE"); size > 0 {
		cfg.MaxMessageSize = size
	}

	// Storage
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.DatabasePath = path
	}
	if dir := os.Getenv("PUBLIC_DIR"); dir != "" {
		cfg.PublicDir = dir
	}
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		cfg.UploadDir = dir
	}

	// Uploads
	if mb := positiveInt("MAX_FILE_SIZE_MB"); mb > 0 {
		cfg.MaxFileSize = int64(mb) << 20
	}
	if mb := positiveInt("MAX_AVATAR_SIZE_MB"); mb > 0 {
		cfg.MaxAvatarSize = int64(mb) << 20
	}
	if hours := positiveInt("FILE_RETENTION_HOURS"); hours > 0 {
		cfg.FileRetention = time.Duration(hours) * time.Hour
	}
	if hours := positiveInt("CLEANUP_INTERVAL_HOURS"); hours > 0 {
		cfg.CleanupInterval = time.Duration(hours) * time.Hour
	}

	return cfg
}

// NewLogger builds the application logger. "silent" and "off" discard everything.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "silent", "off":
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// positiveInt reads an integer variable, returning 0 when unset or invalid
func positiveInt(key string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0
	}
	return val
}

// parseOrigins parses comma-separated origins
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// IsOriginAllowed checks if the origin is in the allowed list.
// An empty origin is a same-origin request.
func (c *Config) IsOriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}
