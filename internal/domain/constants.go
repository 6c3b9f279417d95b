package domain

import "time"

// ==== Identity ====

// BotName is the sender name used for system messages
const BotName = "Chat Together"

// Version is shown in the welcome message
const Version = "1.1.6"

// ==== Roles ====

const (
	RoleUser  = "user"
	RoleMod   = "mod"
	RoleAdmin = "admin"
)

// CanModerate reports whether a role may delete messages and kick users
func CanModerate(role string) bool {
	return role == RoleAdmin || role == RoleMod
}

// ==== WebSocket Constants ====

// MaxMessageSize is the maximum allowed WebSocket message size in bytes
const MaxMessageSize = 16384

// SendBufferSize is the per-connection outbound queue length
const SendBufferSize = 256

// ==== Account Constants ====

// MinCredentialLength applies to both username and password at registration
const MinCredentialLength = 3

// TokenTTL is the default login token time-to-live
const TokenTTL = 24 * time.Hour

// ==== Upload Constants ====

const (
	// MaxFileSize limits chat file uploads
	MaxFileSize = 10 << 20

	// MaxAvatarSize limits avatar uploads
	MaxAvatarSize = 5 << 20

	// FileRetention is how long chat files are kept on disk
	FileRetention = 24 * time.Hour

	// CleanupInterval is how often expired chat files are removed
	CleanupInterval = 6 * time.Hour
)
