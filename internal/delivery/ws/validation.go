package ws

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLength caps usernames and room names, in runes
const MaxNameLength = 50

var (
	// uploadPathRegex matches paths produced by the upload endpoint: /uploads/files/file-<uuid><ext>
	uploadPathRegex = regexp.MustCompile(`^/uploads/files/file-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[a-z0-9]{1,8})?$`)

	htmlTagRegex     = regexp.MustCompile(`<[^>]*>`)
	controlCharRegex = regexp.MustCompile(`[\x00-\x1F\x7F]`)
)

// IsUploadPath reports whether a file message points at a server upload.
// Anything else (external URLs, javascript:, traversal) is rejected.
func IsUploadPath(path string) bool {
	if path == "" {
		return false
	}
	return uploadPathRegex.MatchString(path)
}

// SanitizeName cleans a username or room name from a join request.
// The result may be empty; the registry rejects that.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)

	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}

	name = htmlTagRegex.ReplaceAllString(name, "")
	name = controlCharRegex.ReplaceAllString(name, "")

	return strings.TrimSpace(name)
}
