// Package storage keeps uploaded chat files and avatars on local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds its size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrTypeNotAllowed is returned when the detected content type is not accepted
	ErrTypeNotAllowed = errors.New("file type not allowed")

	// ErrEmptyFile is returned for zero-byte uploads
	ErrEmptyFile = errors.New("empty file")
)

const (
	filesDir   = "files"
	avatarsDir = "avatars"
)

// chatFileTypes lists accepted chat file types. Entries ending in "/" match a prefix.
var chatFileTypes = []string{
	"image/",
	"text/",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/zip",
	"application/x-rar-compressed",
}

// Served from our own origin these could run script in the page
var blockedTypes = []string{"text/html", "image/svg+xml"}

var extRegex = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// Options configures a Store
type Options struct {
	Dir           string // root upload directory, served at URLPrefix
	URLPrefix     string
	MaxFileSize   int64
	MaxAvatarSize int64
	Retention     time.Duration
	Logger        *slog.Logger
}

// Stored describes a saved upload
type Stored struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Mimetype     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	Path         string    `json:"path"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Store saves uploads and expires chat files after the retention period.
// Avatars are kept forever.
type Store struct {
	mu      sync.Mutex
	uploads map[string]time.Time // chat file name -> upload time

	dir       string
	urlPrefix string
	maxFile   int64
	maxAvatar int64
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// New creates the upload directories and starts tracking chat files already on disk
func New(opts Options) (*Store, error) {
	s := &Store{
		uploads:   make(map[string]time.Time),
		dir:       opts.Dir,
		urlPrefix: strings.TrimSuffix(opts.URLPrefix, "/"),
		maxFile:   opts.MaxFileSize,
		maxAvatar: opts.MaxAvatarSize,
		retention: opts.Retention,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if s.urlPrefix == "" {
		s.urlPrefix = "/uploads"
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	for _, sub := range []string{filesDir, avatarsDir} {
		if err := os.MkdirAll(filepath.Join(s.dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, filesDir))
	if err != nil {
		return nil, fmt.Errorf("failed to scan upload directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		s.uploads[e.Name()] = info.ModTime()
	}

	return s, nil
}

// SaveFile stores a chat file. It is deleted by Cleanup once the retention period passes.
func (s *Store) SaveFile(r io.Reader, originalName string) (*Stored, error) {
	stored, err := s.save(r, originalName, filesDir, "file", s.maxFile, chatFileAllowed)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.uploads[stored.Filename] = stored.UploadedAt
	s.mu.Unlock()

	return stored, nil
}

// SaveAvatar stores a profile picture. Only images are accepted.
func (s *Store) SaveAvatar(r io.Reader, originalName string) (*Stored, error) {
	return s.save(r, originalName, avatarsDir, "avatar", s.maxAvatar, func(m string) bool {
		return strings.HasPrefix(m, "image/") && !blocked(m)
	})
}

func (s *Store) save(r io.Reader, originalName, sub, prefix string, limit int64, allowed func(string) bool) (*Stored, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > limit {
		return nil, ErrFileTooLarge
	}

	detected := mimetype.Detect(data)
	mime := baseType(detected.String())
	if !allowed(mime) {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotAllowed, mime)
	}

	name := prefix + "-" + uuid.NewString() + extension(originalName, detected)
	if err := os.WriteFile(filepath.Join(s.dir, sub, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	return &Stored{
		Filename:     name,
		OriginalName: filepath.Base(originalName),
		Mimetype:     mime,
		Size:         int64(len(data)),
		Path:         path.Join(s.urlPrefix, sub, name),
		UploadedAt:   s.now(),
	}, nil
}

// Cleanup deletes chat files older than the retention period and returns how many were removed
func (s *Store) Cleanup() int {
	cutoff := s.now().Add(-s.retention)

	s.mu.Lock()
	var expired []string
	for name, at := range s.uploads {
		if at.Before(cutoff) {
			expired = append(expired, name)
			delete(s.uploads, name)
		}
	}
	s.mu.Unlock()

	removed := 0
	for _, name := range expired {
		err := os.Remove(filepath.Join(s.dir, filesDir, name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Error("failed to delete expired upload", "file", name, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("expired uploads removed", "count", removed)
	}
	return removed
}

// Run cleans up once immediately and then every interval until ctx is cancelled
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	s.Cleanup()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

// RemoveAvatar deletes an avatar saved by SaveAvatar. A missing file is not an error.
func (s *Store) RemoveAvatar(stored *Stored) error {
	err := os.Remove(filepath.Join(s.dir, avatarsDir, filepath.Base(stored.Filename)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove avatar: %w", err)
	}
	return nil
}

// Tracked returns the number of chat files awaiting expiry
func (s *Store) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

func chatFileAllowed(m string) bool {
	if blocked(m) {
		return false
	}
	for _, t := range chatFileTypes {
		if m == t || (strings.HasSuffix(t, "/") && strings.HasPrefix(m, t)) {
			return true
		}
	}
	return false
}

func blocked(m string) bool {
	for _, t := range blockedTypes {
		if m == t {
			return true
		}
	}
	return false
}

// baseType drops parameters such as "; charset=utf-8"
func baseType(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.TrimSpace(strings.ToLower(m))
}

// extension keeps the client's extension when it is plain, else uses the detected one
func extension(originalName string, detected *mimetype.MIME) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if extRegex.MatchString(ext) {
		return ext
	}
	return detected.Extension()
}
