package storage

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing to report image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Options{
		Dir:           t.TempDir(),
		URLPrefix:     "/uploads",
		MaxFileSize:   1024,
		MaxAvatarSize: 512,
		Retention:     time.Hour,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return s
}

func TestNew_CreatesDirectories(t *testing.T) {
	s := newTestStore(t)

	for _, sub := range []string{filesDir, avatarsDir} {
		info, err := os.Stat(filepath.Join(s.dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSaveFile(t *testing.T) {
	s := newTestStore(t)

	stored, err := s.SaveFile(strings.NewReader("meeting notes"), "notes.TXT")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.Filename, "file-"))
	assert.True(t, strings.HasSuffix(stored.Filename, ".txt"))
	assert.Equal(t, "notes.TXT", stored.OriginalName)
	assert.Equal(t, "text/plain", stored.Mimetype)
	assert.Equal(t, int64(len("meeting notes")), stored.Size)
	assert.Equal(t, "/uploads/files/"+stored.Filename, stored.Path)
	assert.Equal(t, 1, s.Tracked())

	data, err := os.ReadFile(filepath.Join(s.dir, filesDir, stored.Filename))
	require.NoError(t, err)
	assert.Equal(t, "meeting notes", string(data))
}

func TestSaveFile_Rejections(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveFile(bytes.NewReader(nil), "empty.txt")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = s.SaveFile(bytes.NewReader(bytes.Repeat([]byte("a"), 1025)), "big.txt")
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = s.SaveFile(strings.NewReader("<html><script>alert(1)</script></html>"), "x.html")
	assert.ErrorIs(t, err, ErrTypeNotAllowed)

	_, err = s.SaveFile(bytes.NewReader(append([]byte("MZ\x90\x00"), make([]byte, 64)...)), "setup.exe")
	assert.ErrorIs(t, err, ErrTypeNotAllowed)

	assert.Equal(t, 0, s.Tracked())
}

func TestSaveFile_ExtensionFallback(t *testing.T) {
	s := newTestStore(t)

	stored, err := s.SaveFile(bytes.NewReader(pngHeader), "../../etc/weird name.p n g")
	require.NoError(t, err)

	assert.Equal(t, ".png", filepath.Ext(stored.Filename))
	assert.Equal(t, "weird name.p n g", stored.OriginalName)
}

func TestSaveAvatar(t *testing.T) {
	s := newTestStore(t)

	stored, err := s.SaveAvatar(bytes.NewReader(pngHeader), "me.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Filename, "avatar-"))
	assert.Equal(t, "/uploads/avatars/"+stored.Filename, stored.Path)
	assert.Equal(t, "image/png", stored.Mimetype)

	// Avatars never expire
	assert.Equal(t, 0, s.Tracked())

	_, err = s.SaveAvatar(strings.NewReader("just text"), "me.png")
	assert.ErrorIs(t, err, ErrTypeNotAllowed)

	_, err = s.SaveAvatar(bytes.NewReader(append(pngHeader, make([]byte, 512)...)), "huge.png")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestRemoveAvatar(t *testing.T) {
	s := newTestStore(t)

	stored, err := s.SaveAvatar(bytes.NewReader(pngHeader), "me.png")
	require.NoError(t, err)
	file := filepath.Join(s.dir, avatarsDir, stored.Filename)
	require.FileExists(t, file)

	require.NoError(t, s.RemoveAvatar(stored))
	assert.NoFileExists(t, file)

	// Removing twice is fine
	assert.NoError(t, s.RemoveAvatar(stored))
}

func TestCleanup(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	old, err := s.SaveFile(strings.NewReader("old"), "old.txt")
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(50 * time.Minute) }
	fresh, err := s.SaveFile(strings.NewReader("fresh"), "fresh.txt")
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(61 * time.Minute) }
	assert.Equal(t, 1, s.Cleanup())
	assert.Equal(t, 1, s.Tracked())

	_, err = os.Stat(filepath.Join(s.dir, filesDir, old.Filename))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(s.dir, filesDir, fresh.Filename))
	assert.NoError(t, err)

	// Already gone from disk still counts as cleaned up
	s.now = func() time.Time { return start.Add(3 * time.Hour) }
	require.NoError(t, os.Remove(filepath.Join(s.dir, filesDir, fresh.Filename)))
	assert.Equal(t, 1, s.Cleanup())
	assert.Equal(t, 0, s.Tracked())
}

func TestNew_TracksExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, filesDir), 0o755))
	leftover := filepath.Join(dir, filesDir, "file-leftover.txt")
	require.NoError(t, os.WriteFile(leftover, []byte("x"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(leftover, past, past))

	s, err := New(Options{Dir: dir, MaxFileSize: 1024, MaxAvatarSize: 1024, Retention: 24 * time.Hour,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Tracked())

	assert.Equal(t, 1, s.Cleanup())
	_, err = os.Stat(leftover)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
