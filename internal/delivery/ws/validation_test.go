package ws

import (
	"strings"
	"testing"
)

func TestIsUploadPath(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/uploads/files/file-0b9e6c2a-7f1d-4c8e-9a3b-2d4f6e8a0c1b.png", true},
		{"/uploads/files/file-0b9e6c2a-7f1d-4c8e-9a3b-2d4f6e8a0c1b", true},
		{"", false},
		{"https://evil.example/x.png", false},
		{"javascript:alert(1)", false},
		{"/uploads/../config.go", false},
		{"/uploads/files/file-0b9e6c2a-7f1d-4c8e-9a3b-2d4f6e8a0c1b.png?x=1", false},
		{"/uploads/avatars/avatar-0b9e6c2a-7f1d-4c8e-9a3b-2d4f6e8a0c1b.png", false},
	}

	for _, tc := range tests {
		if got := IsUploadPath(tc.path); got != tc.expected {
			t.Errorf("IsUploadPath(%q) = %v, expected %v", tc.path, got, tc.expected)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal name", "Global", "Global"},
		{"Empty stays empty", "", ""},
		{"Whitespace only", "   ", ""},
		{"HTML tags stripped", "<b>alice</b>", "alice"},
		{"Long name truncated", strings.Repeat("a", 100), strings.Repeat("a", MaxNameLength)},
		{"Trim whitespace", "  Room Name  ", "Room Name"},
		{"Control chars removed", "bob\x00\x1F", "bob"},
		{"Unicode kept", "Café ☕", "Café ☕"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeName(tc.input); got != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, got)
			}
		})
	}
}
