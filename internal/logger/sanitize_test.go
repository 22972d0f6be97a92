package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{"empty", "", 10, ""},
		{"control characters removed", "/api/auth\x1b[31m/session\n", 100, "/api/auth[31m/session"},
		{"truncated", "abcdefghij", 4, "abcd..."},
		{"invalid utf8 dropped", "ok\xff", 10, "ok"},
		{"default length", "short", 0, "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.input, tt.maxLength); got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.maxLength, got, tt.want)
			}
		})
	}
}

func TestSanitizePath_Truncates(t *testing.T) {
	t.Parallel()

	got := SanitizePath("/" + strings.Repeat("a", MaxPathLength+10))
	if len(got) != MaxPathLength+3 {
		t.Errorf("Expected truncated path of length %d, got %d", MaxPathLength+3, len(got))
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if SanitizeError(nil) != "" {
		t.Error("Expected empty string for nil error")
	}
	if got := SanitizeError(errors.New("lookup failed\r\n")); got != "lookup failed" {
		t.Errorf("SanitizeError() = %q", got)
	}
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"ada@example.com", "a***@example.com"},
		{"x@y.z", "x***@y.z"},
		{"no-at-sign", "***"},
		{"@example.com", "***"},
		{"", "***"},
	}

	for _, tt := range tests {
		if got := MaskEmail(tt.input); got != tt.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
