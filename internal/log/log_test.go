package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLogHTTPEnd_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{500, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Component: ComponentHTTP, Output: &buf}))
		r := httptest.NewRequest("GET", "/api/summaries?x=1", nil)

		sl.LogHTTPEnd(context.Background(), r, tt.status, 12, "10.0.0.1", "req-1", "u1")

		out := buf.String()
		for _, want := range []string{tt.level, "component=http", "path=/api/summaries", "user_id=u1", "request_id=req-1"} {
			if !strings.Contains(out, want) {
				t.Errorf("status %d: %q missing from %q", tt.status, want, out)
			}
		}
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Component: ComponentWorker, Output: &buf}))

	sl.LogError(context.Background(), "Export failed", errors.New("quota"), OpExport, NewFields().WithUser("u1"))

	out := buf.String()
	for _, want := range []string{"level=ERROR", "error=quota", "operation=export", "component=worker"} {
		if !strings.Contains(out, want) {
			t.Errorf("%q missing from %q", want, out)
		}
	}
}
