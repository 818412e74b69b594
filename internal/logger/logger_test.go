package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/Strob0t/crm/internal/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewAddsServiceAndContextFields(t *testing.T) {
	var buf bytes.Buffer
	l, closer := newLogger(&buf, config.Logging{Level: "info", Service: "crm-test"})
	defer closer.Close()

	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), 42)
	l.InfoContext(ctx, "hello")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	got := lines[0]
	if got["service"] != "crm-test" || got["request_id"] != "req-1" || got["user_id"] != float64(42) {
		t.Fatalf("unexpected record: %v", got)
	}
}

func TestNewOmitsEmptyContextFields(t *testing.T) {
	var buf bytes.Buffer
	l, _ := newLogger(&buf, config.Logging{Level: "info"})

	l.Info("plain")

	got := decodeLines(t, &buf)[0]
	for _, key := range []string{"service", "request_id", "user_id"} {
		if _, ok := got[key]; ok {
			t.Errorf("unexpected %s in %v", key, got)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, _ := newLogger(&buf, config.Logging{Level: "warn"})

	l.Info("dropped")
	l.Warn("kept")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "kept" {
		t.Fatalf("unexpected output: %v", lines)
	}
}

func TestNewAsyncFlushesOnClose(t *testing.T) {
	var buf bytes.Buffer
	l, closer := newLogger(&buf, config.Logging{Level: "debug", Async: true})

	for range 10 {
		l.Debug("queued")
	}
	closer.Close()

	if n := len(decodeLines(t, &buf)); n != 10 {
		t.Fatalf("expected 10 lines after close, got %d", n)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestContextFieldsShareRequestScope(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" || UserID(ctx) != 0 {
		t.Fatal("empty context should carry no fields")
	}

	withReq := WithRequestID(ctx, "req-9")
	derived, cancel := context.WithCancel(withReq)
	defer cancel()
	withBoth := WithUserID(derived, 7)

	if RequestID(withBoth) != "req-9" || UserID(withBoth) != 7 {
		t.Fatalf("fields lost: %q %d", RequestID(withBoth), UserID(withBoth))
	}
	if UserID(withReq) != 7 {
		t.Fatalf("outer request context should see the user ID, got %d", UserID(withReq))
	}

	next := WithRequestID(ctx, "req-10")
	if UserID(next) != 0 {
		t.Fatal("a new request scope must not inherit another request's user ID")
	}
	if RequestID(withReq) != "req-9" {
		t.Fatal("starting a new scope must not touch an existing one")
	}
}

func TestWithUserIDWithoutRequestScope(t *testing.T) {
	ctx := WithUserID(context.Background(), 3)
	if UserID(ctx) != 3 || RequestID(ctx) != "" {
		t.Fatalf("got user %d request %q", UserID(ctx), RequestID(ctx))
	}
}
