package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line is not JSON: %q", line)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("warn", "json", &buf)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message", errors.New("boom"))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines at warn level, got %d: %s", len(lines), buf.String())
	}
	if lines[0]["message"] != "warn message" || lines[0]["level"] != "warn" {
		t.Fatalf("unexpected first line %v", lines[0])
	}
	if lines[1]["error"] != "boom" {
		t.Fatalf("expected error field, got %v", lines[1])
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("debug", "json", &buf)

	l.Info("processed", "message_id", "m1", "attempts", 2, "payload", []byte("{}"),
		"cause", errors.New("nope"), "elapsed", 1500*time.Millisecond, "dangling")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	line := lines[0]
	if line["message_id"] != "m1" {
		t.Fatalf("missing string field: %v", line)
	}
	if line["attempts"] != float64(2) {
		t.Fatalf("missing int field: %v", line)
	}
	if line["payload"] != "{}" {
		t.Fatalf("byte payload should be logged as string: %v", line)
	}
	if line["cause"] != "nope" {
		t.Fatalf("error field should carry its message: %v", line)
	}
	if _, ok := line["dangling"]; ok {
		t.Fatalf("dangling key must be dropped: %v", line)
	}
	if line["service"] != "pdf-extractor" {
		t.Fatalf("missing service field: %v", line)
	}
}

func TestLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("info", "console", &buf)
	l.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "k=") {
		t.Fatalf("unexpected console output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
