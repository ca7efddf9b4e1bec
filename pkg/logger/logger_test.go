package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupWritesToWriter(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup("warn", "json", &buf)
	slog.Info("hidden")
	WithComponent("indexer").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, `"component":"indexer"`) || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestFromContext(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup("debug", "text", &buf)
	FromContext(WithRunID(context.Background(), "abc123")).Debug("step")
	FromContext(context.Background()).Debug("bare")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "run_id=abc123") {
		t.Errorf("run id missing: %s", lines[0])
	}
	if strings.Contains(lines[1], "run_id") {
		t.Errorf("unexpected run id: %s", lines[1])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
