package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
)

func TestLogger_WritesKeyValueFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelInfo).Named("sync").With("team_season_id", 7)

	logger.WarnContext(context.Background(), "worksheet not found", "match", "01: Leek (A)", "error", errors.New("boom"))
	logger.Debug("dropped below level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := sonic.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "worksheet not found" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["level"] != "warn" {
		t.Fatalf("unexpected level: %v", entry["level"])
	}
	if entry["component"] != "sync" {
		t.Fatalf("unexpected component: %v", entry["component"])
	}
	if entry["match"] != "01: Leek (A)" {
		t.Fatalf("unexpected match field: %v", entry["match"])
	}
	if entry["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", entry["error"])
	}
	if got, _ := entry["team_season_id"].(float64); got != 7 {
		t.Fatalf("unexpected team_season_id: %v", entry["team_season_id"])
	}
}

func TestLogger_NilReceiverFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic on nil logger", "odd")
	if logger.Sync() != nil {
		t.Fatalf("expected nil sync error for nil logger")
	}
}
