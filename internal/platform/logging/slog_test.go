package logging

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedSlog(level zapcore.Level) (*slog.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewSlog(FromZap(zap.New(core))), logs
}

func TestSlogHandler_WritesThroughZapCore(t *testing.T) {
	logger, logs := observedSlog(zapcore.InfoLevel)

	logger.InfoContext(context.Background(), "lobby opened", "lobby_id", "l1", "teams", 2)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "lobby opened" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	fields := entries[0].ContextMap()
	if fields["lobby_id"] != "l1" {
		t.Fatalf("expected lobby_id field, got %v", fields)
	}
}

func TestSlogHandler_RespectsLevel(t *testing.T) {
	logger, logs := observedSlog(zapcore.WarnLevel)

	logger.Info("too quiet")
	logger.Warn("loud enough")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "loud enough" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
}

func TestSlogHandler_GroupsPrefixKeys(t *testing.T) {
	logger, logs := observedSlog(zapcore.InfoLevel)

	logger.WithGroup("db").Info("query ran", "table", "lobbies")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["db.table"] != "lobbies" {
		t.Fatalf("expected db.table field, got %v", fields)
	}
}

func TestSlogHandler_NamedErrors(t *testing.T) {
	logger, logs := observedSlog(zapcore.InfoLevel)

	logger.Error("settle failed", "error", fmt.Errorf("boom"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["error"] != "boom" {
		t.Fatalf("expected error field, got %v", fields)
	}
}
