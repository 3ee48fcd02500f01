package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
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
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: ComponentLedger,
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
	logger.Info("hello", FieldKind, "shift")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "kind=shift") {
		t.Fatalf("unexpected output: %s", out)
	}
	if logger.Component() != ComponentLedger {
		t.Fatalf("Component() = %q", logger.Component())
	}
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil)})
	sl := NewStructuredLogger(logger)

	sl.LogError(context.Background(), "write failed", errors.New("disk full"), ComponentStorage, OpUpdate,
		NewFields().WithKey("kakeibo_shifts"))

	out := buf.String()
	for _, want := range []string{"level=ERROR", "error=\"disk full\"", "operation=update", "key=kakeibo_shifts"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}
