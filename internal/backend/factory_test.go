package backend

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kakeibo/internal/config"
	"kakeibo/internal/kv"
	"kakeibo/internal/kv/memory"
	"kakeibo/internal/log"
	"kakeibo/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("unknown backend should fail")
	}

	got, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil {
		t.Fatalf("FromAppConfig() = %v", err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != "x.db" {
		t.Errorf("unexpected backend config %+v", got)
	}
}

func TestCreateMemoryBackendFromDump(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "localstorage.json")
	body := `{"kakeibo_last_hourly_wage":"1100","kakeibo_expenses":"[]"}`
	if err := os.WriteFile(dump, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, MemorySeedFile: dump})
	if err != nil {
		t.Fatalf("CreateBackend() = %v", err)
	}
	defer res.Close()

	if _, ok := res.Store.(*memory.Store); !ok {
		t.Fatalf("expected a memory store, got %T", res.Store)
	}
	wage, err := res.Store.Get(context.Background(), kv.KeyLastHourlyWage)
	if err != nil || string(wage) != "1100" {
		t.Fatalf("seeded wage = %q, %v", wage, err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kakeibo.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend() = %v", err)
	}
	if _, ok := res.Store.(*storage.SQLiteStore); !ok {
		t.Fatalf("expected a SQLite store, got %T", res.Store)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
}

func TestCreateSQLiteBackendReopensExistingData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kakeibo.db")
	cfg := Config{Type: SQLiteBackend, SQLiteDBPath: path}

	res, err := NewFactory(nil).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("CreateBackend() = %v", err)
	}
	for _, key := range []string{kv.KeyShifts, kv.KeyLastHourlyWage} {
		if err := res.Store.Set(ctx, key, []byte(`[]`)); err != nil {
			t.Fatalf("Set(%s) = %v", key, err)
		}
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	res, err = NewFactory(logger).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer res.Close()

	out := buf.String()
	if !strings.Contains(out, "Initialized SQLite backend") || !strings.Contains(out, "count=2") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	for _, cfg := range []Config{{Type: "sheets"}, {Type: SQLiteBackend}} {
		if _, err := NewFactory(nil).CreateBackend(context.Background(), cfg); err == nil {
			t.Errorf("CreateBackend(%+v) should fail", cfg)
		}
	}
}
