package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jbudget/internal/config"
	"jbudget/internal/core"
	"jbudget/internal/log"
	"jbudget/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	got, err := FromAppConfig(&config.Config{
		DataBackend:      "xml",
		DataDir:          "/tmp/data",
		TransactionsFile: "tx.xml",
		TagsFile:         "tags.xml",
		SQLiteDBPath:     "/tmp/db.sqlite",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	want := Config{
		Type:             XMLBackend,
		DataDirectory:    "/tmp/data",
		TransactionsFile: "tx.xml",
		TagsFile:         "tags.xml",
		SQLiteDBPath:     "/tmp/db.sqlite",
	}
	if got != want {
		t.Errorf("FromAppConfig() = %+v, want %+v", got, want)
	}
	if got.WithType(SQLiteBackend).SQLiteDBPath != "/tmp/db.sqlite" {
		t.Error("WithType must keep path settings")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"unknown type", Config{Type: "sheets"}, "invalid backend type"},
		{"xml without dir", Config{Type: XMLBackend, TransactionsFile: "a", TagsFile: "b"}, "data directory"},
		{"xml without files", Config{Type: XMLBackend, DataDirectory: "d"}, "file names"},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"memory", Config{Type: MemoryBackend}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := strings.Join(GetBackendTypeStrings(), ",")
	if got != "xml,sqlite,memory" {
		t.Errorf("GetBackendTypeStrings() = %s", got)
	}
}

func TestDefaultFactory_CreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.txt")
	if err := os.WriteFile(seed, []byte("Food/Pizza\nCar\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	configs := map[string]Config{
		"xml": {
			Type:             XMLBackend,
			DataDirectory:    filepath.Join(dir, "xml"),
			TransactionsFile: "transactions.xml",
			TagsFile:         "tags.xml",
		},
		"sqlite": {Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "jbudget.db")},
		"memory": {Type: MemoryBackend, TagsSeedFile: seed},
	}

	factory := NewFactory(log.Discard())
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			result, err := factory.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer result.Close()

			tags := []core.Tag{{ID: "2", Name: "Food"}}
			if err := result.Store.SaveTags(ctx, tags); err != nil {
				t.Fatalf("SaveTags() error = %v", err)
			}
			loaded, err := result.Store.LoadTags(ctx)
			if err != nil {
				t.Fatalf("LoadTags() error = %v", err)
			}
			if len(loaded) != 1 || loaded[0] != tags[0] {
				t.Errorf("LoadTags() = %v, want %v", loaded, tags)
			}
		})
	}

	t.Run("memory seed", func(t *testing.T) {
		result, err := factory.CreateBackend(ctx, configs["memory"])
		if err != nil {
			t.Fatal(err)
		}
		tags, _ := result.Store.LoadTags(ctx)
		if len(tags) != 3 {
			t.Errorf("seeded %d tags, want 3", len(tags))
		}
		if _, ok := result.Store.(*storage.MemoryStore); !ok {
			t.Errorf("memory backend returned %T", result.Store)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		if _, err := factory.CreateBackend(ctx, Config{Type: SQLiteBackend}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestBackendResult_CloseWithoutCleanup(t *testing.T) {
	var nilResult *BackendResult
	if err := nilResult.Close(); err != nil {
		t.Errorf("Close() on nil result = %v", err)
	}
	if err := (&BackendResult{}).Close(); err != nil {
		t.Errorf("Close() without cleanup = %v", err)
	}
}
