package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lookupMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("applies every kind of value", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		err := ApplyEnv(cfg, lookupMap(map[string]string{
			"WIKIGRAPH_DATA_DIR":            "/data",
			"WIKIGRAPH_IN_MEMORY":           "true",
			"WIKIGRAPH_FETCH_WORKERS":       "8",
			"WIKIGRAPH_REVISIT_INTERVAL":    "2m",
			"WIKIGRAPH_REQUESTS_PER_SECOND": "2.5",
			"WIKIGRAPH_MAX_BODY_SIZE":       "1024",
			"WIKIGRAPH_PROXY":               "127.0.0.1:9050",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DataDir != "/data" || !cfg.InMemory || cfg.FetchWorkers != 8 {
			t.Errorf("unexpected config %+v", cfg)
		}
		if cfg.RevisitInterval != 2*time.Minute {
			t.Errorf("expected RevisitInterval 2m, got %v", cfg.RevisitInterval)
		}
		if cfg.RequestsPerSecond != 2.5 {
			t.Errorf("expected RequestsPerSecond 2.5, got %v", cfg.RequestsPerSecond)
		}
		if cfg.MaxBodySize != 1024 {
			t.Errorf("expected MaxBodySize 1024, got %d", cfg.MaxBodySize)
		}
		if cfg.ProxyAddress != "127.0.0.1:9050" {
			t.Errorf("expected proxy address, got %q", cfg.ProxyAddress)
		}
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		if err := ApplyEnv(cfg, lookupMap(map[string]string{"WIKIGRAPH_FETCH_WORKERS": ""})); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.FetchWorkers != DefaultFetchWorkers {
			t.Errorf("expected default FetchWorkers, got %d", cfg.FetchWorkers)
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		err := ApplyEnv(cfg, lookupMap(map[string]string{
			"WIKIGRAPH_FETCH_WORKERS":    "many",
			"WIKIGRAPH_REVISIT_INTERVAL": "soon",
			"WIKIGRAPH_VERBOSE":          "perhaps",
		}))
		if !errors.Is(err, ErrInvalidEnv) {
			t.Fatalf("expected ErrInvalidEnv, got %v", err)
		}
		var joined interface{ Unwrap() []error }
		if !errors.As(err, &joined) || len(joined.Unwrap()) != 3 {
			t.Errorf("expected three errors, got %v", err)
		}
		if cfg.FetchWorkers != DefaultFetchWorkers {
			t.Errorf("expected FetchWorkers to be untouched, got %d", cfg.FetchWorkers)
		}
	})
}

func TestLoadEnv(t *testing.T) {
	t.Parallel()

	t.Run("missing dotenv file is ignored", func(t *testing.T) {
		t.Parallel()
		if err := LoadEnv(NewConfig(), filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("reads dotenv file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".env")
		content := "# comment\nWIKIGRAPH_OFFLINE_DIR=/pages\nWIKIGRAPH_CONTINUOUS=1\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg := NewConfig()
		if err := LoadEnv(cfg, path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.OfflineDir != "/pages" {
			t.Errorf("expected OfflineDir /pages, got %q", cfg.OfflineDir)
		}
		if !cfg.Continuous {
			t.Error("expected Continuous to be true")
		}
	})
}
