package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := Default()
	if cfg.Addr != def.Addr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, def.Addr)
	}
	if cfg.SyncIntervalMin != def.SyncIntervalMin {
		t.Errorf("SyncIntervalMin = %d, want %d", cfg.SyncIntervalMin, def.SyncIntervalMin)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	content := `
addr = ":9000"
sync_secret = "hunter2"
sync_interval_min = 30
hold_ttl_minutes = 45
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":9000")
	}
	if cfg.SyncSecret != "hunter2" {
		t.Errorf("SyncSecret = %q, want %q", cfg.SyncSecret, "hunter2")
	}
	if cfg.SyncIntervalMin != 30 {
		t.Errorf("SyncIntervalMin = %d, want 30", cfg.SyncIntervalMin)
	}
	if cfg.HoldTTLMinutes != 45 {
		t.Errorf("HoldTTLMinutes = %d, want 45", cfg.HoldTTLMinutes)
	}
	// Unset fields keep defaults.
	if cfg.SyncWorkers != 4 {
		t.Errorf("SyncWorkers = %d, want 4", cfg.SyncWorkers)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte("sync_workers = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() with sync_workers = 0 expected error, got nil")
	}
}
