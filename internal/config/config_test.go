package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromCreatesDefaultWhenMissing(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "nested", "wayclip.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected default config file to be written: %v", err)
	}

	if cfg.Store.MaxEntries != 1000 {
		t.Errorf("MaxEntries = %d, want 1000", cfg.Store.MaxEntries)
	}
	if cfg.Store.MaxAgeDays != 30 {
		t.Errorf("MaxAgeDays = %d, want 30", cfg.Store.MaxAgeDays)
	}
	if cfg.Replay.CopyCommand != "wl-copy" {
		t.Errorf("CopyCommand = %q, want wl-copy", cfg.Replay.CopyCommand)
	}
	if cfg.Replay.CommandTimeoutSeconds != 2 {
		t.Errorf("CommandTimeoutSeconds = %d, want 2", cfg.Replay.CommandTimeoutSeconds)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFromDecodesExistingFile(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "wayclip.toml")

	contents := `[store]
max_entries = 50
max_age_days = 0

[clipboard]
ignore_mime_patterns = ["image/*"]
ignore_app_patterns = []

[logging]
level = "debug"

[replay]
copy_command = "/usr/local/bin/wl-copy"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Store.MaxEntries != 50 {
		t.Errorf("MaxEntries = %d, want 50", cfg.Store.MaxEntries)
	}
	if cfg.Store.MaxAgeDays != 0 {
		t.Errorf("MaxAgeDays = %d, want 0 (age pruning disabled)", cfg.Store.MaxAgeDays)
	}
	if len(cfg.Clipboard.IgnoreMimePatterns) != 1 || cfg.Clipboard.IgnoreMimePatterns[0] != "image/*" {
		t.Errorf("IgnoreMimePatterns = %v, want [image/*]", cfg.Clipboard.IgnoreMimePatterns)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// Values not set in the file fall back to applyDefaults.
	if cfg.Replay.CopyCommand != "/usr/local/bin/wl-copy" {
		t.Errorf("CopyCommand = %q, want /usr/local/bin/wl-copy", cfg.Replay.CopyCommand)
	}
	if cfg.Replay.CommandTimeoutSeconds != 2 {
		t.Errorf("CommandTimeoutSeconds = %d, want default 2", cfg.Replay.CommandTimeoutSeconds)
	}
	if cfg.Store.MaxEntrySizeBytes != 10*1024*1024 {
		t.Errorf("MaxEntrySizeBytes = %d, want default 10MiB", cfg.Store.MaxEntrySizeBytes)
	}
}

func TestLoadFromRejectsMalformedFile(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "wayclip.toml")

	if err := os.WriteFile(configPath, []byte("this is not valid = = toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Fatal("expected error decoding malformed config, got nil")
	}
}

func TestExpandLogFile(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	got, err := ExpandLogFile("~/.local/share/wayclip/wayclipd.log")
	if err != nil {
		t.Fatalf("ExpandLogFile: %v", err)
	}
	want := filepath.Join(home, ".local/share/wayclip/wayclipd.log")
	if got != want {
		t.Errorf("ExpandLogFile = %q, want %q", got, want)
	}

	abs := "/var/log/wayclipd.log"
	got, err = ExpandLogFile(abs)
	if err != nil {
		t.Fatalf("ExpandLogFile: %v", err)
	}
	if got != abs {
		t.Errorf("ExpandLogFile(%q) = %q, want unchanged", abs, got)
	}
}
