/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon's immutable-after-load configuration (config.toml).
type Config struct {
	Store     StoreConfig     `toml:"store"`
	Clipboard ClipboardConfig `toml:"clipboard"`
	Logging   LoggingConfig   `toml:"logging"`
	Replay    ReplayConfig    `toml:"replay"`
}

// StoreConfig bounds the history store's size and age.
type StoreConfig struct {
	MaxEntries        uint32 `toml:"max_entries"`
	MaxEntrySizeBytes uint64 `toml:"max_entry_size_bytes"`
	MinEntrySizeBytes uint64 `toml:"min_entry_size_bytes"`
	MaxAgeDays        uint32 `toml:"max_age_days"`
}

// ClipboardConfig carries the reserved, inert ignore-pattern lists the
// source repository defines but never consults (spec §9 Open Questions).
type ClipboardConfig struct {
	IgnoreMimePatterns []string `toml:"ignore_mime_patterns"`
	IgnoreAppPatterns  []string `toml:"ignore_app_patterns"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	LogFile    string `toml:"log_file"`
	MaxAge     int    `toml:"max_age_days"`
	MaxSize    int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// ReplayConfig configures how the Replayer invokes the external copy tool.
type ReplayConfig struct {
	CopyCommand           string `toml:"copy_command"`
	CommandTimeoutSeconds int    `toml:"command_timeout_seconds"`
}

// LoadFrom decodes the config at configPath, writing defaults first if the
// file does not yet exist.
func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefault(configPath); err != nil {
			return nil, fmt.Errorf("config: create default config: %w", err)
		}
	}

	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", configPath, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.MaxEntries == 0 {
		cfg.Store.MaxEntries = 1000
	}
	if cfg.Store.MaxEntrySizeBytes == 0 {
		cfg.Store.MaxEntrySizeBytes = 10 * 1024 * 1024
	}
	if cfg.Store.MinEntrySizeBytes == 0 {
		cfg.Store.MinEntrySizeBytes = 1
	}
	// MaxAgeDays == 0 is a legitimate "disable age pruning" value (spec §3),
	// so it is left as decoded rather than defaulted.

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.LogFile == "" {
		cfg.Logging.LogFile = "~/.local/share/wayclip/wayclipd.log"
	}
	if cfg.Logging.MaxAge <= 0 {
		cfg.Logging.MaxAge = 10
	}
	if cfg.Logging.MaxSize <= 0 {
		cfg.Logging.MaxSize = 10
	}
	if cfg.Logging.MaxBackups <= 0 {
		cfg.Logging.MaxBackups = 10
	}

	if cfg.Replay.CopyCommand == "" {
		cfg.Replay.CopyCommand = "wl-copy"
	}
	if cfg.Replay.CommandTimeoutSeconds <= 0 {
		cfg.Replay.CommandTimeoutSeconds = 2
	}
}

// ExpandLogFile expands a leading ~/ in a configured path to the user's home
// directory, the same convention the teacher's logging setup uses.
func ExpandLogFile(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

func createDefault(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(`[store]
max_entries = 1000
max_entry_size_bytes = 10485760   # 10 MiB
min_entry_size_bytes = 1
max_age_days = 30                 # 0 disables age pruning

[clipboard]
# Reserved for future filtering; accepted and validated but not consulted.
ignore_mime_patterns = []
ignore_app_patterns = []

[logging]
level = "info"                              # debug, info, warn, error
log_file = "~/.local/share/wayclip/wayclipd.log"
max_age_days = 10
max_size_mb = 10
max_backups = 10

[replay]
copy_command = "wl-copy"
command_timeout_seconds = 2
`)
	return err
}
