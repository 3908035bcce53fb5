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

// Package paths resolves the runtime socket, database, and config file
// locations from XDG environment conventions, with HOME-relative fallbacks.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the three resolved filesystem locations the daemon needs.
type Paths struct {
	Socket string
	Data   string
	Config string
}

// Resolve computes Paths from the current environment. It does not touch
// the filesystem; callers needing the socket directory to exist should call
// EnsureSocketDir.
func Resolve() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("paths: resolve home directory: %w", err)
	}

	return &Paths{
		Socket: socketPath(home),
		Data:   dataPath(home),
		Config: configPath(home),
	}, nil
}

func socketPath(home string) string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "wayclip", "wayclip.sock")
	}
	return filepath.Join("/tmp", fmt.Sprintf("wayclip-%d", os.Getuid()), "wayclip.sock")
}

func dataPath(home string) string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "wayclip", "history.db")
	}
	return filepath.Join(home, ".local", "share", "wayclip", "history.db")
}

func configPath(home string) string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "wayclip", "config.toml")
	}
	return filepath.Join(home, ".config", "wayclip", "config.toml")
}

// EnsureSocketDir creates the socket's parent directory with mode 0700 and
// unlinks any stale socket file left over from a previous run.
func (p *Paths) EnsureSocketDir() error {
	dir := filepath.Dir(p.Socket)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("paths: create socket directory %s: %w", dir, err)
	}
	if _, err := os.Stat(p.Socket); err == nil {
		if err := os.Remove(p.Socket); err != nil {
			return fmt.Errorf("paths: remove stale socket %s: %w", p.Socket, err)
		}
	}
	return nil
}

// EnsureDataDir creates the database file's parent directory.
func (p *Paths) EnsureDataDir() error {
	dir := filepath.Dir(p.Data)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("paths: create data directory %s: %w", dir, err)
	}
	return nil
}
