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

// Package store implements the bounded, content-addressed clipboard history:
// a single SQLite table deduplicated by SHA-256 hash, ranked by last access,
// evicted by count and pruned by age.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	_ "github.com/mattn/go-sqlite3"
)

// ContentType classifies a stored payload.
type ContentType string

const (
	ContentTypeText  ContentType = "Text"
	ContentTypeImage ContentType = "Image"
)

var (
	// ErrNotFound is returned by Get/Touch/Delete when no live row has the id.
	ErrNotFound = errors.New("store: entry not found")
	// ErrRejected is returned by Put when the payload falls outside the
	// configured size band.
	ErrRejected = errors.New("store: payload size out of bounds")
)

// ClipboardSnapshot is the observer's transient output, handed to Put.
type ClipboardSnapshot struct {
	MimeType    string
	ContentType ContentType
	Data        []byte
}

// HistoryEntry is one persisted, deduplicated snapshot.
type HistoryEntry struct {
	ID             int64
	ContentType    ContentType
	MimeType       string
	Data           []byte
	Preview        string
	Hash           string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Config bounds entry count, entry size, and entry age.
type Config struct {
	MaxEntries        uint32
	MaxEntrySizeBytes uint64
	MinEntrySizeBytes uint64
	MaxAgeDays        uint32
}

// Store is a SQLite-backed, thread-safe history of clipboard snapshots.
// All mutations are serialized through mu; SQLite itself serializes writers
// across connections, but the single mutex keeps read-modify-write sequences
// (dedup lookup + insert/update, eviction) atomic from the caller's view.
type Store struct {
	db  *sql.DB
	cfg Config
	mu  sync.Mutex
}

// New opens (creating if absent) the SQLite database at dbPath and ensures
// the schema exists.
func New(dbPath string, cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_type TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			data BLOB NOT NULL,
			preview TEXT NOT NULL,
			hash TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL,
			last_accessed_at INTEGER NOT NULL
		)
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_entries_last_accessed ON entries(last_accessed_at DESC)`)
	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts a novel snapshot or touches the existing row sharing its hash.
// It returns the entry's id and whether a new row was inserted.
func (s *Store) Put(snap ClipboardSnapshot) (id int64, inserted bool, err error) {
	size := uint64(len(snap.Data))
	if size < s.cfg.MinEntrySizeBytes || size > s.cfg.MaxEntrySizeBytes {
		return 0, false, ErrRejected
	}

	hash := sha256Hex(snap.Data)
	preview := computePreview(snap.ContentType, snap.MimeType, snap.Data)
	now := time.Now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, false, fmt.Errorf("store: begin put transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.QueryRow(`SELECT id FROM entries WHERE hash = ?`, hash).Scan(&existingID)
	switch {
	case err == nil:
		if _, err := tx.Exec(`UPDATE entries SET last_accessed_at = ? WHERE id = ?`, now, existingID); err != nil {
			return 0, false, fmt.Errorf("store: touch on put: %w", err)
		}
		id, inserted = existingID, false
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec(
			`INSERT INTO entries (content_type, mime_type, data, preview, hash, created_at, last_accessed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(snap.ContentType), snap.MimeType, snap.Data, preview, hash, now, now,
		)
		if err != nil {
			return 0, false, fmt.Errorf("store: insert: %w", err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("store: read inserted id: %w", err)
		}
		id, inserted = newID, true
	default:
		return 0, false, fmt.Errorf("store: dedup lookup: %w", err)
	}

	if inserted && s.cfg.MaxEntries > 0 {
		if err := evictOverflow(tx, s.cfg.MaxEntries); err != nil {
			return 0, false, fmt.Errorf("store: evict overflow: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("store: commit put: %w", err)
	}
	return id, inserted, nil
}

func evictOverflow(tx *sql.Tx, maxEntries uint32) error {
	var count uint32
	if err := tx.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count); err != nil {
		return err
	}
	if count <= maxEntries {
		return nil
	}
	overflow := count - maxEntries
	_, err := tx.Exec(
		`DELETE FROM entries WHERE id IN (
			SELECT id FROM entries ORDER BY last_accessed_at ASC, id ASC LIMIT ?
		)`,
		overflow,
	)
	return err
}

// List returns entries ranked by (last_accessed_at desc, id desc), optionally
// filtered by a case-insensitive substring of preview or (for Text) data, and
// optionally capped to limit entries.
func (s *Store) List(limit int, query string) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlQuery := `SELECT id, content_type, mime_type, data, preview, hash, created_at, last_accessed_at
		FROM entries`
	args := []interface{}{}

	if query != "" {
		sqlQuery += ` WHERE preview LIKE ? ESCAPE '\'
			OR (content_type = ? AND data LIKE ? ESCAPE '\')`
		like := "%" + escapeLike(query) + "%"
		args = append(args, like, string(ContentTypeText), like)
	}

	sqlQuery += ` ORDER BY last_accessed_at DESC, id DESC`
	if limit > 0 {
		sqlQuery += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan list row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the entry with the given id.
func (s *Store) Get(id int64) (HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		`SELECT id, content_type, mime_type, data, preview, hash, created_at, last_accessed_at
		 FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryEntry{}, ErrNotFound
	}
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("store: get: %w", err)
	}
	return e, nil
}

// Touch bumps last_accessed_at on the entry to now.
func (s *Store) Touch(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE entries SET last_accessed_at = ? WHERE id = ?`, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("store: touch: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the entry with the given id.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	return requireAffected(res)
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM entries`)
	if err != nil {
		return fmt.Errorf("store: clear: %w", err)
	}
	return nil
}

// Prune deletes entries older than MaxAgeDays, returning the count removed.
// A zero MaxAgeDays disables age pruning entirely.
func (s *Store) Prune() (int64, error) {
	if s.cfg.MaxAgeDays == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(s.cfg.MaxAgeDays) * 24 * time.Hour).Unix()
	res, err := s.db.Exec(`DELETE FROM entries WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: prune rows affected: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(r rowScanner) (HistoryEntry, error) {
	var (
		e           HistoryEntry
		contentType string
		createdAt   int64
		accessedAt  int64
	)
	if err := r.Scan(&e.ID, &contentType, &e.MimeType, &e.Data, &e.Preview, &e.Hash, &createdAt, &accessedAt); err != nil {
		return HistoryEntry{}, err
	}
	e.ContentType = ContentType(contentType)
	e.CreatedAt = time.Unix(createdAt, 0)
	e.LastAccessedAt = time.Unix(accessedAt, 0)
	return e, nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

const previewMaxRunes = 200

// computePreview derives the short human-readable string stored alongside
// an entry: collapsed text for Text payloads, a synthetic label for Image.
func computePreview(ct ContentType, mimeType string, data []byte) string {
	if ct == ContentTypeImage {
		return fmt.Sprintf("[Image: %s, %d B]", mimeType, len(data))
	}

	var b strings.Builder
	count := 0
	lastWasSpace := false
	for _, r := range string(data) {
		if count >= previewMaxRunes {
			break
		}
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		if r == ' ' {
			if lastWasSpace {
				continue
			}
			lastWasSpace = true
		} else {
			if !unicode.IsPrint(r) {
				continue
			}
			lastWasSpace = false
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimSpace(b.String())
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
