// Package cache stores compiled programs in a SQLite database so repeated
// compiles of the same source skip the parser and compiler.
//
// A compile's output depends on the source text, the indentation unit and
// the set of names already registered as functions, so all three make up the
// key. An entry also records the names the compile registered; replaying
// them on a hit leaves the compiler in the state a real compile would have.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS compiled (
	key        TEXT PRIMARY KEY,
	output     TEXT NOT NULL,
	functions  TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`

// Entry is one cached compile.
type Entry struct {
	Output    string
	Functions []string // names registered by the compile
}

type Cache struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema in %s: %w", path, err)
	}
	log.Printf("cache: opened %s", path)
	return &Cache{db: db, path: path}, nil
}

// Key derives the cache key of a compile.
func Key(indent string, functions []string, source string) string {
	h := sha256.New()
	for _, part := range []string{indent, strings.Join(functions, ","), source} {
		fmt.Fprintf(h, "%d:%s;", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the entry stored under key. ok is false on a miss.
func (c *Cache) Get(key string) (entry Entry, ok bool, err error) {
	var functions string
	row := c.db.QueryRow(`SELECT output, functions FROM compiled WHERE key = ?`, key)
	if err := row.Scan(&entry.Output, &functions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("reading cache: %w", err)
	}
	if functions != "" {
		entry.Functions = strings.Split(functions, ",")
	}
	return entry, true, nil
}

// Put stores entry under key, replacing any previous one.
func (c *Cache) Put(key string, entry Entry) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO compiled (key, output, functions, created_at) VALUES (?, ?, ?, ?)`,
		key, entry.Output, strings.Join(entry.Functions, ","), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Len returns the number of stored entries.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM compiled`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

func (c *Cache) Path() string {
	return c.path
}

func (c *Cache) Close() error {
	return c.db.Close()
}
