// Package cache keeps judge replies on disk, keyed by model and prompt, so that
// re-evaluating the same traces does not repeat the same model calls.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Entry is one cached judge reply.
type Entry struct {
	Model     string    `json:"model"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache provides caching for judge replies
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory. An empty dir
// disables the cache.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Key generates the cache key for a judge prompt sent to model.
func Key(model, prompt string) string {
	h := sha256.New()
	// writes to a hash never fail
	_ = writeString(h, model)
	_ = writeString(h, prompt)
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached reply if it exists
func (c *Cache) Get(key string) (string, bool) {
	if c == nil || c.dir == "" {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return "", false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Invalid cache entry, treat as miss
		return "", false
	}

	return entry.Reply, true
}

// Put stores a reply in the cache
func (c *Cache) Put(key, model, reply string) error {
	if c == nil || c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(Entry{Model: model, Reply: reply, CreatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return nil
}

// Len returns the number of cached replies.
func (c *Cache) Len() int {
	if c == nil || c.dir == "" {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.entryFiles()
	if err != nil {
		return 0
	}
	return len(names)
}

// Clear deletes the cached replies and returns how many were removed. Only files
// named like cache keys are touched; the directory and anything else in it stay.
func (c *Cache) Clear() (int, error) {
	if c == nil || c.dir == "" {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.entryFiles()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range names {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("removing cache entry: %w", err)
		}
		removed++
	}

	slog.Debug("Cleared judge cache", "dir", c.dir, "removed", removed)
	return removed, nil
}

// entryFiles lists the cache entry file names in the directory. c.mu must be held.
func (c *Cache) entryFiles() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isEntryName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// isEntryName reports whether name is a [Key] followed by ".json".
func isEntryName(name string) bool {
	key, ok := strings.CutSuffix(name, ".json")
	if !ok || len(key) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}

// cachePath returns the file path for a cache key
func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func writeString(w io.Writer, s string) error {
	// null byte delimiter prevents "ab"+"c" colliding with "a"+"bc"
	_, err := w.Write([]byte(s + "\x00"))
	return err
}
