package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	key1 := Key("gpt-4", "Evaluate this output")
	assert.Len(t, key1, 64) // SHA256 hex is 64 chars
	assert.Equal(t, key1, Key("gpt-4", "Evaluate this output"))

	assert.NotEqual(t, key1, Key("gpt-4o", "Evaluate this output"), "model changes key")
	assert.NotEqual(t, key1, Key("gpt-4", "Evaluate this output."), "prompt changes key")
}

func TestKey_NoHashCollision(t *testing.T) {
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func TestCache_GetPut(t *testing.T) {
	c := New(t.TempDir())
	key := Key("gpt-4", "prompt")

	_, found := c.Get(key)
	assert.False(t, found)

	require.NoError(t, c.Put(key, "gpt-4", "SCORE: 0.8\nREASON: fine"))

	reply, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, "SCORE: 0.8\nREASON: fine", reply)
	assert.Equal(t, 1, c.Len())
}

func TestCache_InvalidEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))

	_, found := c.Get("broken")
	assert.False(t, found)
}

func TestCache_Clear(t *testing.T) {
	cacheDir := t.TempDir()
	c := New(cacheDir)

	key1, key2 := Key("m", "a"), Key("m", "b")
	require.NoError(t, c.Put(key1, "m", "a"))
	require.NoError(t, c.Put(key2, "m", "b"))

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Zero(t, c.Len())

	_, found := c.Get(key1)
	assert.False(t, found)

	_, err = os.Stat(cacheDir)
	assert.NoError(t, err, "the directory itself is kept")
}

func TestCache_EmptyDir(t *testing.T) {
	c := New("")

	require.NoError(t, c.Put("key", "m", "reply"))
	_, found := c.Get("key")
	assert.False(t, found)
	assert.Zero(t, c.Len())
	removed, err := c.Clear()
	assert.NoError(t, err)
	assert.Zero(t, removed)

	var nilCache *Cache
	_, found = nilCache.Get("key")
	assert.False(t, found)
	assert.NoError(t, nilCache.Put("key", "m", "reply"))
}

func TestCache_ClearLeavesOtherFiles(t *testing.T) {
	cacheDir := t.TempDir()
	c := New(cacheDir)
	require.NoError(t, c.Put(Key("m", "p"), "m", "reply"))
	require.NoError(t, os.Mkdir(filepath.Join(cacheDir, "subdir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "notes.txt"), []byte("keep"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "settings.json"), []byte("{}"), 0644))
	assert.Equal(t, 1, c.Len())

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	for _, name := range []string{"subdir", "notes.txt", "settings.json"} {
		_, err := os.Stat(filepath.Join(cacheDir, name))
		assert.NoError(t, err, name)
	}
}

func TestCache_ClearMissingDir(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "missing"))
	removed, err := c.Clear()
	assert.NoError(t, err)
	assert.Zero(t, removed)
	assert.Zero(t, c.Len())
}

func TestIsEntryName(t *testing.T) {
	assert.True(t, isEntryName(Key("m", "p")+".json"))
	assert.False(t, isEntryName(Key("m", "p")))
	assert.False(t, isEntryName("settings.json"))
	assert.False(t, isEntryName(strings.Repeat("z", 64)+".json"))
}

func TestCache_ConcurrentOperations(t *testing.T) {
	c := New(t.TempDir())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := Key("m", fmt.Sprintf("prompt-%d", i))
			assert.NoError(t, c.Put(key, "m", fmt.Sprintf("reply-%d", i)))
			reply, found := c.Get(key)
			assert.True(t, found)
			assert.Equal(t, fmt.Sprintf("reply-%d", i), reply)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, c.Len())
}
