package research

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// maxCacheSize bounds the used-story log to the most recent entries
const maxCacheSize = 50

// Cache is the durable record of recently used story IDs. The orchestrator
// adds an ID only after narration succeeds, so a story whose synthesis
// failed stays eligible for later runs.
type Cache struct {
	path string
	ids  []string
	seen map[string]bool
}

// OpenCache loads the cache file, tolerating a missing or corrupt file by
// starting empty.
func OpenCache(path string) *Cache {
	c := &Cache{path: path, seen: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var stored struct {
		UsedIDs []string `json:"used_ids"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return c
	}
	for _, id := range stored.UsedIDs {
		if !c.seen[id] {
			c.ids = append(c.ids, id)
			c.seen[id] = true
		}
	}
	return c
}

// Contains reports whether the story ID has been used recently
func (c *Cache) Contains(id string) bool { return c.seen[id] }

// IDs returns all cached story IDs, oldest first
func (c *Cache) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Add records a story ID and persists the cache, evicting the oldest
// entries past the size bound.
func (c *Cache) Add(id string) error {
	if !c.seen[id] {
		c.ids = append(c.ids, id)
		c.seen[id] = true
	}
	if len(c.ids) > maxCacheSize {
		for _, old := range c.ids[:len(c.ids)-maxCacheSize] {
			delete(c.seen, old)
		}
		c.ids = c.ids[len(c.ids)-maxCacheSize:]
	}
	return c.save()
}

func (c *Cache) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(struct {
		UsedIDs []string `json:"used_ids"`
	}{UsedIDs: c.ids}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}
