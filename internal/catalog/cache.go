package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Proton-105/parfum-bot/internal/order"
	"github.com/Proton-105/parfum-bot/pkg/metrics"
)

// Cache holds the latest catalog snapshot. A snapshot is replaced wholesale on
// every successful refresh and kept as-is when a refresh fails.
type Cache struct {
	source Source
	log    *slog.Logger

	mu       sync.RWMutex
	entries  []Entry
	byName   map[string]Entry
	live     bool
	loadedAt time.Time
}

// NewCache creates an empty Cache backed by source.
func NewCache(source Source, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}

	return &Cache{
		source: source,
		log:    log,
		byName: make(map[string]Entry),
	}
}

// Refresh reloads the snapshot from the source and returns the number of
// entries now served. On failure the previous snapshot stays, or the fallback
// list is installed if nothing was ever loaded; the fetch error is returned.
func (c *Cache) Refresh(ctx context.Context) (int, error) {
	entries, err := c.source.Fetch(ctx)
	if err != nil {
		c.mu.Lock()
		if !c.live && len(c.entries) == 0 {
			c.installLocked(Fallback(), false)
			c.log.Warn("catalog unavailable, using fallback list", slog.Any("error", err))
		} else {
			c.log.Warn("catalog refresh failed, keeping previous snapshot",
				slog.Int("entries", len(c.entries)),
				slog.Any("error", err),
			)
		}
		count := len(c.entries)
		c.mu.Unlock()

		metrics.RecordCatalogRefresh(err, count)
		return count, err
	}

	c.mu.Lock()
	c.installLocked(entries, true)
	count := len(c.entries)
	c.mu.Unlock()

	c.log.Info("catalog refreshed", slog.Int("entries", count))
	metrics.RecordCatalogRefresh(nil, count)
	return count, nil
}

func (c *Cache) installLocked(entries []Entry, live bool) {
	snapshot := make([]Entry, len(entries))
	copy(snapshot, entries)

	byName := make(map[string]Entry, len(snapshot))
	for _, e := range snapshot {
		key := strings.ToLower(e.Name)
		if _, exists := byName[key]; !exists {
			byName[key] = e
		}
	}

	c.entries = snapshot
	c.byName = byName
	c.live = live
	c.loadedAt = time.Now().UTC()
}

// Search returns entries whose name contains keyword, ignoring case. An empty
// keyword returns every entry.
func (c *Cache) Search(keyword string) []Entry {
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0)
	for _, e := range c.entries {
		if keyword == "" || strings.Contains(strings.ToLower(e.Name), keyword) {
			out = append(out, e)
		}
	}
	return out
}

// Lookup finds the entry whose name equals name, ignoring case.
func (c *Cache) Lookup(name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// CategoryOf returns the category of the entry named name.
func (c *Cache) CategoryOf(name string) (order.Category, bool) {
	e, ok := c.Lookup(name)
	if !ok {
		return "", false
	}
	return e.Category, true
}

// Len returns the number of entries served.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Live reports whether the snapshot came from the source rather than the
// fallback list.
func (c *Cache) Live() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.live
}

// LoadedAt returns when the current snapshot was installed.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
