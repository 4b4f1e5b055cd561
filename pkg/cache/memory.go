// Package cache provides a thread-safe, in-memory key-value store with
// TTL-based expiration and active memory management (eviction).
package cache

import (
	"sort"
	"sync"
	"time"

	"villamedia/pkg/logger"
	"villamedia/pkg/utils"
)

const (
	DefaultMaxSize = 100 // MB
	DefaultTTL     = 30 * time.Minute

	// DefaultMaxItemSize keeps large originals out of the heap; they are
	// served straight from the file store instead.
	DefaultMaxItemSize = 512 * 1024

	GCInterval      = 5 * time.Minute
	MonitorInterval = 30 * time.Minute
)

var log = logger.New("cache")

type Options struct {
	Enabled     bool
	MaxSizeMB   int
	TTL         time.Duration
	MaxItemSize int64
}

type Item struct {
	Data      []byte
	ExpiresAt time.Time
	Size      int64
}

type MemoryCache struct {
	sync.RWMutex
	items       map[string]Item
	totalSize   int64
	maxSize     int64
	maxItemSize int64
	ttl         time.Duration
	enabled     bool
	stop        chan struct{}
	stopOnce    sync.Once
}

// New initializes the cache and, when enabled, starts the GC and monitor
// workers. Call Stop to end them.
func New(opts Options) *MemoryCache {
	limitMB := int64(opts.MaxSizeMB)
	if limitMB <= 0 {
		limitMB = DefaultMaxSize
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	maxItem := opts.MaxItemSize
	if maxItem <= 0 {
		maxItem = DefaultMaxItemSize
	}

	c := &MemoryCache{
		maxSize:     limitMB * 1024 * 1024,
		maxItemSize: maxItem,
		ttl:         ttl,
		enabled:     opts.Enabled,
		stop:        make(chan struct{}),
	}

	if c.enabled {
		c.items = make(map[string]Item)

		go c.startGC()
		go c.startMonitor()

		log.Info("Memory cache initialized: %d MB limit, TTL: %s", limitMB, ttl)
	} else {
		log.Warn("Memory cache is DISABLED via config (running in pass-through mode).")
	}
	return c
}

// Stop ends the background workers. Safe to call more than once.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Set stores a value with the configured TTL. Items over the per-item limit
// or over half the total capacity are skipped.
func (c *MemoryCache) Set(key string, data []byte) {
	if !c.enabled {
		return
	}

	c.Lock()
	defer c.Unlock()

	size := int64(len(data))
	if size > c.maxSize/2 || size > c.maxItemSize {
		return
	}

	if oldItem, exists := c.items[key]; exists {
		c.totalSize -= oldItem.Size
		delete(c.items, key)
	}

	if c.totalSize+size > c.maxSize {
		c.prune()
	}

	c.items[key] = Item{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
		Size:      size,
	}
	c.totalSize += size
}

// Get retrieves an item if it exists and hasn't expired.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	c.RLock()
	defer c.RUnlock()

	item, found := c.items[key]
	if !found || time.Now().After(item.ExpiresAt) {
		return nil, false
	}
	return item.Data, true
}

// Delete explicitly removes an item from the cache.
func (c *MemoryCache) Delete(key string) {
	if !c.enabled {
		return
	}

	c.Lock()
	defer c.Unlock()

	if item, found := c.items[key]; found {
		delete(c.items, key)
		c.totalSize -= item.Size
	}
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.items)
}

// prune evicts the soonest-expiring items until usage drops to 80%.
// Caller holds the write lock.
func (c *MemoryCache) prune() {
	if len(c.items) == 0 {
		return
	}

	targetSize := int64(float64(c.maxSize) * 0.80)

	type candidate struct {
		Key       string
		ExpiresAt time.Time
		Size      int64
	}

	candidates := make([]candidate, 0, len(c.items))
	for k, v := range c.items {
		candidates = append(candidates, candidate{k, v.ExpiresAt, v.Size})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ExpiresAt.Before(candidates[j].ExpiresAt)
	})

	for _, cand := range candidates {
		if c.totalSize <= targetSize {
			break
		}
		delete(c.items, cand.Key)
		c.totalSize -= cand.Size
	}
}

func (c *MemoryCache) startGC() {
	ticker := time.NewTicker(GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}

		c.Lock()
		now := time.Now()
		removedCount := 0
		removedBytes := int64(0)
		for k, v := range c.items {
			if now.After(v.ExpiresAt) {
				delete(c.items, k)
				c.totalSize -= v.Size
				removedBytes += v.Size
				removedCount++
			}
		}
		c.Unlock()

		if removedCount > 0 {
			log.Debug("GC: cleaned %d items (%s freed)", removedCount, utils.FormatBytes(removedBytes))
		}
	}
}

func (c *MemoryCache) startMonitor() {
	ticker := time.NewTicker(MonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}

		c.RLock()
		count := len(c.items)
		used := c.totalSize
		max := c.maxSize
		c.RUnlock()

		if count == 0 {
			continue
		}

		percent := (float64(used) / float64(max)) * 100
		log.Info("%d items | usage: %s / %s (%.2f%%)",
			count,
			utils.FormatBytes(used),
			utils.FormatBytes(max),
			percent,
		)
	}
}
