package metadata

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gemexbase/gemex/internal/metrics"
	"github.com/gemexbase/gemex/pkg/model"
)

// CacheConfig contains configuration for the label cache
type CacheConfig struct {
	// Size is the maximum number of labels kept
	Size int `yaml:"size"`
	// TTL is the time-to-live for resolved labels
	TTL time.Duration `yaml:"ttl"`
	// NegativeTTL is the time-to-live for records known to be missing
	NegativeTTL time.Duration `yaml:"negative_ttl"`
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Size:        5000,
		TTL:         5 * time.Minute,
		NegativeTTL: 30 * time.Second,
	}
}

// LabelFunc builds the display label of a record of entity.
type LabelFunc func(entity string, rec model.Record) string

// LabelCache resolves (entity, id) pairs to display labels through a Fetcher,
// remembering labels for TTL and missing records for NegativeTTL.
type LabelCache struct {
	fetcher  Fetcher
	label    LabelFunc
	config   CacheConfig
	mu       sync.RWMutex
	labels   map[string]*cacheEntry
	negative map[string]time.Time
	now      func() time.Time
}

type cacheEntry struct {
	label     string
	expiresAt time.Time
}

// NewLabelCache creates a LabelCache with the given fetcher and configuration
func NewLabelCache(fetcher Fetcher, label LabelFunc, config CacheConfig) *LabelCache {
	defaults := DefaultCacheConfig()
	if config.Size <= 0 {
		config.Size = defaults.Size
	}
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.NegativeTTL <= 0 {
		config.NegativeTTL = defaults.NegativeTTL
	}

	return &LabelCache{
		fetcher:  fetcher,
		label:    label,
		config:   config,
		labels:   make(map[string]*cacheEntry),
		negative: make(map[string]time.Time),
		now:      time.Now,
	}
}

func cacheKey(entity string, id int64) string {
	return entity + ":" + strconv.FormatInt(id, 10)
}

// Label returns the label of one record, using the cache when possible.
// A missing record yields model.ErrNotFound.
func (c *LabelCache) Label(ctx context.Context, entity string, id int64) (string, error) {
	key := cacheKey(entity, id)
	now := c.now()

	c.mu.RLock()
	if entry, ok := c.labels[key]; ok && now.Before(entry.expiresAt) {
		c.mu.RUnlock()
		metrics.LabelLookups.WithLabelValues(entity, "hit").Inc()
		return entry.label, nil
	}
	if expiresAt, ok := c.negative[key]; ok && now.Before(expiresAt) {
		c.mu.RUnlock()
		metrics.LabelLookups.WithLabelValues(entity, "negative").Inc()
		return "", model.ErrNotFound
	}
	c.mu.RUnlock()

	rec, err := c.fetcher.GetByID(ctx, entity, id)
	if errors.Is(err, model.ErrNotFound) {
		c.mu.Lock()
		c.negative[key] = c.now().Add(c.config.NegativeTTL)
		c.evictIfNeeded()
		c.mu.Unlock()
		metrics.LabelLookups.WithLabelValues(entity, "not_found").Inc()
		return "", err
	}
	if err != nil {
		metrics.LabelLookups.WithLabelValues(entity, "error").Inc()
		return "", err
	}
	metrics.LabelLookups.WithLabelValues(entity, "miss").Inc()

	label := c.label(entity, rec)
	c.add(key, label)
	return label, nil
}

func (c *LabelCache) add(key, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.labels[key] = &cacheEntry{
		label:     label,
		expiresAt: c.now().Add(c.config.TTL),
	}
	delete(c.negative, key)
	c.evictIfNeeded()
}

// Invalidate forgets the label of one record.
func (c *LabelCache) Invalidate(entity string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(entity, id)
	delete(c.labels, key)
	delete(c.negative, key)
}

// Clear removes all entries from the cache
func (c *LabelCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.labels = make(map[string]*cacheEntry)
	c.negative = make(map[string]time.Time)
}

// Size returns the current number of cached labels
func (c *LabelCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.labels)
}

// evictIfNeeded removes expired entries and evicts the oldest if over capacity.
// Caller must hold write lock.
func (c *LabelCache) evictIfNeeded() {
	now := c.now()

	for key, expiresAt := range c.negative {
		if now.After(expiresAt) {
			delete(c.negative, key)
		}
	}
	for key, entry := range c.labels {
		if now.After(entry.expiresAt) {
			delete(c.labels, key)
		}
	}

	for len(c.labels) > c.config.Size {
		var oldestKey string
		var oldestTime time.Time
		for key, entry := range c.labels {
			if oldestKey == "" || entry.expiresAt.Before(oldestTime) {
				oldestKey = key
				oldestTime = entry.expiresAt
			}
		}
		delete(c.labels, oldestKey)
	}
}
