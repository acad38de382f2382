// Package media holds the persisted content-addressed caches in front of the
// speech services. Entries never expire; they are only dropped by Purge.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/DoyleJ11/askai-quiz-backend/internal/metrics"
	"github.com/DoyleJ11/askai-quiz-backend/internal/store"
)

const (
	SpeechKey     = "tts_cache_v3"
	TranscriptKey = "transcripts_cache_v1"
)

// Cache is a string map persisted as one JSON object under a single KV key,
// with an in-memory copy in front of it. Writes go through to the KV.
type Cache struct {
	key     string
	kv      store.KV
	log     *zap.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	mem    *cache.Cache
	loaded bool
}

func NewCache(kv store.KV, key string, log *zap.Logger) *Cache {
	return &Cache{
		key: key,
		kv:  kv,
		log: log.Named("cache").With(zap.String("cache", key)),
		mem: cache.New(cache.NoExpiration, 0),
	}
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		c.log.Warn("cache unavailable, treating as miss", zap.Error(err))
		return "", false
	}
	v, ok := c.mem.Get(key)
	c.metrics.ObserveCacheLookup(c.key, ok)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (c *Cache) Put(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}
	c.mem.Set(key, value, cache.NoExpiration)
	return c.persist(ctx)
}

func (c *Cache) Len() int {
	return c.mem.ItemCount()
}

func (c *Cache) Purge(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem.Flush()
	c.loaded = true
	if err := c.kv.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("purge %s: %w", c.key, err)
	}
	return nil
}

func (c *Cache) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	entry, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return err
	}
	if ok {
		var stored map[string]string
		if err := json.Unmarshal(entry.Value, &stored); err != nil {
			c.log.Warn("stored cache is malformed, starting empty", zap.Error(err))
		}
		for k, v := range stored {
			c.mem.Set(k, v, cache.NoExpiration)
		}
	}
	c.loaded = true
	return nil
}

func (c *Cache) persist(ctx context.Context) error {
	items := c.mem.Items()
	snapshot := make(map[string]string, len(items))
	for k, item := range items {
		snapshot[k] = item.Object.(string)
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if _, err := c.kv.Put(ctx, c.key, data, store.AnyVersion); err != nil {
		return fmt.Errorf("persist %s: %w", c.key, err)
	}
	return nil
}

// Caches bundles both media caches so they are purged together.
type Caches struct {
	Speech      *Cache
	Transcripts *Cache
}

func NewCaches(kv store.KV, log *zap.Logger) *Caches {
	return &Caches{
		Speech:      NewCache(kv, SpeechKey, log),
		Transcripts: NewCache(kv, TranscriptKey, log),
	}
}

// WithMetrics records lookups of both caches on m.
func (c *Caches) WithMetrics(m *metrics.Metrics) *Caches {
	c.Speech.metrics = m
	c.Transcripts.metrics = m
	return c
}

func (c *Caches) Purge(ctx context.Context) error {
	return errors.Join(c.Speech.Purge(ctx), c.Transcripts.Purge(ctx))
}
