package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"

	"tmiclient/pkg/logger"
)

type CacheOptions struct {
	Capacity int
	TTL      time.Duration

	// FilePath enables JSON persistence. Entries are loaded on start and
	// written back every FlushInterval and on Close.
	FilePath      string
	FlushInterval time.Duration
}

// Cache is a string-keyed otter cache with write-expiry and optional
// persistence to a JSON file.
type Cache[T any] struct {
	log   logger.Logger
	inner *otter.Cache[string, T]
	opts  CacheOptions

	flushMu   sync.Mutex
	stopFlush chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewCache[T any](log logger.Logger, opts CacheOptions) *Cache[T] {
	if opts.Capacity <= 0 {
		opts.Capacity = 1024
	}

	o := &otter.Options[string, T]{
		MaximumSize:     opts.Capacity,
		InitialCapacity: min(opts.Capacity, 64),
	}
	if opts.TTL > 0 {
		o.ExpiryCalculator = otter.ExpiryWriting[string, T](opts.TTL)
	}

	c := &Cache[T]{
		log:       log,
		inner:     otter.Must(o),
		opts:      opts,
		stopFlush: make(chan struct{}),
	}

	if opts.FilePath != "" {
		if err := c.loadFromDisk(); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to load cache file", slog.String("path", opts.FilePath), slog.Any("error", err))
		}
		if opts.FlushInterval > 0 {
			c.wg.Add(1)
			go c.periodicFlush(opts.FlushInterval)
		}
	}

	return c
}

func (c *Cache[T]) Set(key string, val T) {
	c.inner.Set(key, val)
}

func (c *Cache[T]) Get(key string) (T, bool) {
	return c.inner.GetIfPresent(key)
}

func (c *Cache[T]) Len() int {
	return c.inner.EstimatedSize()
}

func (c *Cache[T]) ClearKey(key string) {
	c.inner.Invalidate(key)
}

func (c *Cache[T]) ClearAll() {
	c.inner.InvalidateAll()
}

func (c *Cache[T]) FlushToDisk() error {
	if c.opts.FilePath == "" {
		return nil
	}

	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	items := make(map[string]T)
	for k, v := range c.inner.All() {
		items[k] = v
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.opts.FilePath), ".cache-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.opts.FilePath)
}

func (c *Cache[T]) periodicFlush(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.FlushToDisk(); err != nil {
				c.log.Error("Failed to flush cache", err, slog.String("path", c.opts.FilePath))
			}
		case <-c.stopFlush:
			return
		}
	}
}

func (c *Cache[T]) loadFromDisk() error {
	data, err := os.ReadFile(c.opts.FilePath)
	if err != nil {
		return err
	}

	var items map[string]T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	for k, v := range items {
		c.inner.Set(k, v)
	}
	return nil
}

// Close stops the flush loop and writes the cache out one last time.
func (c *Cache[T]) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stopFlush)
		c.wg.Wait()
		err = c.FlushToDisk()
	})
	return err
}
