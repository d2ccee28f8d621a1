package rircache

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Cache is an LRU of emitted artifacts, optionally backed by a Store.
// A store hit is promoted into the LRU.
type Cache struct {
	recent *lru.Cache[string, []byte]
	store  Store
	logger *zap.Logger
}

func New(size int, store Store, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	recent, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, errors.Wrap(err, "new artifact cache")
	}
	return &Cache{recent: recent, store: store, logger: logger}, nil
}

// Get returns the artifact for key. Store failures are logged and reported
// as misses.
func (c *Cache) Get(key string) ([]byte, bool) {
	if data, ok := c.recent.Get(key); ok {
		return data, true
	}
	if c.store == nil {
		return nil, false
	}
	data, err := c.store.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("artifact store lookup failed", zap.Error(err))
		}
		return nil, false
	}
	c.recent.Add(key, data)
	return data, true
}

func (c *Cache) Put(key string, session uuid.UUID, data []byte) error {
	c.recent.Add(key, data)
	if c.store == nil {
		return nil
	}
	return c.store.Put(key, session, data)
}

func (c *Cache) Len() int {
	return c.recent.Len()
}

func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
