package connpool

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Opener opens a pooled handle for a connection string.
type Opener func(ctx context.Context, dsn string) (*gorm.DB, error)

// Cache keeps at most one live pool per tenant. Each tenant has its own
// lock so a slow open for one shop never blocks the others. Failed opens
// are not cached.
type Cache struct {
	open Opener
	log  *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu  sync.Mutex
	db  *gorm.DB
	dsn string
}

func New(open Opener, log *zap.Logger) *Cache {
	return &Cache{
		open:    open,
		log:     log.Named("tenant.connpool"),
		entries: make(map[string]*entry),
	}
}

func (c *Cache) entryFor(tenantID string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[tenantID]
	if !ok {
		e = &entry{}
		c.entries[tenantID] = e
	}
	return e
}

// Get returns the cached pool for tenantID or opens one from dsn.
func (c *Cache) Get(ctx context.Context, tenantID, dsn string) (*gorm.DB, error) {
	if tenantID == "" {
		return nil, errors.New("tenant id is required")
	}
	e := c.entryFor(tenantID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db != nil {
		if e.dsn != dsn {
			c.log.Warn("tenant connection string changed, keeping existing pool",
				zap.String("tenant_id", tenantID),
			)
		}
		return e.db, nil
	}

	conn, err := c.open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	e.db = conn
	e.dsn = dsn
	c.log.Info("tenant pool opened", zap.String("tenant_id", tenantID))
	return conn, nil
}

// Len reports how many tenants hold an open pool.
func (c *Cache) Len() int {
	c.mu.Lock()
	entries := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.Unlock()

	n := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.db != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// Close closes every pool. Called on shutdown.
func (c *Cache) Close() error {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	var errs []error
	for tenantID, e := range entries {
		e.mu.Lock()
		if e.db != nil {
			if sqlDB, err := e.db.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					errs = append(errs, err)
					c.log.Warn("close tenant pool", zap.String("tenant_id", tenantID), zap.Error(err))
				}
			}
			e.db = nil
		}
		e.mu.Unlock()
	}
	return errors.Join(errs...)
}
