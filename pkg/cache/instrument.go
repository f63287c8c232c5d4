package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/familytree/pkg/observability"
)

// Instrument wraps c so that hits, misses and writes are reported to the
// registered observability cache hooks. The key type is the first
// colon-separated key segment naming a kind ("http", "layout", "artifact"),
// so keys from a [ScopedKeyer] are classified like unscoped ones.
func Instrument(c Cache) Cache {
	return &instrumented{inner: c}
}

type instrumented struct {
	inner Cache
}

func keyType(key string) string {
	for _, seg := range strings.Split(key, ":") {
		switch seg {
		case "http", "layout", "artifact":
			return seg
		}
	}
	return "other"
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.inner.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.inner.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

func (c *instrumented) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

func (c *instrumented) Close() error { return c.inner.Close() }

// Clear forwards to the wrapped cache when it supports clearing.
func (c *instrumented) Clear(ctx context.Context) (int, error) {
	if cl, ok := c.inner.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return 0, nil
}
