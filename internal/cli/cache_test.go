package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/familytree/pkg/cache"
)

func TestNewCache(t *testing.T) {
	ctx := context.Background()

	t.Run("no-cache flag", func(t *testing.T) {
		c := &CLI{Config: DefaultConfig()}
		store, err := c.newCache(ctx, true)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := store.(*cache.NullCache); !ok {
			t.Errorf("newCache(noCache) = %T, want *cache.NullCache", store)
		}
	})

	t.Run("disabled in config", func(t *testing.T) {
		c := &CLI{Config: DefaultConfig()}
		c.Config.Cache.Disabled = true
		store, err := c.newCache(ctx, false)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := store.(*cache.NullCache); !ok {
			t.Errorf("newCache() = %T, want *cache.NullCache", store)
		}
	})

	t.Run("configured directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "cache")
		c := &CLI{Config: DefaultConfig()}
		c.Config.Cache.Dir = dir
		store, err := c.newCache(ctx, false)
		if err != nil {
			t.Fatal(err)
		}
		fc, ok := store.(*cache.FileCache)
		if !ok {
			t.Fatalf("newCache() = %T, want *cache.FileCache", store)
		}
		if fc.Dir() != dir {
			t.Errorf("Dir() = %q, want %q", fc.Dir(), dir)
		}
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("cache directory not created: %v", err)
		}
	})

	t.Run("xdg default", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", home)
		c := &CLI{Config: DefaultConfig()}
		store, err := c.newCache(ctx, false)
		if err != nil {
			t.Fatal(err)
		}
		fc, ok := store.(*cache.FileCache)
		if !ok {
			t.Fatalf("newCache() = %T, want *cache.FileCache", store)
		}
		if want := filepath.Join(home, appName); fc.Dir() != want {
			t.Errorf("Dir() = %q, want %q", fc.Dir(), want)
		}
	})
}
