package cache

import (
	"context"
	"testing"
	"time"
)

func TestLocalCache(t *testing.T) {
	config := LocalConfig{
		MaxSize:           100,
		DefaultExpiration: 5 * time.Minute,
		CleanupInterval:   10 * time.Minute,
	}

	cache := NewLocalCache(config)
	defer cache.Close()

	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		key := "test_key"
		value := "test_value"

		err := cache.Set(ctx, key, value, 1*time.Minute)
		if err != nil {
			t.Errorf("Failed to set cache: %v", err)
		}

		if retrieved, exists := cache.Get(ctx, key); !exists {
			t.Error("Cache value not found")
		} else if retrieved != value {
			t.Errorf("Expected %v, got %v", value, retrieved)
		}
	})

	t.Run("Expired entry is gone", func(t *testing.T) {
		key := "expiring_key"
		if err := cache.Set(ctx, key, 1, 10*time.Millisecond); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
		if _, exists := cache.Get(ctx, key); exists {
			t.Error("Expected expired entry to be gone")
		}
	})

	t.Run("Increment claims from zero", func(t *testing.T) {
		n, err := cache.Increment(ctx, "counter", 1)
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected first increment to return 1, got %d", n)
		}

		n, err = cache.Increment(ctx, "counter", 1)
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if n != 2 {
			t.Errorf("Expected second increment to return 2, got %d", n)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := cache.Set(ctx, "gone", "v", time.Minute); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
		if err := cache.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if cache.Exists(ctx, "gone") {
			t.Error("Expected key to be deleted")
		}
	})
}

func TestGoCache(t *testing.T) {
	cache := NewGoCache(LocalConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	})
	defer cache.Close()

	ctx := context.Background()

	if err := cache.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok := cache.Get(ctx, "k"); !ok || v != "v" {
		t.Errorf("Expected v, got %v (exists=%v)", v, ok)
	}

	n, err := cache.Increment(ctx, "n", 5)
	if err != nil || n != 5 {
		t.Errorf("Expected 5, got %d (err=%v)", n, err)
	}
	n, err = cache.Increment(ctx, "n", 5)
	if err != nil || n != 10 {
		t.Errorf("Expected 10, got %d (err=%v)", n, err)
	}
}

func TestNewCacheFactory(t *testing.T) {
	c, err := NewCache(Config{Type: "local"})
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	c.Close()

	if _, err := NewCache(Config{Type: "bogus"}); err == nil {
		t.Error("Expected error for unsupported cache type")
	}
}
