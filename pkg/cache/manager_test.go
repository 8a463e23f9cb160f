package cache

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis on DB 15 and skips when it is not
// running. tests/integration covers the same paths against a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func TestManager_SetAndGet(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := CacheKey{Endpoint: "/discover/movie", QueryParams: url.Values{"with_genres": []string{"28"}}}
	entry := &CacheEntry{
		Data:         []byte(`{"page":1,"results":[],"total_pages":3}`),
		ETag:         `"abc123"`,
		Expires:      time.Now().Add(5 * time.Minute),
		LastModified: time.Now().Add(-time.Hour),
		StatusCode:   200,
		Headers:      http.Header{"Content-Type": []string{"application/json"}},
		CachedAt:     time.Now(),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(retrieved.Data) != string(entry.Data) {
		t.Errorf("Data mismatch: got %s, want %s", retrieved.Data, entry.Data)
	}
	if retrieved.ETag != entry.ETag {
		t.Errorf("ETag mismatch: got %s, want %s", retrieved.ETag, entry.ETag)
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	_, err := manager.Get(context.Background(), CacheKey{Endpoint: "/movie/0"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Get_CorruptEntry(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	key := CacheKey{Endpoint: "/movie/1"}
	client.Set(ctx, key.String(), "{not json", time.Minute)

	_, err := manager.Get(ctx, key)
	if !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("Expected ErrInvalidEntry, got %v", err)
	}
	// Corrupt entries are dropped so the next read is a clean miss.
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after corrupt entry, got %v", err)
	}
}

func TestManager_Set_ExpiredEntryNotStored(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := CacheKey{Endpoint: "/movie/2"}
	entry := &CacheEntry{Data: []byte(`{}`), Expires: time.Now().Add(-time.Hour)}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
	}
}

func TestManager_Set_TTLCapped(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	key := CacheKey{Endpoint: "/genre/movie/list"}
	entry := &CacheEntry{Data: []byte(`{}`), Expires: time.Now().Add(30 * 24 * time.Hour)}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ttl, err := client.TTL(ctx, key.String()).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl > MaxTTL {
		t.Errorf("TTL = %v, want <= %v", ttl, MaxTTL)
	}
}

func TestManager_DeleteAndUpdateTTL(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := CacheKey{Endpoint: "/movie/3"}
	entry := &CacheEntry{Data: []byte(`{}`), Expires: time.Now().Add(5 * time.Minute)}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	newExpires := time.Now().Add(10 * time.Minute)
	if err := manager.UpdateTTL(ctx, key, newExpires); err != nil {
		t.Fatalf("UpdateTTL failed: %v", err)
	}
	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after UpdateTTL failed: %v", err)
	}
	if diff := retrieved.Expires.Sub(newExpires); diff < -time.Second || diff > time.Second {
		t.Errorf("Expires not updated: got %v, want %v", retrieved.Expires, newExpires)
	}

	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_Clear(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	for _, ep := range []string{"/movie/1", "/movie/2", "/tv/3"} {
		entry := &CacheEntry{Data: []byte(`{}`), Expires: time.Now().Add(time.Minute)}
		if err := manager.Set(ctx, CacheKey{Endpoint: ep}, entry); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	// Keys outside the response namespace survive.
	client.Set(ctx, "sv:rate_limit:hits", 4, 0)

	deleted, err := manager.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Clear deleted %d keys, want 3", deleted)
	}
	if n, _ := client.Exists(ctx, "sv:rate_limit:hits").Result(); n != 1 {
		t.Error("Clear removed a key outside the response cache namespace")
	}
}

func TestManager_Set_NilEntry(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	if err := manager.Set(context.Background(), CacheKey{Endpoint: "/x"}, nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
}
