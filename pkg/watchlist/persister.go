package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
)

// MemoryPersister keeps saved lists in process memory.
type MemoryPersister struct {
	mu    sync.Mutex
	data  map[string][]byte
	saves int
}

// NewMemoryPersister creates an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: make(map[string][]byte)}
}

func (m *MemoryPersister) Load(_ context.Context, key string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decode(m.data[key])
}

func (m *MemoryPersister) Save(_ context.Context, key string, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

var bucketWatchlist = []byte("watchlist")

// BoltPersister stores lists in a bbolt database file.
type BoltPersister struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*BoltPersister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketWatchlist)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltPersister{db: db}, nil
}

func (b *BoltPersister) Load(_ context.Context, key string) ([]Entry, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketWatchlist).Get([]byte(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (b *BoltPersister) Save(_ context.Context, key string, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWatchlist).Put([]byte(key), data)
	})
}

// Close closes the database.
func (b *BoltPersister) Close() error {
	return b.db.Close()
}

// RedisPersister stores lists as JSON strings without expiry.
type RedisPersister struct {
	redis *redis.Client
}

// NewRedisPersister creates a persister on an existing client.
func NewRedisPersister(rdb *redis.Client) *RedisPersister {
	return &RedisPersister{redis: rdb}
}

func (r *RedisPersister) Load(ctx context.Context, key string) ([]Entry, error) {
	data, err := r.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decode(data)
}

func (r *RedisPersister) Save(ctx context.Context, key string, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := r.redis.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func decode(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}
	return entries, nil
}
