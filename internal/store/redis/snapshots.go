// Package redis keeps the latest scored record per symbol plus a short
// minute-bucketed history, so dashboards and ad-hoc tooling can read
// scan output without touching the journal.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"momentum-scalper/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultLatestTTL = 30 * time.Minute
	defaultBucketTTL = 2 * time.Hour
)

// StoreConfig configures the snapshot store.
type StoreConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Store writes scored record snapshots to Redis. Implements
// model.SnapshotStore.
type Store struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (s *Store) Client() *goredis.Client { return s.client }

// New creates a snapshot Store and pings the server.
func New(cfg StoreConfig) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Store{client: client}, nil
}

func latestKey(symbol string) string {
	return "scan:latest:" + symbol
}

func bucketKey(symbol string, t time.Time) string {
	return "scan:" + t.UTC().Format("200601021504") + ":" + symbol
}

// SaveSnapshot writes the record under its latest key and the current
// minute bucket, both with TTL, in one pipeline.
func (s *Store) SaveSnapshot(ctx context.Context, rec model.ScoredRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", rec.NSESymbol, err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, latestKey(rec.NSESymbol), data, defaultLatestTTL)
	pipe.Set(ctx, bucketKey(rec.NSESymbol, time.Now()), data, defaultBucketTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis snapshot pipeline for %s: %w", rec.NSESymbol, err)
	}
	return nil
}

// ReadLatest returns the most recent snapshot for symbol. ok is false
// when no snapshot is present or it has expired.
func (s *Store) ReadLatest(ctx context.Context, symbol string) (model.ScoredRecord, bool, error) {
	data, err := s.client.Get(ctx, latestKey(symbol)).Bytes()
	if err == goredis.Nil {
		return model.ScoredRecord{}, false, nil
	}
	if err != nil {
		return model.ScoredRecord{}, false, fmt.Errorf("redis GET %s: %w", latestKey(symbol), err)
	}

	var rec model.ScoredRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.ScoredRecord{}, false, fmt.Errorf("decode snapshot %s: %w", symbol, err)
	}
	return rec, true, nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
