package model

import (
	"context"
	"time"
)

// ── Capability Port Interfaces ──
// These interfaces decouple the scanner from concrete upstream and storage
// implementations. Production code satisfies them with the API client and
// the Redis/SQLite stores; tests satisfy them with in-memory fakes.

// ShortlistEntry is one candidate symbol from the shortlist.
type ShortlistEntry struct {
	NSESymbol string `json:"nseSymbol"`
	Name      string `json:"name"`
}

// ShortlistSource provides the candidate universe for a poll cycle
// (e.g. the exchange's top gainers).
type ShortlistSource interface {
	Shortlist(ctx context.Context) ([]ShortlistEntry, error)
}

// QuoteSource fetches a live quote for a trading symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// CandleRequest identifies a candle series to fetch.
type CandleRequest struct {
	Symbol   string
	Interval string // one of the Interval* constants
	Start    time.Time
	End      time.Time
}

// CandleSource fetches a historical candle series.
type CandleSource interface {
	Candles(ctx context.Context, req CandleRequest) ([]Candle, error)
}

// OrderPlacer submits an entry order derived from a qualified record.
type OrderPlacer interface {
	Place(ctx context.Context, order OrderInstruction) error
}

// SnapshotStore persists per-symbol scored record snapshots with TTL bucketing.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, rec ScoredRecord) error
}
