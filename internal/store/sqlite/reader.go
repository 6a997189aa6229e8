package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"momentum-scalper/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to the journal for analysis and replay.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// RunSummary is the per-run header row.
type RunSummary struct {
	ID        int64
	StartedAt time.Time
	Duration  time.Duration
	Scored    int
	Orders    int
}

// RecentRuns returns up to limit run summaries, newest first.
func (r *Reader) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, scored, orders
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var s RunSummary
		var startedUnix, durationMs int64
		if err := rows.Scan(&s.ID, &startedUnix, &durationMs, &s.Scored, &s.Orders); err != nil {
			return nil, fmt.Errorf("sqlite scan runs: %w", err)
		}
		s.StartedAt = time.Unix(startedUnix, 0).UTC()
		s.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

// RunRecords returns the scored records of a run, decoded from the stored
// JSON blobs, ordered by score descending.
func (r *Reader) RunRecords(ctx context.Context, runID int64) ([]model.ScoredRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT record_json
		FROM scored_records
		WHERE run_id = ?
		ORDER BY score DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query scored_records: %w", err)
	}
	defer rows.Close()

	var records []model.ScoredRecord
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("sqlite scan scored_records: %w", err)
		}
		var rec model.ScoredRecord
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RunOrders returns the order instructions placed during a run.
func (r *Reader) RunOrders(ctx context.Context, runID int64) ([]model.OrderInstruction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT nse_symbol, entry_price, take_profit, stop_loss, score, placed_at
		FROM order_instructions
		WHERE run_id = ?
		ORDER BY score DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query order_instructions: %w", err)
	}
	defer rows.Close()

	var orders []model.OrderInstruction
	for rows.Next() {
		var o model.OrderInstruction
		var placedUnix int64
		if err := rows.Scan(&o.NSESymbol, &o.EntryPrice, &o.TakeProfitPrice,
			&o.StopLossPrice, &o.Score, &placedUnix); err != nil {
			return nil, fmt.Errorf("sqlite scan order_instructions: %w", err)
		}
		o.Timestamp = time.Unix(placedUnix, 0).UTC()
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Close closes the read connection.
func (r *Reader) Close() error {
	return r.db.Close()
}
