// Package sqlite persists completed scan cycles: one row per run, plus
// the scored records and order instructions it produced. Single-writer
// with WAL, one transaction per run.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"momentum-scalper/internal/scanner"

	_ "github.com/mattn/go-sqlite3"
)

// JournalConfig configures the SQLite journal.
type JournalConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/scanner.db"
}

// Journal writes scan runs to SQLite. Implements scanner.Journal.
type Journal struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// New opens the journal database with WAL mode and creates the schema.
func New(cfg JournalConfig) (*Journal, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened journal at %s", cfg.DBPath)
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			scored      INTEGER NOT NULL,
			orders      INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS scored_records (
			run_id           INTEGER NOT NULL REFERENCES runs(id),
			nse_symbol       TEXT    NOT NULL,
			instrument       TEXT    NOT NULL,
			score            REAL    NOT NULL,
			rejection_reason TEXT,
			last_price       REAL    NOT NULL,
			volume           REAL    NOT NULL,
			buyer_control    REAL    NOT NULL,
			record_json      TEXT    NOT NULL,
			PRIMARY KEY (run_id, nse_symbol)
		);

		CREATE TABLE IF NOT EXISTS order_instructions (
			run_id           INTEGER NOT NULL REFERENCES runs(id),
			nse_symbol       TEXT    NOT NULL,
			entry_price      REAL    NOT NULL,
			take_profit      REAL    NOT NULL,
			stop_loss        REAL    NOT NULL,
			score            REAL    NOT NULL,
			placed_at        INTEGER NOT NULL,
			PRIMARY KEY (run_id, nse_symbol)
		);
	`)
	return err
}

// SaveRun persists one completed cycle in a single transaction.
func (j *Journal) SaveRun(ctx context.Context, run scanner.RunRecord) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	res, err := tx.Exec(
		`INSERT INTO runs (started_at, duration_ms, scored, orders) VALUES (?, ?, ?, ?)`,
		run.StartedAt.Unix(), run.Duration.Milliseconds(), len(run.Records), len(run.Orders),
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return err
	}

	recStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO scored_records
		(run_id, nse_symbol, instrument, score, rejection_reason, last_price, volume, buyer_control, record_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer recStmt.Close()

	for _, rec := range run.Records {
		blob, err := json.Marshal(rec)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal record %s: %w", rec.NSESymbol, err)
		}
		_, err = recStmt.Exec(runID, rec.NSESymbol, rec.Instrument, rec.Score,
			rec.RejectionReason, rec.Payload.LastPrice, rec.Payload.Volume,
			rec.BuyerControlPct, string(blob))
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	ordStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO order_instructions
		(run_id, nse_symbol, entry_price, take_profit, stop_loss, score, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer ordStmt.Close()

	for _, o := range run.Orders {
		_, err = ordStmt.Exec(runID, o.NSESymbol, o.EntryPrice, o.TakeProfitPrice,
			o.StopLossPrice, o.Score, o.Timestamp.Unix())
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// LastRunTime returns the start time of the most recent run, 0 when
// the journal is empty.
func (j *Journal) LastRunTime(ctx context.Context) (int64, error) {
	var ts sql.NullInt64
	err := j.db.QueryRowContext(ctx, `SELECT MAX(started_at) FROM runs`).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
