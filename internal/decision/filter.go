// Package decision turns scored records into order instructions. It is
// the only place where the qualification threshold and the exit price
// offsets are applied.
package decision

import (
	"sort"
	"time"

	"momentum-scalper/internal/model"
)

// Defaults for the decision parameters.
const (
	DefaultMinScore      = 80
	DefaultStopLossPct   = 0.02
	DefaultTakeProfitPct = 0.02
)

// Config holds the decision parameters. Zero values fall back to
// defaults, so Config{} gives the standard 80 / 2% / 2% behavior.
type Config struct {
	// MinScore is the qualification threshold. Zero means
	// DefaultMinScore; set a negative value to disable the threshold
	// and pass every non-rejected record through.
	MinScore float64
	StopLossPct   float64
	TakeProfitPct float64

	// now is overridable in tests.
	now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MinScore == 0 {
		c.MinScore = DefaultMinScore
	}
	if c.StopLossPct == 0 {
		c.StopLossPct = DefaultStopLossPct
	}
	if c.TakeProfitPct == 0 {
		c.TakeProfitPct = DefaultTakeProfitPct
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Filter selects qualified records and projects them into order
// instructions, best score first. Rejected records never qualify, even
// when the configured threshold would let their zero score through.
// The sort is stable, so equal scores keep their input order. The input
// slice is not modified.
func Filter(records []model.ScoredRecord, cfg Config) []model.OrderInstruction {
	cfg = cfg.withDefaults()
	ts := cfg.now().UTC()

	qualified := make([]model.ScoredRecord, 0, len(records))
	for _, r := range records {
		if r.Rejected() || r.Score < cfg.MinScore {
			continue
		}
		qualified = append(qualified, r)
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].Score > qualified[j].Score
	})

	orders := make([]model.OrderInstruction, 0, len(qualified))
	for _, r := range qualified {
		entry := r.Payload.LastPrice
		orders = append(orders, model.OrderInstruction{
			NSESymbol:       r.NSESymbol,
			Instrument:      r.Instrument,
			BuyDepth:        r.Payload.Depth.Buy,
			SellDepth:       r.Payload.Depth.Sell,
			EntryPrice:      entry,
			CurrentPrice:    entry,
			StopLossPrice:   entry * (1 - cfg.StopLossPct),
			TakeProfitPrice: entry * (1 + cfg.TakeProfitPct),
			Score:           r.Score,
			BuyerControlPct: r.BuyerControlPct,
			Timestamp:       ts,
		})
	}
	return orders
}
