package scanner

import (
	"context"
	"fmt"

	"momentum-scalper/internal/model"
)

// trendSymbol is the index quote used as the market-wide gate.
const trendSymbol = "NIFTYBANK"

// bullishThresholdPct: the index must be up more than this on the day
// for cycles to trade.
const bullishThresholdPct = 0.5

// NiftyTrend is the market trend gate input.
type NiftyTrend struct {
	DayChangePerc float64
	IsBullish     bool
}

// FetchNiftyTrend reads the NIFTYBANK quote and derives the trend gate.
func FetchNiftyTrend(ctx context.Context, quotes model.QuoteSource) (NiftyTrend, error) {
	quote, err := quotes.Quote(ctx, trendSymbol)
	if err != nil {
		return NiftyTrend{}, fmt.Errorf("fetch %s quote: %w", trendSymbol, err)
	}
	if !quote.OK() {
		return NiftyTrend{}, fmt.Errorf("%s quote returned status %s", trendSymbol, quote.Status)
	}
	pct := quote.Payload.DayChangePerc
	return NiftyTrend{
		DayChangePerc: pct,
		IsBullish:     pct > bullishThresholdPct,
	}, nil
}
