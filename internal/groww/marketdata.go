package groww

import (
	"context"
	"fmt"
	"net/url"

	"momentum-scalper/internal/model"
)

// candleTimeLayout is the local ISO form the candle endpoint expects:
// no timezone suffix, interpreted as exchange-local time. Callers pass
// times already shifted to IST.
const candleTimeLayout = "2006-01-02T15:04:05"

// Quote fetches the live quote for an NSE cash symbol.
// Implements model.QuoteSource.
func (c *Client) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	q := url.Values{}
	q.Set("exchange", "NSE")
	q.Set("segment", "CASH")
	q.Set("trading_symbol", symbol)

	var quote model.Quote
	if err := c.Do(ctx, RequestSpec{Path: "/live-data/quote", Query: q}, &quote); err != nil {
		return model.Quote{}, err
	}
	return quote, nil
}

// Candles fetches a historical candle series. Implements model.CandleSource.
func (c *Client) Candles(ctx context.Context, req model.CandleRequest) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("candle_interval", req.Interval)
	q.Set("start_time", req.Start.Format(candleTimeLayout))
	q.Set("end_time", req.End.Format(candleTimeLayout))
	q.Set("exchange", "NSE")
	q.Set("segment", "CASH")
	q.Set("groww_symbol", "NSE-"+req.Symbol)

	var resp model.CandleResponse
	if err := c.Do(ctx, RequestSpec{Path: "/historical/candles", Query: q}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != model.StatusSuccess {
		return nil, fmt.Errorf("groww: candle fetch for %s returned status %s", req.Symbol, resp.Status)
	}
	return resp.Payload.Candles, nil
}
