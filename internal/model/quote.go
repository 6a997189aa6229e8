package model

// Quote status values returned by the upstream API.
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// DepthEntry is one resting order book level.
type DepthEntry struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Depth holds the order book levels, best price first.
// The upstream does not bound the number of levels.
type Depth struct {
	Buy  []DepthEntry `json:"buy"`
	Sell []DepthEntry `json:"sell"`
}

// OHLC holds the day's open/high/low/close.
type OHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// QuotePayload mirrors the upstream live-data quote payload.
// Nullable upstream fields are pointers.
type QuotePayload struct {
	AveragePrice      *float64 `json:"average_price"`
	BidQuantity       *float64 `json:"bid_quantity"`
	BidPrice          *float64 `json:"bid_price"`
	DayChange         float64  `json:"day_change"`
	DayChangePerc     float64  `json:"day_change_perc"`
	UpperCircuitLimit float64  `json:"upper_circuit_limit"`
	LowerCircuitLimit float64  `json:"lower_circuit_limit"`
	OHLC              OHLC     `json:"ohlc"`
	Depth             Depth    `json:"depth"`
	LastTradeQuantity float64  `json:"last_trade_quantity"`
	LastTradeTime     int64    `json:"last_trade_time"`
	LastPrice         float64  `json:"last_price"`
	TotalBuyQuantity  float64  `json:"total_buy_quantity"`
	TotalSellQuantity float64  `json:"total_sell_quantity"`
	Volume            float64  `json:"volume"`
	Week52High        float64  `json:"week_52_high"`
	Week52Low         float64  `json:"week_52_low"`
}

// Quote is a live market quote as delivered by the upstream API.
// Immutable once received.
type Quote struct {
	Status  string       `json:"status"`
	Payload QuotePayload `json:"payload"`
}

// OK reports whether the upstream marked the quote as successful.
func (q *Quote) OK() bool { return q.Status == StatusSuccess }
