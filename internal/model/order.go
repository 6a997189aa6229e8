package model

import "time"

// OrderInstruction is the projection of a qualified scored record into an
// actionable entry order. Submission is delegated to an OrderPlacer.
type OrderInstruction struct {
	NSESymbol       string       `json:"nseSymbol"`
	Instrument      string       `json:"instrument"`
	BuyDepth        []DepthEntry `json:"buyDepth"`
	SellDepth       []DepthEntry `json:"sellDepth"`
	EntryPrice      float64      `json:"entryPrice"`
	CurrentPrice    float64      `json:"currentPrice"`
	StopLossPrice   float64      `json:"stopLossPrice"`
	TakeProfitPrice float64      `json:"takeProfitPrice"`
	Score           float64      `json:"score"`
	BuyerControlPct float64      `json:"buyerControlOfStockPercentage"`
	Timestamp       time.Time    `json:"timestamp"`
}
