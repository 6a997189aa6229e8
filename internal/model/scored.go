package model

// ScoreBreakdown holds the seven per-factor scores that sum to the
// composite score. Maximum total is 135.
type ScoreBreakdown struct {
	VolumeScore             float64 `json:"volumeScore"`              // 0-25
	PricePositionScore      float64 `json:"pricePositionScore"`       // 0-20
	OrderBookImbalanceScore float64 `json:"orderBookImbalanceScore"`  // 0-25
	BuyerControlScore       float64 `json:"buyerControlScore"`        // 0-20
	CircuitLimitScore       float64 `json:"circuitLimitScore"`        // 0-10
	RSIScore                float64 `json:"rsiScore"`                 // 0-15
	VWAPScore               float64 `json:"vwapScore"`                // 0-20
}

// Total returns the sum of all factor scores.
func (b ScoreBreakdown) Total() float64 {
	return b.VolumeScore + b.PricePositionScore + b.OrderBookImbalanceScore +
		b.BuyerControlScore + b.CircuitLimitScore + b.RSIScore + b.VWAPScore
}

// VolumeTrend compares the volume average of the last three candles
// against the three immediately preceding.
type VolumeTrend struct {
	IsIncreasing bool    `json:"isIncreasing"`
	RecentAvg    float64 `json:"recentAvg"`
	EarlierAvg   float64 `json:"earlierAvg"`
}

// VWAPCrossover describes the most recent close-above-VWAP transition.
// CandlesSinceCross is -1 when no crossover was found in the lookback window.
type VWAPCrossover struct {
	CrossedAbove      bool `json:"crossedAbove"`
	CandlesSinceCross int  `json:"candlesSinceCross"`
}

// ScoredRecord is a quote enriched with derived indicator values and the
// composite score for one symbol in one poll cycle. It is constructed once
// per cycle and never mutated afterwards.
//
// Score and RejectionReason are mutually exclusive: a record carrying a
// rejection reason always has Score == 0.
type ScoredRecord struct {
	Quote

	Instrument      string  `json:"instrument"`
	NSESymbol       string  `json:"nseSymbol"`
	BuyerControlPct float64 `json:"buyerControlOfStockPercentage"`

	RSI           *float64       `json:"rsi,omitempty"`
	VWAP          *float64       `json:"vwap,omitempty"`
	VWAPCrossover *VWAPCrossover `json:"vwapCrossover,omitempty"`
	VolumeTrend   *VolumeTrend   `json:"volumeTrend,omitempty"`

	Score           float64        `json:"score"`
	ScoreBreakdown  ScoreBreakdown `json:"scoreBreakdown"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
}

// Rejected reports whether the record was short-circuited by a rejection gate.
func (r *ScoredRecord) Rejected() bool { return r.RejectionReason != "" }
