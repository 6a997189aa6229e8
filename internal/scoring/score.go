package scoring

import (
	"fmt"
	"math"

	"momentum-scalper/internal/model"
)

// Defaults for the scoring gates.
const (
	DefaultMinVolume     = 100000
	DefaultCircuitBuffer = 0.02
)

// Config holds the two hard gates. Zero values fall back to defaults.
type Config struct {
	// MinVolume rejects anything that traded fewer shares today.
	MinVolume float64
	// CircuitBuffer is the fractional headroom the take profit price
	// must keep below the upper circuit limit.
	CircuitBuffer float64
}

func (c Config) withDefaults() Config {
	if c.MinVolume == 0 {
		c.MinVolume = DefaultMinVolume
	}
	if c.CircuitBuffer == 0 {
		c.CircuitBuffer = DefaultCircuitBuffer
	}
	return c
}

// Inputs carries the per-symbol signals feeding the composite score.
// Pointer fields are optional: a nil indicator simply contributes zero
// to its band rather than failing the computation.
type Inputs struct {
	BuyerControlPct float64
	TakeProfitPrice float64
	RSI             *float64
	VWAP            *float64
	Crossover       *model.VWAPCrossover
	VolumeTrend     *model.VolumeTrend
}

// Result is either a qualified score or a rejection; the two cannot be
// confused because the fields are only settable through the
// constructors below.
type Result struct {
	score           float64
	breakdown       model.ScoreBreakdown
	rejectionReason string
}

func qualified(score float64, breakdown model.ScoreBreakdown) Result {
	return Result{score: score, breakdown: breakdown}
}

func rejected(reason string, breakdown model.ScoreBreakdown) Result {
	return Result{rejectionReason: reason, breakdown: breakdown}
}

// Score is the composite total. Zero for rejections.
func (r Result) Score() float64 { return r.score }

// Breakdown returns the per-band contributions. For rejections it holds
// whatever bands were computed before the gate tripped.
func (r Result) Breakdown() model.ScoreBreakdown { return r.breakdown }

// Rejected reports whether a hard gate rejected the symbol.
func (r Result) Rejected() bool { return r.rejectionReason != "" }

// RejectionReason is the human-readable gate message, empty when
// qualified.
func (r Result) RejectionReason() string { return r.rejectionReason }

// Compute scores a quote against the configured gates. Band maxima:
// volume 25, price position 20, order book imbalance 25, buyer control
// 20, circuit headroom 10, RSI 15, VWAP 20.
func Compute(q *model.Quote, in Inputs, cfg Config) Result {
	cfg = cfg.withDefaults()
	p := q.Payload
	var b model.ScoreBreakdown

	if p.Volume < cfg.MinVolume {
		return rejected(fmt.Sprintf("Low volume: %v < %v", p.Volume, cfg.MinVolume), b)
	}
	// 100k shares maps to 10 points, 1M+ saturates at 25.
	volumeScore := math.Min(25, math.Max(10, p.Volume/40000))
	if in.VolumeTrend != nil && !in.VolumeTrend.IsIncreasing {
		declinePct := (in.VolumeTrend.EarlierAvg - in.VolumeTrend.RecentAvg) / in.VolumeTrend.EarlierAvg * 100
		penalty := math.Min(10, declinePct*0.5)
		volumeScore = math.Max(0, volumeScore-penalty)
	}
	b.VolumeScore = volumeScore

	priceRange := p.OHLC.High - p.OHLC.Low
	if priceRange > 0 {
		positionPct := (p.LastPrice - p.OHLC.Low) / priceRange * 100
		switch {
		case positionPct >= 80:
			b.PricePositionScore = 20
		case positionPct >= 60:
			b.PricePositionScore = 15
		case positionPct >= 40:
			b.PricePositionScore = 10
		default:
			b.PricePositionScore = 5
		}
	} else {
		b.PricePositionScore = 10
	}

	if total := p.TotalBuyQuantity + p.TotalSellQuantity; total > 0 {
		imbalancePct := p.TotalBuyQuantity / total * 100
		b.OrderBookImbalanceScore = math.Min(25, math.Max(0, (imbalancePct-50)*0.5+12.5))
	}

	b.BuyerControlScore = math.Min(20, in.BuyerControlPct*0.2)

	maxAllowed := p.UpperCircuitLimit * (1 - cfg.CircuitBuffer)
	if in.TakeProfitPrice >= maxAllowed {
		reason := fmt.Sprintf("No room for 2%% gain: takeProfit %.2f >= circuit limit %.2f",
			in.TakeProfitPrice, maxAllowed)
		return rejected(reason, b)
	}
	b.CircuitLimitScore = 10

	if in.RSI != nil {
		rsi := *in.RSI
		switch {
		case rsi >= 60 && rsi <= 70:
			b.RSIScore = 15
		case rsi >= 50 && rsi < 60:
			b.RSIScore = 12
		case rsi > 70 && rsi <= 75:
			b.RSIScore = 8
		case rsi >= 40 && rsi < 50:
			b.RSIScore = 5
		case rsi > 75 && rsi <= 80:
			b.RSIScore = 3
		}
	}

	if in.VWAP != nil {
		vwap := *in.VWAP
		diffPct := (p.LastPrice - vwap) / vwap * 100
		switch {
		case in.Crossover != nil && in.Crossover.CrossedAbove:
			since := in.Crossover.CandlesSinceCross
			switch {
			case since >= 0 && since <= 2:
				b.VWAPScore = 20
			case since >= 3 && since <= 4:
				b.VWAPScore = 15
			default:
				b.VWAPScore = 12
			}
		case p.LastPrice > vwap:
			b.VWAPScore = 12
		case math.Abs(diffPct) <= 0.5:
			b.VWAPScore = 8
		case diffPct < 0 && diffPct >= -1:
			b.VWAPScore = 5
		}
	}

	return qualified(b.Total(), b)
}
