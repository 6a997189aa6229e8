package indicator

import "momentum-scalper/internal/model"

// crossoverLookback is how many trailing candles are scanned for a
// close moving from below VWAP to above it.
const crossoverLookback = 3

// VWAPCrossover reports whether price crossed above VWAP within the
// lookback window, and how many candles ago. The VWAP is recomputed over
// the prefix ending at each inspected candle, so the comparison is
// against the value a live observer would have seen at that point.
//
// When the price sits above VWAP but no cross shows up in the window,
// the candle just before the window is checked: a below-VWAP close there
// means the cross happened earlier, reported as lookback candles ago.
// CandlesSinceCross is -1 when no cross is found.
func VWAPCrossover(currentPrice float64, candles []model.Candle, vwap float64) model.VWAPCrossover {
	none := model.VWAPCrossover{CrossedAbove: false, CandlesSinceCross: -1}
	if len(candles) < 2 {
		return none
	}

	lookback := crossoverLookback
	if lookback > len(candles) {
		lookback = len(candles)
	}
	start := len(candles) - lookback

	for i := len(candles) - 1; i >= start+1; i-- {
		vwapHere, ok := VWAP(candles[:i+1])
		if !ok {
			continue
		}
		prevClose := candles[i-1].Close
		close := candles[i].Close
		if prevClose <= vwapHere && close > vwapHere {
			return model.VWAPCrossover{
				CrossedAbove:      true,
				CandlesSinceCross: len(candles) - 1 - i,
			}
		}
	}

	if currentPrice > vwap && start > 0 {
		earlier := candles[:start]
		earlierVWAP, ok := VWAP(earlier)
		if ok && earlier[len(earlier)-1].Close <= earlierVWAP {
			return model.VWAPCrossover{CrossedAbove: true, CandlesSinceCross: lookback}
		}
	}

	return none
}
