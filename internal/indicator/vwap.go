package indicator

import "momentum-scalper/internal/model"

// VWAP is the volume-weighted average of the typical price (h+l+c)/3.
// ok is false for an empty series or one with zero total volume.
func VWAP(candles []model.Candle) (float64, bool) {
	if len(candles) == 0 {
		return 0, false
	}

	var priceVolume, volume float64
	for _, c := range candles {
		typical := (c.High + c.Low + c.Close) / 3
		priceVolume += typical * c.Volume
		volume += c.Volume
	}
	if volume == 0 {
		return 0, false
	}
	return priceVolume / volume, true
}
