package indicator

import "momentum-scalper/internal/model"

// VolumeTrend compares the mean volume of the last three candles against
// the three before them. Needs at least six candles.
func VolumeTrend(candles []model.Candle) (model.VolumeTrend, bool) {
	if len(candles) < 6 {
		return model.VolumeTrend{}, false
	}

	recent := candles[len(candles)-3:]
	earlier := candles[len(candles)-6 : len(candles)-3]

	var recentSum, earlierSum float64
	for _, c := range recent {
		recentSum += c.Volume
	}
	for _, c := range earlier {
		earlierSum += c.Volume
	}
	recentAvg := recentSum / 3
	earlierAvg := earlierSum / 3

	return model.VolumeTrend{
		IsIncreasing: recentAvg > earlierAvg,
		RecentAvg:    recentAvg,
		EarlierAvg:   earlierAvg,
	}, true
}
