package indicator

import (
	"math"
	"testing"

	"momentum-scalper/internal/model"
)

const eps = 1e-9

// flatCandle makes typical price equal the close so prefix VWAPs are
// plain means of the closes.
func flatCandle(close, volume float64) model.Candle {
	return model.Candle{Open: close, High: close, Low: close, Close: close, Volume: volume}
}

func closesOf(vals ...float64) []model.Candle {
	out := make([]model.Candle, len(vals))
	for i, v := range vals {
		out[i] = flatCandle(v, 100)
	}
	return out
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		period int
		want   float64
		ok     bool
	}{
		{"too few closes", []float64{10, 11, 12}, 3, 0, false},
		{"exact minimum monotonic up", []float64{10, 11, 12, 13}, 3, 100, true},
		{"all losses", []float64{13, 12, 11, 10}, 3, 0, true},
		{"alternating", []float64{10, 11, 10, 11, 10}, 2, 37.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RSI(tt.closes, tt.period)
			if ok != tt.ok {
				t.Fatalf("ok: got %v want %v", ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > eps {
				t.Errorf("rsi: got %v want %v", got, tt.want)
			}
		})
	}
}

func TestRSI_WilderSmoothing(t *testing.T) {
	// Seed over the first two deltas, then one smoothed step:
	// avgGain=(2+0)/2=1, avgLoss=(0+1)/2=0.5; delta +3 gives
	// avgGain=(1+3)/2=2, avgLoss=0.25; rs=8, rsi=100-100/9.
	got, ok := RSI([]float64{10, 12, 11, 14}, 2)
	if !ok {
		t.Fatal("expected a value")
	}
	want := 100 - 100.0/9.0
	if math.Abs(got-want) > eps {
		t.Errorf("rsi: got %v want %v", got, want)
	}
}

func TestVWAP(t *testing.T) {
	if _, ok := VWAP(nil); ok {
		t.Error("empty series must not produce a value")
	}
	if _, ok := VWAP([]model.Candle{{High: 10, Low: 8, Close: 9, Volume: 0}}); ok {
		t.Error("zero total volume must not produce a value")
	}

	got, ok := VWAP([]model.Candle{{High: 12, Low: 8, Close: 10, Volume: 100}})
	if !ok || math.Abs(got-10) > eps {
		t.Errorf("single candle: got %v ok=%v, want 10", got, ok)
	}

	// Equal volumes reduce to the arithmetic mean of typical prices.
	got, ok = VWAP([]model.Candle{
		{High: 12, Low: 8, Close: 10, Volume: 50},
		{High: 22, Low: 18, Close: 20, Volume: 50},
	})
	if !ok || math.Abs(got-15) > eps {
		t.Errorf("equal volumes: got %v ok=%v, want 15", got, ok)
	}

	// Heavier candle pulls the average toward its typical price.
	got, ok = VWAP([]model.Candle{
		{High: 10, Low: 10, Close: 10, Volume: 300},
		{High: 20, Low: 20, Close: 20, Volume: 100},
	})
	if !ok || math.Abs(got-12.5) > eps {
		t.Errorf("weighted: got %v ok=%v, want 12.5", got, ok)
	}
}

func TestVolumeTrend(t *testing.T) {
	if _, ok := VolumeTrend(closesOf(1, 2, 3, 4, 5)); ok {
		t.Error("five candles must not produce a trend")
	}

	candles := []model.Candle{
		flatCandle(10, 100), flatCandle(10, 100), flatCandle(10, 100),
		flatCandle(10, 200), flatCandle(10, 300), flatCandle(10, 400),
	}
	trend, ok := VolumeTrend(candles)
	if !ok {
		t.Fatal("expected a trend")
	}
	if !trend.IsIncreasing {
		t.Error("rising volume must be flagged increasing")
	}
	if math.Abs(trend.RecentAvg-300) > eps || math.Abs(trend.EarlierAvg-100) > eps {
		t.Errorf("averages: recent %v earlier %v", trend.RecentAvg, trend.EarlierAvg)
	}

	flat, ok := VolumeTrend(closesOf(1, 1, 1, 1, 1, 1))
	if !ok || flat.IsIncreasing {
		t.Errorf("flat volume must not be increasing: %+v ok=%v", flat, ok)
	}
}

func TestVWAPCrossover(t *testing.T) {
	tests := []struct {
		name    string
		candles []model.Candle
		price   float64
		want    model.VWAPCrossover
	}{
		{
			name:    "too few candles",
			candles: closesOf(10),
			price:   10,
			want:    model.VWAPCrossover{CrossedAbove: false, CandlesSinceCross: -1},
		},
		{
			// Prefix mean over all four is 11; last close jumps over it.
			name:    "cross on latest candle",
			candles: closesOf(10, 10, 10, 14),
			price:   14,
			want:    model.VWAPCrossover{CrossedAbove: true, CandlesSinceCross: 0},
		},
		{
			// Cross shows up one candle back: prefix mean of the first
			// four is 11.25, close moves 10 -> 15 across it.
			name:    "cross one candle back",
			candles: closesOf(10, 10, 10, 15, 15),
			price:   15,
			want:    model.VWAPCrossover{CrossedAbove: true, CandlesSinceCross: 1},
		},
		{
			// The actual cross predates the window; the candle before
			// the window closed at its own VWAP, so the cross is
			// reported at the window edge.
			name:    "cross before the window",
			candles: closesOf(10, 10, 16, 16, 16),
			price:   16,
			want:    model.VWAPCrossover{CrossedAbove: true, CandlesSinceCross: 3},
		},
		{
			name:    "declining, never crossed",
			candles: closesOf(10, 9, 8, 7),
			price:   7,
			want:    model.VWAPCrossover{CrossedAbove: false, CandlesSinceCross: -1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vwap, _ := VWAP(tt.candles)
			got := VWAPCrossover(tt.price, tt.candles, vwap)
			if got != tt.want {
				t.Errorf("got %+v want %+v", got, tt.want)
			}
		})
	}
}
