package decision

import (
	"math"
	"reflect"
	"testing"
	"time"

	"momentum-scalper/internal/model"
)

func record(symbol string, score float64, lastPrice float64) model.ScoredRecord {
	r := model.ScoredRecord{NSESymbol: symbol, Instrument: "NSE-" + symbol, Score: score}
	r.Status = model.StatusSuccess
	r.Payload.LastPrice = lastPrice
	return r
}

func symbols(orders []model.OrderInstruction) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.NSESymbol
	}
	return out
}

func TestFilter_ThresholdAndOrdering(t *testing.T) {
	records := []model.ScoredRecord{
		record("LOW", 79.99, 100),
		record("MID", 85, 200),
		record("TOP", 110, 300),
		record("EDGE", 80, 400),
	}

	orders := Filter(records, Config{})
	if got, want := symbols(orders), []string{"TOP", "MID", "EDGE"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("symbols: got %v want %v", got, want)
	}
}

func TestFilter_StableForEqualScores(t *testing.T) {
	records := []model.ScoredRecord{
		record("A", 90, 100),
		record("B", 90, 100),
		record("C", 95, 100),
		record("D", 90, 100),
	}
	orders := Filter(records, Config{})
	if got, want := symbols(orders), []string{"C", "A", "B", "D"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("equal scores must keep input order: got %v want %v", got, want)
	}
}

func TestFilter_MinScoreConvention(t *testing.T) {
	records := []model.ScoredRecord{
		record("ZERO", 0, 100),
		record("MID", 50, 100),
		record("HIGH", 85, 100),
	}

	// Zero means the default threshold.
	orders := Filter(records, Config{MinScore: 0})
	if got, want := symbols(orders), []string{"HIGH"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("zero MinScore: got %v want %v", got, want)
	}

	// Negative disables the threshold entirely.
	orders = Filter(records, Config{MinScore: -1})
	if got, want := symbols(orders), []string{"HIGH", "MID", "ZERO"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("negative MinScore: got %v want %v", got, want)
	}
}

func TestFilter_RejectedNeverQualifies(t *testing.T) {
	rejected := record("REJ", 0, 100)
	rejected.RejectionReason = "Low volume: 1 < 100000"
	clean := record("OK", 0, 100)

	// A zero threshold would admit a zero score, but rejection is
	// checked on its own.
	orders := Filter([]model.ScoredRecord{rejected, clean}, Config{MinScore: -1})
	if got, want := symbols(orders), []string{"OK"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFilter_PriceProjection(t *testing.T) {
	fixed := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	cfg := Config{now: func() time.Time { return fixed }}

	r := record("TCS", 95, 250)
	r.BuyerControlPct = 61.5
	r.Payload.Depth.Buy = []model.DepthEntry{{Price: 249.9, Quantity: 10}}
	r.Payload.Depth.Sell = []model.DepthEntry{{Price: 250.1, Quantity: 5}}

	orders := Filter([]model.ScoredRecord{r}, cfg)
	if len(orders) != 1 {
		t.Fatalf("orders: %d", len(orders))
	}
	o := orders[0]
	if o.EntryPrice != 250 || o.CurrentPrice != 250 {
		t.Errorf("entry %v current %v want 250", o.EntryPrice, o.CurrentPrice)
	}
	if math.Abs(o.TakeProfitPrice-255) > 1e-9 {
		t.Errorf("take profit %v want 255", o.TakeProfitPrice)
	}
	if math.Abs(o.StopLossPrice-245) > 1e-9 {
		t.Errorf("stop loss %v want 245", o.StopLossPrice)
	}
	if o.Score != 95 || o.BuyerControlPct != 61.5 {
		t.Errorf("carried fields: score %v control %v", o.Score, o.BuyerControlPct)
	}
	if len(o.BuyDepth) != 1 || len(o.SellDepth) != 1 {
		t.Errorf("depth not carried: %+v", o)
	}
	if !o.Timestamp.Equal(fixed) {
		t.Errorf("timestamp %v want %v", o.Timestamp, fixed)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	records := []model.ScoredRecord{
		record("A", 90, 100),
		record("B", 85, 150),
	}
	first := Filter(records, Config{now: func() time.Time { return time.Unix(0, 0) }})
	second := Filter(records, Config{now: func() time.Time { return time.Unix(0, 0) }})
	if !reflect.DeepEqual(first, second) {
		t.Error("same input must produce the same orders")
	}
}

func TestFilter_Empty(t *testing.T) {
	if got := Filter(nil, Config{}); len(got) != 0 {
		t.Errorf("nil input: %v", got)
	}
}
