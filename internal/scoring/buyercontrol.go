// Package scoring turns a quote plus computed indicators into a
// composite score with a per-band breakdown, and derives the buyer
// control percentage from order book data.
package scoring

import (
	"math"

	"momentum-scalper/internal/model"
)

// BuyerControlMethod selects how buyer control is derived from the
// order book. Values are the wire names used in config and persisted
// records.
type BuyerControlMethod string

const (
	MethodSimple         BuyerControlMethod = "simple"
	MethodTotal          BuyerControlMethod = "total"
	MethodPriceWeighted  BuyerControlMethod = "price-weighted"
	MethodNearPrice      BuyerControlMethod = "near-price"
	MethodVolumeWeighted BuyerControlMethod = "volume-weighted"
	MethodBidAsk         BuyerControlMethod = "bid-ask"
	MethodHybrid         BuyerControlMethod = "hybrid"
)

// BuyerControlMethods lists every supported method.
var BuyerControlMethods = []BuyerControlMethod{
	MethodSimple,
	MethodTotal,
	MethodPriceWeighted,
	MethodNearPrice,
	MethodVolumeWeighted,
	MethodBidAsk,
	MethodHybrid,
}

// ValidBuyerControlMethod reports whether s names a supported method.
func ValidBuyerControlMethod(s string) bool {
	for _, m := range BuyerControlMethods {
		if string(m) == s {
			return true
		}
	}
	return false
}

// decayFactor tunes the price-weighted method: higher gives more
// weight to orders resting closer to the last traded price.
const decayFactor = 10

// nearPriceRange is the ±band, as a fraction of last price, the
// near-price method counts orders within.
const nearPriceRange = 0.005

// BuyerControl computes the buyer control percentage (0-100) for the
// quote using the given method. ok is false when the quote failed or
// the book carries no usable quantity for the method.
func BuyerControl(q *model.Quote, method BuyerControlMethod) (float64, bool) {
	if q == nil {
		return 0, false
	}
	switch method {
	case MethodSimple:
		return simpleQuantityRatio(q)
	case MethodTotal:
		return totalQuantity(q)
	case MethodPriceWeighted:
		return priceWeightedDepth(q)
	case MethodNearPrice:
		return nearPriceConcentration(q)
	case MethodVolumeWeighted:
		return volumeWeightedImbalance(q)
	case MethodBidAsk:
		return bidAskSpread(q)
	case MethodHybrid:
		return hybrid(q)
	default:
		return 0, false
	}
}

// simpleQuantityRatio: share of visible depth resting on the buy side.
func simpleQuantityRatio(q *model.Quote) (float64, bool) {
	if !q.OK() {
		return 0, false
	}
	var buy, sell float64
	for _, lvl := range q.Payload.Depth.Buy {
		buy += lvl.Quantity
	}
	for _, lvl := range q.Payload.Depth.Sell {
		sell += lvl.Quantity
	}
	return ratioPct(buy, sell)
}

// totalQuantity: uses the exchange-aggregated buy/sell quantities,
// which cover more than the visible depth levels.
func totalQuantity(q *model.Quote) (float64, bool) {
	if !q.OK() {
		return 0, false
	}
	return ratioPct(q.Payload.TotalBuyQuantity, q.Payload.TotalSellQuantity)
}

// priceWeightedDepth: each level weighted by e^(-distance*decayFactor)
// where distance is the relative gap to last price.
func priceWeightedDepth(q *model.Quote) (float64, bool) {
	if !q.OK() {
		return 0, false
	}
	price := q.Payload.LastPrice
	if price <= 0 {
		return 0, false
	}
	var buy, sell float64
	for _, lvl := range q.Payload.Depth.Buy {
		dist := math.Abs(lvl.Price-price) / price
		buy += lvl.Quantity * math.Exp(-dist*decayFactor)
	}
	for _, lvl := range q.Payload.Depth.Sell {
		dist := math.Abs(lvl.Price-price) / price
		sell += lvl.Quantity * math.Exp(-dist*decayFactor)
	}
	return ratioPct(buy, sell)
}

// nearPriceConcentration: only levels within ±0.5% of last price count.
func nearPriceConcentration(q *model.Quote) (float64, bool) {
	if !q.OK() {
		return 0, false
	}
	price := q.Payload.LastPrice
	if price <= 0 {
		return 0, false
	}
	min := price * (1 - nearPriceRange)
	max := price * (1 + nearPriceRange)
	var buy, sell float64
	for _, lvl := range q.Payload.Depth.Buy {
		if lvl.Price >= min && lvl.Price <= max {
			buy += lvl.Quantity
		}
	}
	for _, lvl := range q.Payload.Depth.Sell {
		if lvl.Price >= min && lvl.Price <= max {
			sell += lvl.Quantity
		}
	}
	return ratioPct(buy, sell)
}

// volumeWeightedImbalance: levels weighted linearly by price proximity,
// weight max(0, 1-|price/last - 1|).
func volumeWeightedImbalance(q *model.Quote) (float64, bool) {
	if !q.OK() {
		return 0, false
	}
	price := q.Payload.LastPrice
	if price <= 0 {
		return 0, false
	}
	var buy, sell float64
	for _, lvl := range q.Payload.Depth.Buy {
		w := math.Max(0, 1-math.Abs(lvl.Price/price-1))
		buy += lvl.Quantity * w
	}
	for _, lvl := range q.Payload.Depth.Sell {
		w := math.Max(0, 1-math.Abs(lvl.Price/price-1))
		sell += lvl.Quantity * w
	}
	return ratioPct(buy, sell)
}

// bidAskSpread: best bid quantity against the first resting sell level.
func bidAskSpread(q *model.Quote) (float64, bool) {
	if !q.OK() {
		return 0, false
	}
	var bid float64
	if q.Payload.BidQuantity != nil {
		bid = *q.Payload.BidQuantity
	}
	var ask float64
	if len(q.Payload.Depth.Sell) > 0 {
		ask = q.Payload.Depth.Sell[0].Quantity
	}
	return ratioPct(bid, ask)
}

// hybrid blends price-weighted (0.4), total (0.3), near-price (0.2)
// and bid-ask (0.1), renormalizing over the components that produced a
// value. Price-weighted and total are required.
func hybrid(q *model.Quote) (float64, bool) {
	priceWeighted, pwOK := priceWeightedDepth(q)
	total, totalOK := totalQuantity(q)
	nearPrice, npOK := nearPriceConcentration(q)
	bidAsk, baOK := bidAskSpread(q)

	if !pwOK || !totalOK {
		return 0, false
	}

	sum := priceWeighted*0.4 + total*0.3
	weight := 0.4 + 0.3
	if npOK {
		sum += nearPrice * 0.2
		weight += 0.2
	}
	if baOK {
		sum += bidAsk * 0.1
		weight += 0.1
	}
	return sum / weight, true
}

func ratioPct(buy, sell float64) (float64, bool) {
	total := buy + sell
	if total == 0 {
		return 0, false
	}
	return buy / total * 100, true
}
