package notification

import (
	"fmt"

	"momentum-scalper/internal/model"
)

// OrderAlert formats a submitted order instruction as an alert.
func OrderAlert(o model.OrderInstruction) Alert {
	return Alert{
		Level: AlertInfo,
		Title: fmt.Sprintf("Order placed: %s", o.NSESymbol),
		Message: fmt.Sprintf(
			"%s (%s) score %.1f, buyer control %.1f%%\nEntry ₹%.2f, Take Profit ₹%.2f, Stop Loss ₹%.2f",
			o.Instrument, o.NSESymbol, o.Score, o.BuyerControlPct,
			o.EntryPrice, o.TakeProfitPrice, o.StopLossPrice),
	}
}
