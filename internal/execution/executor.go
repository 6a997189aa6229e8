// Package execution receives order instructions from the scanner and
// records their outcomes. The default executor runs in paper mode: it
// accepts every instruction, logs it, and emits a result for
// downstream consumers instead of calling a broker.
package execution

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"momentum-scalper/internal/model"
)

// Result statuses.
const (
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// OrderResult represents the outcome of an order placement.
type OrderResult struct {
	OrderID string                 `json:"order_id"`
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Order   model.OrderInstruction `json:"order"`
}

// Executor accepts order instructions. Implements model.OrderPlacer.
type Executor struct {
	resultCh chan OrderResult
	seq      atomic.Uint64
}

// NewExecutor creates an executor with a buffered result channel.
func NewExecutor(resultBufferSize int) *Executor {
	return &Executor{
		resultCh: make(chan OrderResult, resultBufferSize),
	}
}

// Results returns the channel of order results.
func (e *Executor) Results() <-chan OrderResult {
	return e.resultCh
}

// Place accepts an instruction in paper mode. The result channel never
// blocks placement: when no consumer keeps up, results are dropped and
// the drop is logged.
func (e *Executor) Place(ctx context.Context, order model.OrderInstruction) error {
	if order.EntryPrice <= 0 {
		return fmt.Errorf("order for %s has no entry price", order.NSESymbol)
	}

	id := fmt.Sprintf("paper-%s-%d", time.Now().UTC().Format("20060102"), e.seq.Add(1))
	log.Printf("[executor] %s %s entry=%.2f tp=%.2f sl=%.2f score=%.1f",
		id, order.NSESymbol, order.EntryPrice, order.TakeProfitPrice,
		order.StopLossPrice, order.Score)

	result := OrderResult{
		OrderID: id,
		Status:  StatusAccepted,
		Message: "paper order accepted",
		Order:   order,
	}
	select {
	case e.resultCh <- result:
	default:
		log.Printf("[executor] result channel full, dropped result for %s", order.NSESymbol)
	}
	return nil
}
