// Package scanner drives the poll cycle: shortlist, per-symbol
// enrichment, scoring, order selection and submission.
package scanner

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"momentum-scalper/internal/decision"
	"momentum-scalper/internal/indicator"
	"momentum-scalper/internal/markethours"
	"momentum-scalper/internal/metrics"
	"momentum-scalper/internal/model"
	"momentum-scalper/internal/notification"
	"momentum-scalper/internal/scoring"
)

// Defaults for the cycle shape.
const (
	DefaultTopStocks  = 10
	DefaultChunkSize  = 5
	DefaultChunkPause = time.Second
	DefaultRSIPeriod  = 9
)

// Config shapes one scan cycle. Zero values fall back to defaults.
type Config struct {
	TopStocks      int
	ChunkSize      int
	ChunkPause     time.Duration
	RSIPeriod      int
	CandleInterval string

	BuyerControlMethod scoring.BuyerControlMethod
	Scoring            scoring.Config
	Decision           decision.Config
}

func (c Config) withDefaults() Config {
	if c.TopStocks == 0 {
		c.TopStocks = DefaultTopStocks
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkPause == 0 {
		c.ChunkPause = DefaultChunkPause
	}
	if c.RSIPeriod == 0 {
		c.RSIPeriod = DefaultRSIPeriod
	}
	if c.CandleInterval == "" {
		c.CandleInterval = model.Interval5Min
	}
	if c.BuyerControlMethod == "" {
		c.BuyerControlMethod = scoring.MethodHybrid
	}
	return c
}

// RunRecord is one completed cycle, as handed to the journal.
type RunRecord struct {
	StartedAt time.Time
	Duration  time.Duration
	Records   []model.ScoredRecord
	Orders    []model.OrderInstruction
}

// Journal persists completed cycles.
type Journal interface {
	SaveRun(ctx context.Context, run RunRecord) error
}

// Service wires the cycle steps to their collaborators. The stores,
// notifier and metrics are optional; the sources and the order placer
// are not.
type Service struct {
	cfg Config
	log *slog.Logger

	shortlist model.ShortlistSource
	quotes    model.QuoteSource
	candles   model.CandleSource
	orders    model.OrderPlacer

	journal   Journal
	snapshots model.SnapshotStore
	notifier  notification.Notifier
	metrics   *metrics.Metrics

	// now is overridable in tests.
	now func() time.Time
}

// New builds a Service around the required collaborators.
func New(cfg Config, shortlist model.ShortlistSource, quotes model.QuoteSource,
	candles model.CandleSource, orders model.OrderPlacer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:       cfg.withDefaults(),
		log:       log,
		shortlist: shortlist,
		quotes:    quotes,
		candles:   candles,
		orders:    orders,
		now:       time.Now,
	}
}

// WithJournal attaches a run journal.
func (s *Service) WithJournal(j Journal) *Service { s.journal = j; return s }

// WithSnapshots attaches a snapshot store.
func (s *Service) WithSnapshots(store model.SnapshotStore) *Service { s.snapshots = store; return s }

// WithNotifier attaches an alert channel for placed orders.
func (s *Service) WithNotifier(n notification.Notifier) *Service { s.notifier = n; return s }

// WithMetrics attaches Prometheus instrumentation.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service { s.metrics = m; return s }

// RunCycle executes one full scan: fetch the shortlist, enrich and
// score the top symbols chunk by chunk, then submit orders for the
// qualified ones. Per-symbol upstream failures are logged and skipped;
// only shortlist failure aborts the cycle.
func (s *Service) RunCycle(ctx context.Context) (RunRecord, error) {
	started := s.now()

	entries, err := s.shortlist.Shortlist(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.CyclesTotal.WithLabelValues("failed").Inc()
		}
		return RunRecord{}, err
	}
	if len(entries) > s.cfg.TopStocks {
		entries = entries[:s.cfg.TopStocks]
	}
	s.log.Info("cycle started", "candidates", len(entries))

	records := s.enrichAndScore(ctx, entries)

	orders := decision.Filter(records, s.cfg.Decision)
	for _, order := range orders {
		if err := s.orders.Place(ctx, order); err != nil {
			s.log.Error("order placement failed", "symbol", order.NSESymbol, "err", err)
			continue
		}
		if s.metrics != nil {
			s.metrics.OrdersPlaced.Inc()
		}
		s.notifyOrder(ctx, order)
	}

	run := RunRecord{
		StartedAt: started,
		Duration:  s.now().Sub(started),
		Records:   records,
		Orders:    orders,
	}
	if s.journal != nil {
		if err := s.journal.SaveRun(ctx, run); err != nil {
			s.log.Warn("journal write failed", "err", err)
		}
	}
	if s.metrics != nil {
		s.metrics.CyclesTotal.WithLabelValues("completed").Inc()
		s.metrics.CycleDuration.Observe(run.Duration.Seconds())
	}
	s.log.Info("cycle finished",
		"scored", len(records), "orders", len(orders),
		"duration", run.Duration.Round(time.Millisecond))
	return run, nil
}

// enrichAndScore walks the shortlist in chunks. Symbols within a chunk
// are fetched concurrently; chunks are separated by a pause so a burst
// of cycles stays polite to the upstream beyond the limiter's window.
func (s *Service) enrichAndScore(ctx context.Context, entries []model.ShortlistEntry) []model.ScoredRecord {
	results := make([]*model.ScoredRecord, len(entries))

	for start := 0; start < len(entries); start += s.cfg.ChunkSize {
		end := start + s.cfg.ChunkSize
		if end > len(entries) {
			end = len(entries)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec, ok := s.scoreSymbol(ctx, entries[i])
				if ok {
					results[i] = &rec
				}
			}(i)
		}
		wg.Wait()

		if end < len(entries) {
			select {
			case <-ctx.Done():
				return collect(results)
			case <-time.After(s.cfg.ChunkPause):
			}
		}
	}
	return collect(results)
}

func collect(results []*model.ScoredRecord) []model.ScoredRecord {
	out := make([]model.ScoredRecord, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// scoreSymbol fetches the quote and candle history for one shortlist
// entry and produces its scored record. A failed quote drops the
// symbol; failed candles only cost the indicator bands.
func (s *Service) scoreSymbol(ctx context.Context, entry model.ShortlistEntry) (model.ScoredRecord, bool) {
	quote, err := s.quotes.Quote(ctx, entry.NSESymbol)
	if err != nil {
		s.log.Error("quote fetch failed", "symbol", entry.NSESymbol, "err", err)
		if s.metrics != nil {
			s.metrics.SymbolsSkipped.Inc()
		}
		return model.ScoredRecord{}, false
	}

	rec := model.ScoredRecord{
		Quote:      quote,
		Instrument: entry.Name,
		NSESymbol:  entry.NSESymbol,
	}

	candles, err := s.candles.Candles(ctx, model.CandleRequest{
		Symbol:   entry.NSESymbol,
		Interval: s.cfg.CandleInterval,
		Start:    markethours.MarketOpen(s.now()),
		End:      s.now(),
	})
	if err != nil {
		// Indicators stay nil and their bands score zero.
		s.log.Warn("candle fetch failed", "symbol", entry.NSESymbol, "err", err)
		candles = nil
	}

	var in scoring.Inputs
	if len(candles) > 0 {
		if vwap, ok := indicator.VWAP(candles); ok {
			rec.VWAP = &vwap
			cross := indicator.VWAPCrossover(quote.Payload.LastPrice, candles, vwap)
			rec.VWAPCrossover = &cross
		}
		closes := make([]float64, len(candles))
		for i, c := range candles {
			closes[i] = c.Close
		}
		if rsi, ok := indicator.RSI(closes, s.cfg.RSIPeriod); ok {
			rec.RSI = &rsi
		}
		if trend, ok := indicator.VolumeTrend(candles); ok {
			rec.VolumeTrend = &trend
		}
	}
	in.RSI = rec.RSI
	in.VWAP = rec.VWAP
	in.Crossover = rec.VWAPCrossover
	in.VolumeTrend = rec.VolumeTrend

	if pct, ok := scoring.BuyerControl(&quote, s.cfg.BuyerControlMethod); ok {
		rec.BuyerControlPct = pct
	}
	in.BuyerControlPct = rec.BuyerControlPct

	takeProfitPct := s.cfg.Decision.TakeProfitPct
	if takeProfitPct == 0 {
		takeProfitPct = decision.DefaultTakeProfitPct
	}
	in.TakeProfitPrice = quote.Payload.LastPrice * (1 + takeProfitPct)

	res := scoring.Compute(&quote, in, s.cfg.Scoring)
	rec.Score = res.Score()
	rec.ScoreBreakdown = res.Breakdown()
	rec.RejectionReason = res.RejectionReason()

	s.observeRecord(&rec)
	if s.snapshots != nil {
		if err := s.snapshots.SaveSnapshot(ctx, rec); err != nil {
			s.log.Warn("snapshot write failed", "symbol", rec.NSESymbol, "err", err)
		}
	}
	return rec, true
}

func (s *Service) observeRecord(rec *model.ScoredRecord) {
	if rec.Rejected() {
		s.log.Info("symbol rejected", "symbol", rec.NSESymbol, "reason", rec.RejectionReason)
	} else {
		s.log.Info("symbol scored",
			"symbol", rec.NSESymbol, "score", rec.Score,
			"buyerControl", rec.BuyerControlPct)
	}
	if s.metrics == nil {
		return
	}
	s.metrics.SymbolsScored.Inc()
	if rec.Rejected() {
		gate := "circuit"
		if strings.HasPrefix(rec.RejectionReason, "Low volume") {
			gate = "volume"
		}
		s.metrics.RejectionsTotal.WithLabelValues(gate).Inc()
		return
	}
	s.metrics.ScoreHist.Observe(rec.Score)
}

func (s *Service) notifyOrder(ctx context.Context, order model.OrderInstruction) {
	if s.notifier == nil {
		return
	}
	alert := notification.OrderAlert(order)
	if err := s.notifier.Send(ctx, alert); err != nil {
		s.log.Warn("order alert failed", "symbol", order.NSESymbol, "err", err)
	}
}
