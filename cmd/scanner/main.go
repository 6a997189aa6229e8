package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"momentum-scalper/config"
	"momentum-scalper/internal/decision"
	"momentum-scalper/internal/execution"
	"momentum-scalper/internal/groww"
	"momentum-scalper/internal/logger"
	"momentum-scalper/internal/markethours"
	"momentum-scalper/internal/metrics"
	"momentum-scalper/internal/notification"
	"momentum-scalper/internal/ratelimit"
	"momentum-scalper/internal/scanner"
	"momentum-scalper/internal/scoring"
	redisstore "momentum-scalper/internal/store/redis"
	sqlitestore "momentum-scalper/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	if err := godotenv.Load(); err != nil {
		log.Printf("[scanner] no .env file loaded: %v", err)
	}

	cfg := config.Load()
	appLog := logger.Init("scanner", slog.LevelInfo)

	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[scanner] received signal %v, shutting down", sig)
		cancel()
	}()

	if err := os.MkdirAll("data", 0o755); err != nil {
		log.Fatalf("[scanner] failed to create data directory: %v", err)
	}

	journal, err := sqlitestore.New(sqlitestore.JournalConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[scanner] sqlite init failed: %v", err)
	}
	defer journal.Close()
	health.SetSQLiteOK(true)

	snapshots, err := redisstore.New(redisstore.StoreConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[scanner] WARNING: redis init failed: %v (continuing without snapshots)", err)
		snapshots = nil
	}
	if snapshots != nil {
		defer snapshots.Close()
		health.SetRedisConnected(true)
		health.StartLivenessChecker(ctx, snapshots.Client(), journal.DB(), 10*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, journal.DB(), 10*time.Second)
	}

	limiter, ok := ratelimit.Get("groww")
	if !ok {
		log.Fatalf("[scanner] no rate limiter registered for groww")
	}
	limiter.OnAdmit = func() { prom.LimiterAdmissions.Inc() }
	go func() {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				prom.LimiterQueueDepth.Set(float64(limiter.QueueLen()))
			}
		}
	}()

	tokenURL := cfg.GrowwTokenURL
	if tokenURL == "" {
		tokenURL = groww.DefaultTokenURL
	}
	tokenHTTP := &http.Client{Timeout: 30 * time.Second}
	var fetch groww.TokenFetcher
	if cfg.GrowwTOTPSecret != "" {
		fetch = groww.NewTOTPFetcher(tokenHTTP, tokenURL, cfg.GrowwAPIKey, cfg.GrowwTOTPSecret)
	} else {
		fetch = groww.NewAPIKeyFetcher(tokenHTTP, tokenURL, cfg.GrowwAPIKey, cfg.GrowwAPISecret)
	}
	fetch = instrumentedFetcher(fetch, prom, health)
	creds := groww.NewCredentialCache(fetch, appLog)

	client := groww.NewClient(groww.ClientConfig{BaseURL: cfg.GrowwBaseURL}, limiter, creds, appLog).
		WithMetrics(prom)
	shortlist := groww.NewShortlistScraper(groww.ShortlistTopGainers, appLog)

	executor := execution.NewExecutor(64)
	go drainResults(ctx, executor, appLog)

	var notifier notification.Notifier
	switch {
	case cfg.TelegramBotToken != "" && cfg.TelegramChatID != "":
		notifier = notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	case cfg.WebhookURL != "":
		notifier = notification.NewWebhookNotifier(cfg.WebhookURL)
	default:
		notifier = notification.NewLogNotifier()
	}

	svc := scanner.New(scanner.Config{
		TopStocks:          cfg.TopStocks,
		BuyerControlMethod: scoring.BuyerControlMethod(cfg.BuyerControlMethod),
		Decision:           decision.Config{MinScore: cfg.MinScore},
	}, shortlist, client, client, executor, appLog).
		WithJournal(journal).
		WithNotifier(notifier).
		WithMetrics(prom)
	if snapshots != nil {
		svc = svc.WithSnapshots(snapshots)
	}

	// Warm the token cache before the first cycle so the first scan does
	// not pay the issuance latency inside the trading window.
	if _, err := creds.Token(ctx); err != nil {
		appLog.Warn("initial token fetch failed", "error", err)
	}

	appLog.Info("scanner started",
		"scan_interval", cfg.ScanInterval.String(),
		"top_stocks", cfg.TopStocks,
		"buyer_control", cfg.BuyerControlMethod,
		"metrics_addr", cfg.MetricsAddr,
	)

	runLoop(ctx, cfg, svc, client, prom, health, appLog)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)
	appLog.Info("scanner stopped")
}

// runLoop fires a scan on every tick while the clock is inside the trading
// window and the bank index is trending up. Blocks until ctx is cancelled.
func runLoop(ctx context.Context, cfg *config.Config, svc *scanner.Service,
	quotes *groww.Client, prom *metrics.Metrics, health *metrics.HealthStatus,
	appLog *slog.Logger) {

	ticker := time.NewTicker(cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := time.Now()
		if !markethours.IsTradingDay(now) {
			appLog.Debug("outside trading day, skipping", "status", markethours.StatusString(now))
			continue
		}
		if !markethours.IsWithinTradingWindow(now) {
			appLog.Debug("outside trading window, skipping")
			continue
		}

		traceID := logger.GenerateTraceID("scan", now)
		cycleCtx := logger.WithTraceID(ctx, traceID)
		cycleLog := appLog.With("trace_id", traceID)

		trend, err := scanner.FetchNiftyTrend(cycleCtx, quotes)
		if err != nil {
			cycleLog.Error("bank index trend check failed", "error", err)
			prom.CyclesTotal.WithLabelValues("skipped").Inc()
			continue
		}
		if !trend.IsBullish {
			cycleLog.Info("bank index not bullish, skipping cycle",
				"day_change_perc", trend.DayChangePerc)
			prom.CyclesTotal.WithLabelValues("skipped").Inc()
			continue
		}

		run, err := svc.RunCycle(cycleCtx)
		if err != nil {
			cycleLog.Error("scan cycle failed", "error", err)
			continue
		}
		health.SetLastCycleTime(run.StartedAt)
		cycleLog.Info("scan cycle done",
			"duration", run.Duration.String(),
			"scored", len(run.Records),
			"orders", len(run.Orders),
		)
	}
}

// instrumentedFetcher counts token issuance attempts and keeps the health
// endpoint's token flag current.
func instrumentedFetcher(fetch groww.TokenFetcher, prom *metrics.Metrics,
	health *metrics.HealthStatus) groww.TokenFetcher {
	return func(ctx context.Context) (string, error) {
		prom.TokenRefreshes.Inc()
		token, err := fetch(ctx)
		health.SetTokenOK(err == nil)
		return token, err
	}
}

func drainResults(ctx context.Context, executor *execution.Executor, appLog *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-executor.Results():
			appLog.Info("order result",
				"order_id", res.OrderID,
				"status", res.Status,
				"symbol", res.Order.NSESymbol,
			)
		}
	}
}
