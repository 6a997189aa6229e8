package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the scanner.
type Metrics struct {
	// Rate limiter
	LimiterAdmissions prometheus.Counter
	LimiterQueueDepth prometheus.Gauge

	// Upstream API client
	APIRequestsTotal   *prometheus.CounterVec // labels: outcome=success|http_error|network_error|credential_error|error
	APIRetriesTotal    prometheus.Counter
	TokenRefreshes     prometheus.Counter
	APIRequestDuration prometheus.Histogram

	// Scan cycles
	CyclesTotal     *prometheus.CounterVec // labels: outcome=completed|skipped|failed
	CycleDuration   prometheus.Histogram
	SymbolsScored   prometheus.Counter
	SymbolsSkipped  prometheus.Counter
	RejectionsTotal *prometheus.CounterVec // labels: gate=volume|circuit
	OrdersPlaced    prometheus.Counter
	ScoreHist       prometheus.Histogram
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		LimiterAdmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_limiter_admissions_total",
			Help: "Requests admitted by the rate limiter",
		}),
		LimiterQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalper_limiter_queue_depth",
			Help: "Requests currently waiting for a limiter slot",
		}),

		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_api_requests_total",
			Help: "Upstream API requests by outcome",
		}, []string{"outcome"}),
		APIRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_api_retries_total",
			Help: "Requests retried after credential invalidation",
		}),
		TokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_token_refreshes_total",
			Help: "Bearer token fetches against the auth endpoint",
		}),
		APIRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scalper_api_request_duration_seconds",
			Help:    "Upstream API request latency including limiter wait",
			Buckets: prometheus.DefBuckets,
		}),

		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_cycles_total",
			Help: "Scan cycles by outcome",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scalper_cycle_duration_seconds",
			Help:    "Wall time of one full scan cycle",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		SymbolsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_symbols_scored_total",
			Help: "Symbols that produced a scored record",
		}),
		SymbolsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_symbols_skipped_total",
			Help: "Symbols dropped from a cycle after an upstream failure",
		}),
		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_rejections_total",
			Help: "Scoring gate rejections by gate",
		}, []string{"gate"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_orders_placed_total",
			Help: "Order instructions handed to the order placer",
		}),
		ScoreHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scalper_score",
			Help:    "Composite score distribution over scored symbols",
			Buckets: []float64{20, 40, 60, 80, 90, 100, 110, 120, 135},
		}),
	}

	prometheus.MustRegister(
		m.LimiterAdmissions,
		m.LimiterQueueDepth,
		m.APIRequestsTotal,
		m.APIRetriesTotal,
		m.TokenRefreshes,
		m.APIRequestDuration,
		m.CyclesTotal,
		m.CycleDuration,
		m.SymbolsScored,
		m.SymbolsSkipped,
		m.RejectionsTotal,
		m.OrdersPlaced,
		m.ScoreHist,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	TokenOK        bool      `json:"token_ok"`
	LastCycleTime  time.Time `json:"last_cycle_time"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetTokenOK(v bool) {
	h.mu.Lock()
	h.TokenOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastCycleTime(t time.Time) {
	h.mu.Lock()
	h.LastCycleTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// Determine overall status. Stores are optional, the token is not.
	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.TokenOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	cycleAge := ""
	if !h.LastCycleTime.IsZero() {
		cycleAge = time.Since(h.LastCycleTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		TokenOK         bool    `json:"token_ok"`
		LastCycleTime   string  `json:"last_cycle_time"`
		CycleAge        string  `json:"cycle_age"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		TokenOK:         h.TokenOK,
		LastCycleTime:   h.LastCycleTime.Format(time.RFC3339),
		CycleAge:        cycleAge,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
