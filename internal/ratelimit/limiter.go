// Package ratelimit provides sliding-window admission control for outbound
// API calls. A Limiter bounds attempts over two trailing horizons (1s and
// 60s) while preserving FIFO admission order across concurrent callers.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	secondWindow = time.Second
	minuteWindow = time.Minute

	defaultMaxConcurrency = 10
	defaultRequestTimeout = 30 * time.Second

	// Safety sleep when a saturated window reports zero wait.
	minRetrySleep = 10 * time.Millisecond
)

// Config configures a Limiter.
type Config struct {
	MaxPerSecond int
	MaxPerMinute int

	// MaxConcurrency bounds dispatched-but-unfinished work. Defaults to 10.
	MaxConcurrency int

	// RequestTimeout bounds a single dispatched operation. Defaults to 30s.
	// Zero uses the default; negative disables the timeout.
	RequestTimeout time.Duration
}

type result struct {
	val any
	err error
}

// queuedRequest is owned by the limiter from enqueue until its result is
// delivered on done.
type queuedRequest struct {
	ctx  context.Context
	run  func(ctx context.Context) (any, error)
	done chan result
}

// Limiter enforces both rate ceilings with a single drain loop per
// instance. Admission records a timestamp slot before the operation runs,
// so failed attempts still count against the windows.
type Limiter struct {
	maxPerSecond   int
	maxPerMinute   int
	maxConcurrency int
	requestTimeout time.Duration

	mu           sync.Mutex
	queue        []*queuedRequest
	secondStamps []time.Time
	minuteStamps []time.Time
	processing   bool
	inFlight     int

	// OnAdmit, if set, is invoked once per admission. Used for metrics.
	OnAdmit func()
}

// New creates a Limiter from cfg, applying defaults.
func New(cfg Config) *Limiter {
	mc := cfg.MaxConcurrency
	if mc <= 0 {
		mc = defaultMaxConcurrency
	}
	rt := cfg.RequestTimeout
	if rt == 0 {
		rt = defaultRequestTimeout
	}
	return &Limiter{
		maxPerSecond:   cfg.MaxPerSecond,
		maxPerMinute:   cfg.MaxPerMinute,
		maxConcurrency: mc,
		requestTimeout: rt,
	}
}

// Execute enqueues fn and blocks until it has been admitted, run, and its
// result delivered. Admission order is FIFO across all callers. The error
// of fn is propagated unmodified. If ctx is cancelled while the request is
// still queued, Execute returns ctx.Err() without consuming a slot.
func (l *Limiter) Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	qr := &queuedRequest{ctx: ctx, run: fn, done: make(chan result, 1)}

	l.mu.Lock()
	l.queue = append(l.queue, qr)
	start := !l.processing
	if start {
		l.processing = true
	}
	l.mu.Unlock()

	if start {
		go l.drain()
	}

	res := <-qr.done
	return res.val, res.err
}

// QueueLen returns the number of requests waiting for admission.
func (l *Limiter) QueueLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// drain is the single active admission loop. It exits when the queue is
// empty or when the concurrency ceiling is reached; completing requests
// call kick to restart it.
func (l *Limiter) drain() {
	for {
		l.mu.Lock()
		now := time.Now()
		l.prune(now)

		if len(l.queue) == 0 {
			l.processing = false
			l.mu.Unlock()
			return
		}

		if l.inFlight >= l.maxConcurrency {
			// In-flight completions will kick the loop again.
			l.processing = false
			l.mu.Unlock()
			return
		}

		if !l.admissible() {
			wait := l.waitTime(now)
			l.mu.Unlock()
			if wait <= 0 {
				wait = minRetrySleep
			}
			time.Sleep(wait)
			continue
		}

		qr := l.queue[0]
		l.queue = l.queue[1:]

		// A request abandoned while queued is rejected without a slot.
		if err := qr.ctx.Err(); err != nil {
			l.mu.Unlock()
			qr.done <- result{err: err}
			continue
		}

		// Record the slot before the operation runs: the limiter bounds
		// attempts, not successes.
		l.secondStamps = append(l.secondStamps, now)
		l.minuteStamps = append(l.minuteStamps, now)
		l.inFlight++
		onAdmit := l.OnAdmit
		l.mu.Unlock()

		if onAdmit != nil {
			onAdmit()
		}
		go l.dispatch(qr)
	}
}

func (l *Limiter) dispatch(qr *queuedRequest) {
	ctx := qr.ctx
	if l.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.requestTimeout)
		defer cancel()
	}

	val, err := qr.run(ctx)
	qr.done <- result{val: val, err: err}

	l.mu.Lock()
	l.inFlight--
	l.mu.Unlock()
	l.kick()
}

// kick restarts the drain loop after a completion or late enqueue. The
// queue never needs an external nudge: an emptied and refilled queue is
// restarted by the Execute that refills it.
func (l *Limiter) kick() {
	l.mu.Lock()
	start := !l.processing && len(l.queue) > 0
	if start {
		l.processing = true
	}
	l.mu.Unlock()
	if start {
		go l.drain()
	}
}

// admissible reports whether both windows are below their ceilings.
// Caller holds mu with freshly pruned stamps.
func (l *Limiter) admissible() bool {
	return len(l.secondStamps) < l.maxPerSecond && len(l.minuteStamps) < l.maxPerMinute
}

// prune drops timestamps older than their horizon. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	l.secondStamps = pruneBefore(l.secondStamps, now.Add(-secondWindow))
	l.minuteStamps = pruneBefore(l.minuteStamps, now.Add(-minuteWindow))
}

func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return stamps
	}
	return append(stamps[:0], stamps[i:]...)
}

// waitTime returns the minimum sleep until the least-recent timestamp in
// whichever window is saturated falls out. Caller holds mu.
func (l *Limiter) waitTime(now time.Time) time.Duration {
	var wait time.Duration
	if len(l.secondStamps) >= l.maxPerSecond && len(l.secondStamps) > 0 {
		if w := l.secondStamps[0].Add(secondWindow).Sub(now); w > wait {
			wait = w
		}
	}
	if len(l.minuteStamps) >= l.maxPerMinute && len(l.minuteStamps) > 0 {
		if w := l.minuteStamps[0].Add(minuteWindow).Sub(now); w > wait {
			wait = w
		}
	}
	return wait
}
