package ratelimit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

// admissionRecorder captures admission timestamps via the OnAdmit hook.
type admissionRecorder struct {
	mu    sync.Mutex
	times []time.Time
}

func (r *admissionRecorder) record() {
	r.mu.Lock()
	r.times = append(r.times, time.Now())
	r.mu.Unlock()
}

func (r *admissionRecorder) sorted() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Time, len(r.times))
	copy(out, r.times)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func TestLimiter_SecondWindowCeiling(t *testing.T) {
	const (
		maxPerSecond = 3
		requests     = 8
	)

	rec := &admissionRecorder{}
	l := New(Config{MaxPerSecond: maxPerSecond, MaxPerMinute: 100})
	l.OnAdmit = rec.record

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Execute(context.Background(), func(ctx context.Context) (any, error) {
				return nil, nil
			})
			if err != nil {
				t.Errorf("execute: %v", err)
			}
		}()
	}
	wg.Wait()

	times := rec.sorted()
	if len(times) != requests {
		t.Fatalf("expected %d admissions, got %d", requests, len(times))
	}

	// Slightly narrowed window absorbs scheduling jitter between the
	// limiter's internal stamp and the hook invocation.
	window := time.Second - 5*time.Millisecond
	for i := range times {
		count := 0
		for j := i; j < len(times); j++ {
			if times[j].Sub(times[i]) < window {
				count++
			}
		}
		if count > maxPerSecond {
			t.Fatalf("window starting at admission %d saw %d admissions (max %d)", i, count, maxPerSecond)
		}
	}

	// 8 requests at 3/s need at least two full window waits.
	if elapsed := times[len(times)-1].Sub(times[0]); elapsed < 1900*time.Millisecond {
		t.Errorf("8 admissions at 3/s finished too fast: %v", elapsed)
	}
}

func TestLimiter_FIFOAdmission(t *testing.T) {
	// Serialize execution via concurrency=1 so admission order is observable.
	l := New(Config{MaxPerSecond: 1000, MaxPerMinute: 10000, MaxConcurrency: 1})

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			l.Execute(context.Background(), func(ctx context.Context) (any, error) {
				mu.Lock()
				order = append(order, idx)
				mu.Unlock()
				return nil, nil
			})
		}(i)
		time.Sleep(20 * time.Millisecond) // stagger enqueues
	}
	wg.Wait()

	for i, idx := range order {
		if idx != i {
			t.Fatalf("admission order not FIFO: got %v", order)
		}
	}
}

func TestLimiter_PropagatesResultAndError(t *testing.T) {
	l := New(Config{MaxPerSecond: 10, MaxPerMinute: 100})

	val, err := l.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val.(int) != 42 {
		t.Fatalf("expected 42, got %v", val)
	}

	sentinel := errors.New("upstream exploded")
	_, err = l.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error unmodified, got %v", err)
	}
}

func TestLimiter_FailedAttemptConsumesSlot(t *testing.T) {
	l := New(Config{MaxPerSecond: 1, MaxPerMinute: 100})

	start := time.Now()
	l.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	l.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, nil
	})
	elapsed := time.Since(start)

	// The failed first attempt holds the 1/s slot, so the second must wait
	// for the window to roll.
	if elapsed < 900*time.Millisecond {
		t.Fatalf("second admission did not wait for failed slot to expire: %v", elapsed)
	}
}

func TestLimiter_QueueRefillRestartsDrain(t *testing.T) {
	l := New(Config{MaxPerSecond: 100, MaxPerMinute: 1000})

	for i := 0; i < 3; i++ {
		done := make(chan struct{})
		go func() {
			defer close(done)
			l.Execute(context.Background(), func(ctx context.Context) (any, error) {
				return nil, nil
			})
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("round %d: drain loop did not restart after queue emptied", i)
		}
		time.Sleep(50 * time.Millisecond) // let the loop go idle between rounds
	}
}

func TestLimiter_CancelledWhileQueued(t *testing.T) {
	l := New(Config{MaxPerSecond: 1000, MaxPerMinute: 10000, MaxConcurrency: 1})

	release := make(chan struct{})
	go l.Execute(context.Background(), func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	time.Sleep(50 * time.Millisecond) // first request now holds the concurrency slot

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	errCh := make(chan error, 1)
	go func() {
		_, err := l.Execute(ctx, func(ctx context.Context) (any, error) {
			t.Error("cancelled request must not run")
			return nil, nil
		})
		errCh <- err
	}()

	close(release)
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled request was never rejected")
	}
}
