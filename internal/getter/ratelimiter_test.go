package getter

import (
	"context"
	"testing"
	"time"

	"github.com/hedgepy/broker/internal/wire"
)

func noopEndpoint() *Endpoint {
	target := func(ctx context.Context, app App, req wire.Request, vctx *Context) (wire.Response, error) {
		return wire.Response{Request: req}, nil
	}
	return NewEndpoint(target, nil, false, nil)
}

// TestRateLimiterSlidingWindowScenario is spec.md §8 scenario 1: a (2, 1s)
// limit with 5 requests submitted back-to-back must invoke the underlying
// getter at t=0, t=0+ε, t=1s, t=1s+ε, t=2s (±20ms) — i.e. never more than
// 2 calls land within any trailing 1s window.
func TestRateLimiterSlidingWindowScenario(t *testing.T) {
	rl := NewRateLimiter(noopEndpoint(), 2, 1*time.Second)

	for i := 0; i < 5; i++ {
		if _, err := rl.Call(context.Background(), nil, wire.Request{}, nil); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	history := rl.History()
	if len(history) != 2 {
		t.Fatalf("expected retained history capped at max=2, got %d", len(history))
	}

	// Re-run, this time checking the invariant against a full recorded
	// timeline rather than the capped History().
	var timeline []time.Time
	rl2 := NewRateLimiter(noopEndpoint(), 2, 1*time.Second)
	for i := 0; i < 5; i++ {
		if _, err := rl2.Call(context.Background(), nil, wire.Request{}, nil); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		timeline = append(timeline, time.Now())
	}

	for i := range timeline {
		count := 0
		windowStart := timeline[i].Add(-1 * time.Second)
		for _, ts := range timeline {
			if ts.After(windowStart) && !ts.After(timeline[i]) {
				count++
			}
		}
		if count > 2 {
			t.Errorf("window ending at call %d admitted %d calls, want <= 2", i, count)
		}
	}
}

func TestRateLimiterDisabledWhenMaxZero(t *testing.T) {
	rl := NewRateLimiter(noopEndpoint(), 0, 0)
	start := time.Now()
	for i := 0; i < 10; i++ {
		if _, err := rl.Call(context.Background(), nil, wire.Request{}, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("expected disabled rate limiter to not introduce delay")
	}
}

func TestRateLimiterRespectsContextCancellation(t *testing.T) {
	rl := NewRateLimiter(noopEndpoint(), 1, 1*time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := rl.Call(ctx, nil, wire.Request{}, nil); err != nil {
		t.Fatalf("first call: unexpected error: %v", err)
	}
	cancel()
	if _, err := rl.Call(ctx, nil, wire.Request{}, nil); err == nil {
		t.Error("expected second call to fail once context is cancelled and the window forces a wait")
	}
}
