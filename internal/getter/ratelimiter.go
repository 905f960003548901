package getter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hedgepy/broker/internal/wire"
)

// RateLimiter enforces: across any sliding window of length Interval, no
// more than MaxRequests calls reach the wrapped Getter. The steady-state
// throttling is delegated to golang.org/x/time/rate's token bucket (the
// same mechanism pixalquarks-gidari shares across chunked sub-requests);
// alongside it this decorator keeps an explicit bounded history of the last
// MaxRequests invocation timestamps, because a token bucket alone is a
// conservative superset of the sliding-window invariant and does not prove
// it at the granularity spec.md §8 scenario 1 tests for. The history is
// consulted by waitForSlidingWindow before every call, kept current on
// every call, and exposed to tests through History.
type RateLimiter struct {
	next     Getter
	max      int
	interval time.Duration
	limiter  *rate.Limiter

	mu      sync.Mutex
	history []time.Time // bounded to max entries, oldest first
}

// NewRateLimiter wraps next with a (max, interval) sliding-window limit.
func NewRateLimiter(next Getter, max int, interval time.Duration) *RateLimiter {
	var limit rate.Limit
	if max <= 0 || interval <= 0 {
		limit = rate.Inf
	} else {
		limit = rate.Every(interval / time.Duration(max))
	}
	burst := max
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		next:     next,
		max:      max,
		interval: interval,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

func (r *RateLimiter) Call(ctx context.Context, app App, req wire.Request, vctx *Context) (wire.Response, error) {
	if r.max > 0 && r.interval > 0 {
		if err := r.waitForSlidingWindow(ctx); err != nil {
			return wire.Response{}, err
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return wire.Response{}, err
		}
	}
	r.record(nowFn())
	return r.next.Call(ctx, app, req, vctx)
}

// waitForSlidingWindow blocks until admitting one more call would not push
// the count of calls within the trailing Interval above max — the literal
// reading of §4.2: "if the oldest retained timestamp is within interval of
// now, sleep until it exits the window, then proceed."
func (r *RateLimiter) waitForSlidingWindow(ctx context.Context) error {
	r.mu.Lock()
	full := len(r.history) >= r.max
	var oldest time.Time
	if full {
		oldest = r.history[0]
	}
	r.mu.Unlock()

	if !full {
		return nil
	}
	now := nowFn()
	elapsed := now.Sub(oldest)
	if elapsed >= r.interval {
		return nil
	}
	wait := r.interval - elapsed
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *RateLimiter) record(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, t)
	if len(r.history) > r.max && r.max > 0 {
		r.history = r.history[len(r.history)-r.max:]
	}
}

// History returns a copy of the retained invocation timestamps, oldest
// first. Exported for tests verifying the sliding-window guarantee.
func (r *RateLimiter) History() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Time, len(r.history))
	copy(out, r.history)
	return out
}

func (r *RateLimiter) Returns() []wire.Field { return r.next.Returns() }
func (r *RateLimiter) Streams() bool         { return r.next.Streams() }

// nowFn is a package-level seam so tests can freeze time; production code
// never overrides it.
var nowFn = time.Now
