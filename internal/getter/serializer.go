package getter

import (
	"context"
	"sync"

	"github.com/hedgepy/broker/internal/wire"
)

// Serializer is an exclusive lock around the wrapped Getter. It exists
// because the broker-protocol vendor multiplexes every outbound request
// over one socket: two goroutines racing to write would interleave frames.
// HTTP vendors gain nothing from it beyond predictable ordering, but wiring
// it uniformly keeps every endpoint's decorator chain the same shape (§4.2:
// "Decorators compose: TimeChunker(RateLimiter(Serializer(raw)))").
type Serializer struct {
	next Getter
	mu   sync.Mutex
}

// NewSerializer wraps next with a mutual-exclusion lock.
func NewSerializer(next Getter) *Serializer {
	return &Serializer{next: next}
}

func (s *Serializer) Call(ctx context.Context, app App, req wire.Request, vctx *Context) (wire.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.Call(ctx, app, req, vctx)
}

func (s *Serializer) Returns() []wire.Field { return s.next.Returns() }
func (s *Serializer) Streams() bool         { return s.next.Streams() }
