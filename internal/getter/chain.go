package getter

import (
	"time"

	"github.com/hedgepy/broker/internal/wire"
)

// ChainConfig parameterizes the decorators Chain wraps around a raw
// Endpoint. A zero-value field disables that decorator: MaxRequests == 0
// skips rate limiting, ChunkSchedule == nil skips chunking. Serializer is
// always applied — §4.2 and §5 both treat it as mandatory.
type ChainConfig struct {
	MaxRequests   int
	Interval      time.Duration
	ChunkSchedule map[time.Duration]time.Duration
	CorrIDFn      wire.CorrIDFn
}

// Chain builds the explicit decorator nesting
// TimeChunker(RateLimiter(Serializer(raw))) described in §4.2 and DESIGN
// NOTES §9 ("Composition is explicit object nesting; there is no
// reflection").
func Chain(raw *Endpoint, cfg ChainConfig) Getter {
	var g Getter = NewSerializer(raw)
	if cfg.MaxRequests > 0 {
		g = NewRateLimiter(g, cfg.MaxRequests, cfg.Interval)
	}
	if len(cfg.ChunkSchedule) > 0 {
		g = NewTimeChunker(g, cfg.ChunkSchedule, cfg.CorrIDFn)
	}
	return g
}
