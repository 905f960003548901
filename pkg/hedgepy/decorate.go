package hedgepy

import (
	"math"
	"time"

	"github.com/hedgepy/broker/internal/config"
	"github.com/hedgepy/broker/internal/getter"
	"github.com/hedgepy/broker/internal/vendor"
)

// DecorateVendors rewrites each loaded vendor's Getters in place, applying
// the getter.Chain(TimeChunker(RateLimiter(Serializer(raw)))) decorator
// nesting per §4.2 using that vendor's VendorConfig overrides, then wraps
// the result behind the vendor's circuit breaker. Vendor plugins build
// their Getters map with bare *getter.Endpoint values specifically so this
// pass can re-wrap them — a Getter that is already something else (there
// are none in this module today) passes through undecorated.
func DecorateVendors(vendors map[string]*vendor.Vendor, cfgs map[string]config.VendorConfig, breakers *Breakers) {
	for name, v := range vendors {
		vc := cfgs[name]
		chainCfg := getter.ChainConfig{
			MaxRequests:   int(vc.RateLimitBurst),
			Interval:      time.Second,
			ChunkSchedule: chunkSchedule(vc.MaxChunkDays),
			CorrIDFn:      v.CorrIDFn,
		}
		if vc.RateLimitPerSec > 0 {
			chainCfg.MaxRequests = maxRequestsFor(vc.RateLimitPerSec, vc.RateLimitBurst)
		}

		decorated := make(map[string]getter.Getter, len(v.Getters))
		for endpoint, g := range v.Getters {
			raw, ok := g.(*getter.Endpoint)
			if !ok {
				decorated[endpoint] = g
				continue
			}
			chained := getter.Chain(raw, chainCfg)
			decorated[endpoint] = breakers.Wrap(name, chained)
		}
		v.Getters = decorated
	}
}

// chunkSchedule turns a vendor's flat MaxChunkDays override into the
// single-entry schedule getter.NewTimeChunker expects: one entry whose
// resolution is large enough to be selected for every request resolution
// ("smallest schedule entry >= request resolution"), since VendorConfig
// exposes one chunk limit per vendor rather than per-resolution tiers.
// maxChunkDays <= 0 disables chunking for this vendor.
func chunkSchedule(maxChunkDays int) map[time.Duration]time.Duration {
	if maxChunkDays <= 0 {
		return nil
	}
	return map[time.Duration]time.Duration{
		time.Duration(math.MaxInt64): time.Duration(maxChunkDays) * 24 * time.Hour,
	}
}

// maxRequestsFor converts a steady-state rate (requests/sec) and a burst
// size into the (max, interval) sliding-window pair NewRateLimiter takes,
// holding the window at one second.
func maxRequestsFor(perSec float64, burst int) int {
	max := int(perSec)
	if burst > max {
		max = burst
	}
	if max < 1 {
		max = 1
	}
	return max
}
