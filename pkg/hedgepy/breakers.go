package hedgepy

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hedgepy/broker/internal/circuitbreaker"
	"github.com/hedgepy/broker/internal/config"
	"github.com/hedgepy/broker/internal/getter"
	"github.com/hedgepy/broker/internal/wire"
)

// Breakers adapts circuitbreaker.Manager (which protects an arbitrary
// func() (any, error) call) into something that can wrap a getter.Getter,
// so every vendor getter call — not just the raw HTTP/TCP round trip one
// layer down — trips its vendor's breaker on repeated failure.
type Breakers struct {
	manager *circuitbreaker.Manager
}

// NewBreakers builds the circuit breaker manager from config.
func NewBreakers(cfg config.CircuitBreakerConfig, log zerolog.Logger) *Breakers {
	return &Breakers{manager: circuitbreaker.NewManagerFromConfig(cfg, log)}
}

// Wrap returns a Getter that runs next.Call through vendor's breaker.
func (b *Breakers) Wrap(vendorName string, next getter.Getter) getter.Getter {
	return &breakerGetter{vendor: vendorName, next: next, manager: b.manager}
}

// State reports a vendor's current breaker state, for /metrics or
// diagnostics endpoints.
func (b *Breakers) State(vendorName string) string {
	return b.manager.State(vendorName)
}

type breakerGetter struct {
	vendor  string
	next    getter.Getter
	manager *circuitbreaker.Manager
}

func (g *breakerGetter) Call(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	result, err := g.manager.Execute(g.vendor, func() (interface{}, error) {
		return g.next.Call(ctx, app, req, vctx)
	})
	if err != nil {
		return wire.Response{}, err
	}
	return result.(wire.Response), nil
}

func (g *breakerGetter) Returns() []wire.Field { return g.next.Returns() }
func (g *breakerGetter) Streams() bool         { return g.next.Streams() }
