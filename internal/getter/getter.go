package getter

import (
	"context"

	"github.com/hedgepy/broker/internal/wire"
)

// App is a vendor's live session handle: an *http.Client-backed HTTP
// session for most vendors, or a *broker.Conn for the broker-protocol
// vendor. Left untyped at this layer so getter decorators stay vendor
// agnostic; each vendor's Target closures do the concrete type assertion.
type App any

// Target is the bare, undecorated callable implementing one endpoint —
// §4.1's Getter contract before any of the three decorators in §4.2 wrap
// it.
type Target func(ctx context.Context, app App, req wire.Request, vctx *Context) (wire.Response, error)

// Formatter post-processes a raw Response into the endpoint's canonical
// shape (the source's `register_getter(formatter=...)` argument).
type Formatter func(wire.Response) (wire.Response, error)

// FormatError is returned by a Formatter when the upstream payload doesn't
// match the endpoint's declared Returns tuple — a vendor having changed its
// response shape out from under us, rather than a transport failure. The
// pipeline classifies this distinctly (ErrCodeUpstreamSchemaDrift) so it
// isn't retried the way a transport error is.
type FormatError struct {
	Endpoint string
	Reason   string
}

func (e FormatError) Error() string {
	return "getter: " + e.Endpoint + ": schema drift: " + e.Reason
}

// Getter is the decorated callable the pipeline actually invokes. Every
// Getter exposes its returns tuple and whether it streams, in addition to
// being callable.
type Getter interface {
	Call(ctx context.Context, app App, req wire.Request, vctx *Context) (wire.Response, error)
	Returns() []wire.Field
	Streams() bool
}

// Endpoint wraps a bare Target with its static metadata (returns, streams,
// formatter) and is the innermost Getter in every decorator chain — it is
// what Chain's raw argument must be.
type Endpoint struct {
	target    Target
	returns   []wire.Field
	streams   bool
	formatter Formatter
}

// NewEndpoint registers a bare getter function with its declared returns
// tuple, mirroring the source's `register_getter` decorator.
func NewEndpoint(target Target, returns []wire.Field, streams bool, formatter Formatter) *Endpoint {
	return &Endpoint{target: target, returns: returns, streams: streams, formatter: formatter}
}

func (e *Endpoint) Call(ctx context.Context, app App, req wire.Request, vctx *Context) (wire.Response, error) {
	resp, err := e.target(ctx, app, req, vctx)
	if err != nil {
		return resp, err
	}
	if e.formatter != nil {
		return e.formatter(resp)
	}
	return resp, nil
}

func (e *Endpoint) Returns() []wire.Field { return e.returns }
func (e *Endpoint) Streams() bool         { return e.streams }
