package getter

import (
	"context"
	"testing"

	"github.com/hedgepy/broker/internal/wire"
)

func echoEndpoint() *Endpoint {
	target := func(ctx context.Context, app App, req wire.Request, vctx *Context) (wire.Response, error) {
		return wire.Response{Request: req, Data: wire.SliceIter([][]any{{"ok"}})}, nil
	}
	return NewEndpoint(target, []wire.Field{{Name: "status", Type: wire.Text}}, false, nil)
}

func TestEndpointAppliesFormatter(t *testing.T) {
	formatted := false
	target := func(ctx context.Context, app App, req wire.Request, vctx *Context) (wire.Response, error) {
		return wire.Response{Request: req}, nil
	}
	formatter := func(r wire.Response) (wire.Response, error) {
		formatted = true
		return r, nil
	}
	e := NewEndpoint(target, nil, false, formatter)
	if _, err := e.Call(context.Background(), nil, wire.Request{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !formatted {
		t.Error("expected formatter to be invoked")
	}
}

func TestSerializerForwardsSequentialCalls(t *testing.T) {
	e := echoEndpoint()
	s := NewSerializer(e)

	done := make(chan struct{})
	go func() {
		s.Call(context.Background(), nil, wire.Request{}, nil)
		close(done)
	}()
	<-done

	if _, err := s.Call(context.Background(), nil, wire.Request{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestChainBuildsExpectedNesting(t *testing.T) {
	e := echoEndpoint()
	g := Chain(e, ChainConfig{
		MaxRequests:   2,
		Interval:      0,
		ChunkSchedule: nil,
	})
	if _, ok := g.(*RateLimiter); !ok {
		t.Fatalf("expected outermost layer to be *RateLimiter when chunking disabled, got %T", g)
	}
}

func TestChainSkipsDisabledDecorators(t *testing.T) {
	e := echoEndpoint()
	g := Chain(e, ChainConfig{})
	if _, ok := g.(*Serializer); !ok {
		t.Fatalf("expected bare Serializer when no decorators configured, got %T", g)
	}
}
