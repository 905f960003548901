// Package pipeline implements the broker's central dispatch loop: an
// Enqueue/GET front-end backed by a priority queue, a response store, and a
// singleflight layer that collapses identical concurrent requests into one
// upstream call. Grounded on original_source/server/bases.py's
// RequestManager/ResponseManager pair, translated from asyncio's
// single-consumer event loop into goroutines: the teacher's 50ms poll cycle
// survives as a ticker, but each dequeued request dispatches to its own
// goroutine so that genuinely concurrent in-flight requests overlap (per
// SPEC_FULL.md §5 — "parallelism comes from concurrent in-flight requests,
// not from parallel dispatch of the cycle itself").
package pipeline

import (
	"context"
	"fmt"
	"time"

	apierrors "github.com/hedgepy/broker/internal/errors"
	"github.com/hedgepy/broker/internal/getter"
	"github.com/hedgepy/broker/internal/metrics"
	"github.com/hedgepy/broker/internal/vendor"
	"github.com/hedgepy/broker/internal/wire"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// cycleInterval is the pipeline's idle poll period — the Go analog of the
// source's CYCLE_SLEEP_MS = 50. A non-empty queue drains immediately and
// continuously; the ticker only throttles the loop when both bands are
// empty, so the pipeline doesn't spin a goroutine hot on nothing.
const cycleInterval = 50 * time.Millisecond

// Pipeline owns the request queue, the response store, and the vendor
// table it dispatches against.
type Pipeline struct {
	queue   *Queue
	store   *Store
	vendors map[string]*vendor.Vendor
	sf      singleflight.Group
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New constructs a Pipeline over the given vendor table. vendors is not
// copied; callers must not mutate it after construction.
func New(vendors map[string]*vendor.Vendor, m *metrics.Metrics, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		queue:   NewQueue(),
		store:   NewStore(),
		vendors: vendors,
		metrics: m,
		log:     log.With().Str("component", "pipeline").Logger(),
	}
}

// Enqueue validates req's vendor/endpoint, assigns a corr_id if req didn't
// already carry one, and pushes it onto the appropriate priority band.
// Unknown vendor/endpoint is rejected synchronously (§7: never enqueued),
// matching spec.md's "fail fast on routing, fail into the response store
// on everything downstream" error model.
func (p *Pipeline) Enqueue(req wire.Request) (wire.CorrID, error) {
	v, ok := p.vendors[req.Vendor]
	if !ok {
		return wire.CorrID{}, apierrors.ErrCodeUnknownVendor
	}
	if _, err := v.Getter(req.Endpoint); err != nil {
		return wire.CorrID{}, apierrors.ErrCodeUnknownEndpoint
	}

	if req.CorrID == (wire.CorrID{}) {
		req.CorrID = v.CorrIDFn()
	}

	p.queue.Push(req)
	if p.metrics != nil {
		p.metrics.ObserveEnqueue(req.Vendor, req.Endpoint, req.Priority.String())
	}
	return req.CorrID, nil
}

// Pop claims the response stored for corrID, if one has been resolved.
func (p *Pipeline) Pop(corrID wire.CorrID) (wire.Response, bool) {
	return p.store.Pop(corrID)
}

// Peek reports whether corrID's response is ready, without claiming it.
func (p *Pipeline) Peek(corrID wire.CorrID) (wire.Response, bool) {
	return p.store.Peek(corrID)
}

// Wait blocks until corrID's response resolves or ctx is done.
func (p *Pipeline) Wait(ctx context.Context, corrID wire.CorrID) (wire.Response, error) {
	return p.store.Wait(ctx, corrID)
}

// PendingCount reports the number of requests not yet dispatched.
func (p *Pipeline) PendingCount() int {
	return p.queue.Len()
}

// ResponseCount reports the number of resolved responses not yet claimed.
func (p *Pipeline) ResponseCount() int {
	return p.store.Len()
}

// Run drives the dispatch cycle until ctx is cancelled. Each dequeued
// request is dispatched in its own goroutine so that a slow vendor call
// never blocks the next request's dequeue — the queue only serializes
// *admission order*, not execution.
func (p *Pipeline) Run(ctx context.Context) {
	ticker := time.NewTicker(cycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		req, ok := p.queue.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			continue
		}

		go p.dispatch(ctx, req)
	}
}

// dispatch resolves req's getter and invokes it, deduplicating concurrent
// identical calls via singleflight, then stores the resulting Response
// (success or converted failure) under req's corr_id.
func (p *Pipeline) dispatch(ctx context.Context, req wire.Request) {
	start := time.Now()
	v, ok := p.vendors[req.Vendor]
	if !ok {
		p.store.Set(req.CorrID, errResponse(req, apierrors.ErrCodeUnknownVendor))
		return
	}
	g, err := v.Getter(req.Endpoint)
	if err != nil {
		p.store.Set(req.CorrID, errResponse(req, apierrors.ErrCodeUnknownEndpoint))
		return
	}

	key := singleflightKey(req)
	result, shared, err := p.sf.Do(key, func() (interface{}, error) {
		return g.Call(ctx, v.App, req, v.Context)
	})

	if p.metrics != nil && shared {
		// Go's singleflight.Do reports shared=true to every caller that
		// shared a result, including the one that actually ran fn — this
		// overcounts the leader by one join per collapsed group, an
		// acceptable imprecision for an observability counter.
		p.metrics.ObserveSingleflightJoin(req.Vendor, req.Endpoint)
	}

	var resp wire.Response
	var errCode string
	if err != nil {
		errCode = classifyGetterError(err)
		resp = errResponse(req, apierrors.ErrorCode(errCode))
		p.log.Warn().Str("vendor", req.Vendor).Str("endpoint", req.Endpoint).
			Str("corr_id", req.CorrID.String()).Err(err).Msg("getter call failed")
	} else {
		resp = result.(wire.Response)
		// The shared result carries whichever caller's Request was the
		// singleflight leader's; re-stamp it with this caller's own
		// corr_id so joiners resolve their own waiter, not the leader's.
		resp.Request = req
	}

	if p.metrics != nil {
		p.metrics.ObserveGetterCall(req.Vendor, req.Endpoint, time.Since(start), errCode)
		p.metrics.ObserveRequestResolved(req.Vendor, req.Endpoint, time.Since(start))
	}
	p.store.Set(req.CorrID, resp)
}

// singleflightKey identifies requests that are asking for the same data:
// same vendor, endpoint, and time/resource parameters. Two requests with
// distinct corr_ids but an identical key — e.g. the coverage planner's
// backfill racing the scheduler's normal tick — collapse into one upstream
// call.
func singleflightKey(req wire.Request) string {
	res := ""
	if r, ok := req.Params.Resource.(interface {
		ClassName() string
		Handle() string
	}); ok {
		res = r.ClassName() + "$" + r.Handle()
	} else if req.Params.Resource != nil {
		res = fmt.Sprint(req.Params.Resource)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		req.Vendor, req.Endpoint,
		wire.DtToStr(req.Params.Start, wire.TimestampLayout),
		wire.DtToStr(req.Params.End, wire.TimestampLayout),
		wire.TdToStr(req.Params.Resolution),
		res,
	)
}

// classifyGetterError maps an error returned by a getter chain to the
// ErrorCode a Response carries. A getter.FormatError maps to upstream
// schema drift; ctx cancellation and anything else are treated as an
// upstream transport failure, the retryable default.
func classifyGetterError(err error) string {
	if err == context.Canceled || err == context.DeadlineExceeded {
		return string(apierrors.ErrCodeUpstreamTransport)
	}
	if _, ok := err.(getter.FormatError); ok {
		return string(apierrors.ErrCodeUpstreamSchemaDrift)
	}
	return string(apierrors.ErrCodeUpstreamTransport)
}

func errResponse(req wire.Request, code apierrors.ErrorCode) wire.Response {
	return wire.Response{Request: req, ErrorCode: string(code)}
}
