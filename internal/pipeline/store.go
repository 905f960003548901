package pipeline

import (
	"context"
	"sync"

	"github.com/hedgepy/broker/internal/wire"
)

// Store holds completed responses keyed by corr_id, plus the channel a
// concurrent GET is parked on while the matching response is still
// in-flight. Structurally this mirrors the teacher's
// idempotency.MemoryStore (a mutex-guarded map with Get/Set/Delete) but
// drops its LRU/TTL eviction machinery: per §3's lifecycle, a response
// persists until the caller claims it with GET, however long that takes —
// there is no size cap or background janitor here.
type Store struct {
	mu        sync.Mutex
	responses map[wire.CorrID]wire.Response
	waiters   map[wire.CorrID]chan wire.Response
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		responses: make(map[wire.CorrID]wire.Response),
		waiters:   make(map[wire.CorrID]chan wire.Response),
	}
}

// Set records resp under its request's corr_id, waking any GET parked on
// Wait for that corr_id. Called exactly once per corr_id, from the
// pipeline's dispatch goroutine, once a getter call (success or failure)
// completes.
func (s *Store) Set(corrID wire.CorrID, resp wire.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[corrID] = resp
	if ch, ok := s.waiters[corrID]; ok {
		ch <- resp
		delete(s.waiters, corrID)
	}
}

// Pop removes and returns the response stored under corrID, if any. This
// is the shape GET uses: a response is delivered to its first successful
// claimant and then forgotten, matching §3's "claimed once" semantics.
func (s *Store) Pop(corrID wire.CorrID) (wire.Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.responses[corrID]
	if ok {
		delete(s.responses, corrID)
	}
	return resp, ok
}

// Peek reports whether a response is currently stored for corrID, without
// claiming it. Exposed to in-process callers through Pipeline.Peek; the
// "GET without corr_id" route reports its counts from Len instead.
func (s *Store) Peek(corrID wire.CorrID) (wire.Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.responses[corrID]
	return resp, ok
}

// Len reports the number of responses currently stored and unclaimed. Used
// by the "GET without corr_id" route to report the ready-response count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.responses)
}

// Wait blocks until a response is stored for corrID, ctx is cancelled, or
// one is already available. Used by a caller that wants to block on
// completion instead of polling GET — the pipeline itself does not call
// this; it exists for in-process callers (tests, coverage fill-and-wait
// helpers) that need synchronous completion.
func (s *Store) Wait(ctx context.Context, corrID wire.CorrID) (wire.Response, error) {
	s.mu.Lock()
	if resp, ok := s.responses[corrID]; ok {
		s.mu.Unlock()
		return resp, nil
	}
	ch, ok := s.waiters[corrID]
	if !ok {
		ch = make(chan wire.Response, 1)
		s.waiters[corrID] = ch
	}
	s.mu.Unlock()

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return wire.Response{}, ctx.Err()
	}
}
