package getter

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/hedgepy/broker/internal/wire"
)

// TimeChunker splits an over-long date-range request into contiguous
// half-open sub-requests, dispatches each through the wrapped Getter (so
// each sub-request is individually rate-limited and serialized — the
// decorator nesting is TimeChunker(RateLimiter(Serializer(raw)))), and
// merges the sub-responses' data in request-start order.
//
// chunkSchedule maps a resolution to the maximum single-request duration
// permitted at that resolution (e.g. P1M at minute resolution, P1D at
// tick resolution). On each call the chunker locates the smallest
// resolution entry greater than or equal to the request's resolution —
// the source's "locates the smallest resolution entry >= request
// resolution" rule — and chunks against that entry's max duration.
//
// Per DESIGN.md's resolution of spec.md §9 Open Question (a): every
// sub-request window, including the final one, is half-open [start, end).
type TimeChunker struct {
	next       Getter
	schedule   []chunkEntry
	corrIDFn   wire.CorrIDFn
}

type chunkEntry struct {
	resolution  time.Duration
	maxDuration time.Duration
}

// NewTimeChunker wraps next with a chunk schedule and the corr_id
// allocator each sub-request needs (every sub-request carries its own
// corr_id; only the merged Response reports the original).
func NewTimeChunker(next Getter, chunkSchedule map[time.Duration]time.Duration, corrIDFn wire.CorrIDFn) *TimeChunker {
	entries := make([]chunkEntry, 0, len(chunkSchedule))
	for res, max := range chunkSchedule {
		entries = append(entries, chunkEntry{resolution: res, maxDuration: max})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].resolution < entries[j].resolution })
	return &TimeChunker{next: next, schedule: entries, corrIDFn: corrIDFn}
}

func (c *TimeChunker) Call(ctx context.Context, app App, req wire.Request, vctx *Context) (wire.Response, error) {
	maxDuration, ok := c.maxDurationFor(req.Params.Resolution.Approx())
	if !ok {
		return c.next.Call(ctx, app, req, vctx)
	}

	start := req.Params.Start.Time
	end := req.Params.End.Time
	if end.IsZero() {
		end = nowFn()
	}
	duration := end.Sub(start)
	if duration <= maxDuration {
		return c.next.Call(ctx, app, req, vctx)
	}

	nChunks := int(math.Ceil(float64(duration) / float64(maxDuration)))
	origCorrID := req.CorrID
	iters := make([]wire.RecordIter, 0, nChunks)
	cursor := start
	corrID := origCorrID

	for i := 0; i < nChunks; i++ {
		windowEnd := cursor.Add(maxDuration)
		if windowEnd.After(end) {
			windowEnd = end
		}

		subReq := req
		subReq.CorrID = corrID
		subReq.Params.Start = wire.NewDateTime(cursor)
		subReq.Params.End = wire.NewDateTime(windowEnd)

		resp, err := c.next.Call(ctx, app, subReq, vctx)
		if err != nil {
			return wire.Response{}, err
		}
		iters = append(iters, resp.Data)

		cursor = windowEnd
		if i < nChunks-1 && c.corrIDFn != nil {
			corrID = c.corrIDFn()
		}
	}

	return wire.Response{
		Request: req,
		Data:    wire.Concat(iters...),
	}, nil
}

// maxDurationFor returns the max duration of the smallest chunk-schedule
// entry whose resolution is >= the requested resolution.
func (c *TimeChunker) maxDurationFor(resolution time.Duration) (time.Duration, bool) {
	for _, e := range c.schedule {
		if e.resolution >= resolution {
			return e.maxDuration, true
		}
	}
	return 0, false
}

func (c *TimeChunker) Returns() []wire.Field { return c.next.Returns() }
func (c *TimeChunker) Streams() bool         { return c.next.Streams() }
