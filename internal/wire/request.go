package wire

// RequestParams carries the parameterization of one Request: an optional
// date range, an optional resolution, and an optional Resource handle
// (already reified — decoding the wire string form is resource.Decode's
// job, upstream of this struct being built).
type RequestParams struct {
	Start      DateTime
	End        DateTime
	Resolution Duration
	// Resource is the decoded resource handle, or nil if the endpoint takes
	// none (e.g. a vendor-wide "list releases" call). Typed as `any` here
	// rather than resource.Resource to avoid this package importing
	// internal/resource — wire sits below resource in the dependency order.
	Resource any
}

// Priority is the request pipeline's two-band priority scheme: urgent
// (planner backfill/frontfill) sorts ahead of normal (scheduler tick)
// regardless of arrival order; FIFO within a band.
type Priority uint8

const (
	PriorityNormal Priority = iota
	PriorityUrgent
)

func (p Priority) String() string {
	if p == PriorityUrgent {
		return "urgent"
	}
	return "normal"
}

// Request is one parameterized call to a vendor endpoint. CorrID is unset
// (the zero CorrID) at client construction; the server assigns one via the
// vendor's CorrIDFn before the request enters the pipeline.
type Request struct {
	Vendor   string
	Endpoint string
	Params   RequestParams
	CorrID   CorrID
	Priority Priority
}

// Response is the result of dispatching a Request. Data is nil when the
// Getter failed; ErrorCode is set in that case (see internal/errors).
type Response struct {
	Request   Request
	Data      RecordIter
	ErrorCode string
}
