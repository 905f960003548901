package broker

import "strconv"

// Inbound message type codes, from ibapi.message (approximate IDs
// preserved from the wire protocol). Every inbound frame's first field is
// its message type; the second is typically a protocol version number,
// preserved here but not otherwise interpreted, per comm.read_fields.
const (
	inAccountSummary    = "63"
	inAccountSummaryEnd = "64"
	inHistoricalData    = "17"
	inHistoricalDataEnd = "108"
	inHistoricalTicks   = "98"
	inRealtimeBar       = "50"
	inContractData      = "10"
	inContractDataEnd   = "52"
)

// InboundHandler receives the records decoded from one inbound message
// for the given request_id. final marks the upstream end-of-data sentinel
// for a non-streaming endpoint — the signal for the vendor layer to flush
// its accumulated Response and resolve the pipeline waiter for reqID.
// Streaming endpoints (realtime bars/ticks) call with final=false on every
// message; there is no terminal sentinel until the caller disconnects.
type InboundHandler func(reqID int32, records [][]any, final bool)

// NewHandler builds the Conn.Handler that demuxes inbound frames by
// message type and forwards decoded records to onRecords — the Go
// translation of the source's EWrapper callback methods (accountSummary,
// historicalData, historicalTicks, realtimeBar, contractDetails), each of
// which built an API.Response keyed by the same reqId this dispatches on.
func NewHandler(onRecords InboundHandler) Handler {
	return func(f Frame) {
		switch f.Field(0) {
		case inAccountSummary:
			onRecords(parseReqID(f.Field(2)), [][]any{
				{f.Field(3), f.Field(4), f.Field(5), f.Field(6)},
			}, false)
		case inAccountSummaryEnd:
			onRecords(parseReqID(f.Field(2)), nil, true)

		case inHistoricalData:
			onRecords(parseReqID(f.Field(2)), [][]any{fieldsAfter(f, 3)}, false)
		case inHistoricalDataEnd:
			onRecords(parseReqID(f.Field(2)), nil, true)

		case inHistoricalTicks:
			onRecords(parseReqID(f.Field(1)), [][]any{fieldsAfter(f, 2)}, true)

		case inRealtimeBar:
			onRecords(parseReqID(f.Field(2)), [][]any{fieldsAfter(f, 3)}, false)

		case inContractData:
			onRecords(parseReqID(f.Field(2)), [][]any{fieldsAfter(f, 3)}, false)
		case inContractDataEnd:
			onRecords(parseReqID(f.Field(2)), nil, true)
		}
	}
}

func parseReqID(s string) int32 {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0
	}
	return int32(v)
}

// fieldsAfter returns the remaining fields as a generic record, each kept
// as its raw string — the vendor layer's formatter, not this layer, is
// responsible for coercing into the endpoint's declared wire.Field types.
func fieldsAfter(f Frame, from int) []any {
	if from >= len(f.Fields) {
		return nil
	}
	rest := f.Fields[from:]
	out := make([]any, len(rest))
	for i, v := range rest {
		out[i] = v
	}
	return out
}
