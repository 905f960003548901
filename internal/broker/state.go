// Package broker implements the TCP client state machine for broker-
// protocol vendors (currently only IBKR's TWS/Gateway API). Protocol
// semantics — framing, handshake sequence, field encoding, the
// account-summary/historical-data/realtime-data/contract-details message
// set — are grounded on
// original_source/common/vendors/ibkr/ibkr.py's Connection/Reader/Client/App
// quartet. The idiomatic Go *shape* — one reader goroutine, one writer
// path, correlation via a request ID keying a response sink — is grounded
// on other_examples' franz-go broker client (promisedReq/promisedResp,
// one-reader-one-writer-per-connection).
package broker

// State is the connection lifecycle a broker-protocol vendor's Conn moves
// through. Transitions are one-directional except for the
// Connected->Disconnected drop, which the scheduler's next cycle recovers
// from by re-dialing — the broker client itself never retries internally
// (spec.md §7).
type State int

const (
	Disconnected State = iota
	Connecting
	Handshaking
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Handshaking:
		return "handshaking"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}
