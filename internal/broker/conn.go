package broker

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Protocol constants from the source's ibapi.client/ibapi.message modules.
const (
	clientVersion  = 100
	serverVersion  = 176
	outStartAPI    = "71"
	startAPIVer    = "2"
	maxRetries     = 100
	retryBackoff   = 100 * time.Millisecond
	dialTimeout    = 10 * time.Second
)

// Handler processes one inbound Frame. Installed once at Dial and invoked
// from the connection's single reader goroutine — handlers must not
// block.
type Handler func(Frame)

// DisconnectFunc is invoked, exactly once, when the reader goroutine exits
// for any reason (remote close, read error). err is nil on a clean close.
type DisconnectFunc func(err error)

// Conn is one broker-protocol TCP session: a single net.Conn with exactly
// one reader goroutine (per spec.md §4.4 structural-singleton invariant)
// and a mutex-serialized writer path. Outbound request builders
// (internal/vendors/ibkr) call Send; the reader goroutine delivers
// inbound frames to the installed Handler.
type Conn struct {
	netConn  net.Conn
	fr       *FrameReader
	writeMu  sync.Mutex
	state    atomic.Int32
	nextReq  atomic.Int32
	clientID int

	ServerVersion int
	ConnTime      string
}

// State returns the connection's current lifecycle state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// NextRequestID returns the next request_id for an outbound message —
// the CorrIDFn for this vendor, since IB correlates responses to requests
// purely by this integer (spec.md §4.4's `atomic.Int32` counter).
func (c *Conn) NextRequestID() int32 {
	return c.nextReq.Add(1)
}

// Dial connects to a broker-protocol endpoint, performs the handshake
// (API prefix + version range, server-version/conn-time read with
// bounded retry, START_API), and starts the single reader goroutine. On
// handshake failure the connection is closed and an error returned; the
// caller (the vendor's AppConstructor) does not retry — the scheduler's
// next cycle will re-invoke Dial.
func Dial(ctx context.Context, host string, port int, clientID int, handler Handler, onDisconnect DisconnectFunc) (*Conn, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	netConn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("broker: dial %s:%d: %w", host, port, err)
	}

	c := &Conn{
		netConn:  netConn,
		fr:       NewFrameReader(netConn),
		clientID: clientID,
	}
	c.state.Store(int32(Connecting))

	if err := c.handshake(ctx); err != nil {
		netConn.Close()
		return nil, err
	}

	c.state.Store(int32(Connected))
	go c.readLoop(handler, onDisconnect)
	return c, nil
}

// handshake implements the source's Client.connect sequence: send the
// "API\0" prefix and a length-framed version-range field, then read
// frames until one carries exactly two fields (server version, connection
// time), retrying partial reads up to maxRetries with a fixed backoff —
// the source's busy-poll loop translated into a bounded retry instead of
// an unbounded `while len(fields) != 2`.
func (c *Conn) handshake(ctx context.Context) error {
	c.state.Store(int32(Handshaking))

	prefix := append([]byte("API\x00"), encodeFrame(fmt.Sprintf("v%d..%d", clientVersion, serverVersion))...)
	if _, err := c.netConn.Write(prefix); err != nil {
		return fmt.Errorf("broker: writing handshake prefix: %w", err)
	}

	var frame Frame
	for attempt := 0; attempt < maxRetries; attempt++ {
		deadline, cancel := context.WithTimeout(ctx, retryBackoff)
		f, err := c.readWithDeadline(deadline)
		cancel()
		if err == nil && len(f.Fields) == 2 {
			frame = f
			break
		}
		if attempt == maxRetries-1 {
			return fmt.Errorf("broker: handshake did not complete after %d attempts", maxRetries)
		}
	}

	var sv int
	if _, err := fmt.Sscanf(frame.Field(0), "%d", &sv); err != nil {
		return fmt.Errorf("broker: parsing server version %q: %w", frame.Field(0), err)
	}
	c.ServerVersion = sv
	c.ConnTime = frame.Field(1)

	return c.Send(outStartAPI, startAPIVer, fmt.Sprintf("%d", c.clientID), "")
}

// readWithDeadline reads one frame, honoring ctx's deadline by racing the
// blocking FrameReader.Next against ctx.Done — net.Conn's own deadline
// machinery is reserved for the steady-state reader.
func (c *Conn) readWithDeadline(ctx context.Context) (Frame, error) {
	type result struct {
		f   Frame
		err error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := c.fr.Next()
		ch <- result{f, err}
	}()

	select {
	case r := <-ch:
		return r.f, r.err
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Send writes one frame's fields, serialized against concurrent writers.
func (c *Conn) Send(fields ...string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.netConn.Write(encodeFrame(fields...))
	if err != nil {
		return fmt.Errorf("broker: writing frame: %w", err)
	}
	return nil
}

// readLoop is the connection's single reader goroutine: it frames
// messages off the wire and dispatches each to handler until the
// connection errors or is closed, at which point it transitions to
// Disconnected and invokes onDisconnect exactly once.
func (c *Conn) readLoop(handler Handler, onDisconnect DisconnectFunc) {
	for {
		frame, err := c.fr.Next()
		if err != nil {
			c.state.Store(int32(Disconnected))
			c.netConn.Close()
			if onDisconnect != nil {
				onDisconnect(err)
			}
			return
		}
		if len(frame.Fields) == 0 {
			continue
		}
		handler(frame)
	}
}

// Close shuts down the underlying connection; the reader goroutine's next
// read will observe the close and run the disconnect path.
func (c *Conn) Close() error {
	return c.netConn.Close()
}
