// Package ibkr implements the IBKR (Interactive Brokers TWS/Gateway)
// vendor plugin: the only vendor whose App is a long-lived TCP session
// rather than an HTTP client, built on internal/broker's Conn. Grounded on
// original_source/common/vendors/ibkr/ibkr.py's get_account_summary,
// get_historical_data, get_historical_ticks, get_contract_details
// getters (get_realtime_bars and get_market_data are left unimplemented,
// see NewSpec doc comment).
package ibkr

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/hedgepy/broker/internal/broker"
	"github.com/hedgepy/broker/internal/getter"
	"github.com/hedgepy/broker/internal/resource"
	"github.com/hedgepy/broker/internal/vendor"
	"github.com/hedgepy/broker/internal/wire"
)

// Instrument identifies one tradeable contract by its four most
// discriminating fields — the subset of the source's Contract dataclass
// that, in practice, disambiguates every symbol this broker instance
// trades. Full contract disambiguation (strike, multiplier, local symbol)
// is available to a getter via the Context, not the Resource, since those
// fields are exchange/expiry-specific rather than identity-specific.
type Instrument struct {
	Symbol   string `schema:"symbol" validate:"required"`
	SecType  string `schema:"sec_type" validate:"required"`
	Exchange string `schema:"exchange" validate:"required"`
	Currency string `schema:"currency" validate:"required"`
}

var instrumentClass = &resource.Class{
	Name:         "IBKRInstrument",
	Type:         reflect.TypeOf(Instrument{}),
	HandleFields: []string{"symbol", "sec_type", "exchange", "currency"},
}

func init() {
	resource.Register(instrumentClass)
}

func contractOf(req wire.Request) broker.Contract {
	c := broker.TestContract
	if r, ok := req.Params.Resource.(resource.Resource); ok {
		if v, ok := any(r).(interface{ Value() any }); ok {
			if inst, ok := v.Value().(Instrument); ok {
				c = broker.Contract{Symbol: inst.Symbol, SecType: inst.SecType, Exchange: inst.Exchange, Currency: inst.Currency}
			}
		}
	}
	return c
}

// pendingResult is what a reqID's accumulated inbound frames resolve to:
// every non-final record received before the upstream end-of-data
// sentinel, or an error if the connection dropped mid-flight.
type pendingResult struct {
	records [][]any
	err     error
}

// Session is the App a IBKR getter dispatches through: the live Conn plus
// the table of in-flight requests awaiting their terminal frame. This is
// the synchronization point between Conn's single async reader goroutine
// (internal/broker) and a getter's synchronous Call contract (§4.1).
type Session struct {
	conn *broker.Conn

	mu      sync.Mutex
	pending map[int32]chan pendingResult
	buffer  map[int32][][]any
}

func newSession() *Session {
	return &Session{pending: map[int32]chan pendingResult{}, buffer: map[int32][][]any{}}
}

func (s *Session) onRecords(reqID int32, records [][]any, final bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(records) > 0 {
		s.buffer[reqID] = append(s.buffer[reqID], records...)
	}
	if !final {
		return
	}
	ch, ok := s.pending[reqID]
	if !ok {
		delete(s.buffer, reqID)
		return
	}
	ch <- pendingResult{records: s.buffer[reqID]}
	delete(s.buffer, reqID)
	delete(s.pending, reqID)
}

func (s *Session) onDisconnect(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for reqID, ch := range s.pending {
		ch <- pendingResult{err: fmt.Errorf("ibkr: connection closed: %w", err)}
		delete(s.pending, reqID)
		delete(s.buffer, reqID)
	}
}

// await registers reqID as awaiting its terminal frame and blocks until
// onRecords delivers it, ctx is cancelled, or the connection drops.
func (s *Session) await(ctx context.Context, reqID int32) ([][]any, error) {
	ch := make(chan pendingResult, 1)
	s.mu.Lock()
	s.pending[reqID] = ch
	s.mu.Unlock()

	select {
	case r := <-ch:
		return r.records, r.err
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.pending, reqID)
		delete(s.buffer, reqID)
		s.mu.Unlock()
		return nil, ctx.Err()
	}
}

// NewContext builds the Context every IBKR getter reads its connection
// parameters out of — the source's _IBKR_IP/_IBKR_PORT/_IBKR_CLIENT_ID
// environment triple.
func NewContext(host string, port, clientID int) (*getter.Context, error) {
	return getter.NewContext(map[string]any{
		"host":      host,
		"port":      port,
		"client_id": clientID,
	}, nil)
}

// NewSpec builds the vendor.Spec for IBKR: an AppConstructor dialing the
// TWS/Gateway TCP endpoint, plus the Getters map below. Realtime
// streaming endpoints (get_realtime_bars, get_market_data in the source)
// are out of scope: this plugin's Session assumes one terminal frame per
// reqID, which true streaming endpoints never send.
func NewSpec(host string, port, clientID int) (vendor.Spec, error) {
	vctx, err := NewContext(host, port, clientID)
	if err != nil {
		return vendor.Spec{}, fmt.Errorf("ibkr: building context: %w", err)
	}
	return vendor.Spec{
		AppConstructor: constructApp,
		Context:        vctx,
		Getters:        getters(),
		Resources:      []string{instrumentClass.Name},
	}, nil
}

func constructApp(vctx *getter.Context) (getter.App, error) {
	host := vctx.String("host")
	port, _ := vctx.Get("port")
	clientID, _ := vctx.Get("client_id")
	portN, _ := port.(int)
	clientIDN, _ := clientID.(int)

	session := newSession()
	ctx := context.Background()
	conn, err := broker.Dial(ctx, host, portN, clientIDN, broker.NewHandler(session.onRecords), session.onDisconnect)
	if err != nil {
		return nil, fmt.Errorf("ibkr: dialing %s:%d: %w", host, portN, err)
	}
	session.conn = conn
	return session, nil
}

func getters() map[string]getter.Getter {
	return map[string]getter.Getter{
		"account_summary":  getter.NewEndpoint(getAccountSummary, accountSummaryReturns, false, nil),
		"historical_data":  getter.NewEndpoint(getHistoricalData, historicalDataReturns, false, nil),
		"historical_ticks": getter.NewEndpoint(getHistoricalTicks, historicalTicksReturns, false, nil),
		"contract_details": getter.NewEndpoint(getContractDetails, contractDetailsReturns, false, nil),
	}
}

var accountSummaryReturns = []wire.Field{
	{Name: "account", Type: wire.Text}, {Name: "tag", Type: wire.Text},
	{Name: "value", Type: wire.Text}, {Name: "currency", Type: wire.Text},
}

var historicalDataReturns = []wire.Field{
	{Name: "date", Type: wire.Text}, {Name: "open", Type: wire.Float}, {Name: "high", Type: wire.Float},
	{Name: "low", Type: wire.Float}, {Name: "close", Type: wire.Float}, {Name: "volume", Type: wire.Float},
}

var historicalTicksReturns = []wire.Field{
	{Name: "time", Type: wire.Text}, {Name: "price", Type: wire.Float}, {Name: "size", Type: wire.Float},
}

var contractDetailsReturns = []wire.Field{
	{Name: "con_id", Type: wire.Int}, {Name: "symbol", Type: wire.Text},
	{Name: "long_name", Type: wire.Text}, {Name: "exchange", Type: wire.Text},
}

func session(app getter.App) (*Session, error) {
	s, ok := app.(*Session)
	if !ok {
		return nil, fmt.Errorf("ibkr: App is not an ibkr.Session")
	}
	return s, nil
}

func getAccountSummary(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	reqID := s.conn.NextRequestID()
	if err := s.conn.RequestAccountSummary(reqID, "All", "All"); err != nil {
		return wire.Response{}, err
	}
	records, err := s.await(ctx, reqID)
	if err != nil {
		return wire.Response{}, err
	}
	return wire.Response{Request: req, Data: wire.SliceIter(records)}, nil
}

func getHistoricalData(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	reqID := s.conn.NextRequestID()
	end := wire.DtToStr(req.Params.End, wire.TimestampLayout)
	duration := durationStr(req.Params.Start, req.Params.End)
	if err := s.conn.RequestHistoricalData(reqID, contractOf(req), end, duration, "1 day", "TRADES", true, false); err != nil {
		return wire.Response{}, err
	}
	records, err := s.await(ctx, reqID)
	if err != nil {
		return wire.Response{}, err
	}
	return wire.Response{Request: req, Data: wire.SliceIter(records)}, nil
}

func getHistoricalTicks(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	reqID := s.conn.NextRequestID()
	start := wire.DtToStr(req.Params.Start, wire.TimestampLayout)
	end := wire.DtToStr(req.Params.End, wire.TimestampLayout)
	if err := s.conn.RequestHistoricalTicks(reqID, contractOf(req), start, end, 1000, "TRADES", true); err != nil {
		return wire.Response{}, err
	}
	records, err := s.await(ctx, reqID)
	if err != nil {
		return wire.Response{}, err
	}
	return wire.Response{Request: req, Data: wire.SliceIter(records)}, nil
}

func getContractDetails(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	reqID := s.conn.NextRequestID()
	if err := s.conn.RequestContractDetails(reqID, contractOf(req)); err != nil {
		return wire.Response{}, err
	}
	records, err := s.await(ctx, reqID)
	if err != nil {
		return wire.Response{}, err
	}
	return wire.Response{Request: req, Data: wire.SliceIter(records)}, nil
}

// durationStr renders IB's "N S|D|W|M|Y" duration-string form from the
// requested start/end, the inverse of what a FillRequest's Missing diff
// window declares.
func durationStr(start, end wire.DateTime) string {
	d := end.Time.Sub(start.Time)
	days := int(d.Hours()/24) + 1
	if days <= 0 {
		days = 1
	}
	return fmt.Sprintf("%d D", days)
}
