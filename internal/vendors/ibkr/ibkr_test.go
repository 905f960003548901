package ibkr

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/hedgepy/broker/internal/resource"
	"github.com/hedgepy/broker/internal/wire"
)

func TestSessionAwaitResolvesOnFinalRecords(t *testing.T) {
	s := newSession()

	go func() {
		s.onRecords(7, [][]any{{"a", 1.0}}, false)
		s.onRecords(7, [][]any{{"b", 2.0}}, true)
	}()

	records, err := s.await(context.Background(), 7)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %v, want 2 accumulated rows", records)
	}
}

func TestSessionAwaitResolvesOnDisconnect(t *testing.T) {
	s := newSession()

	done := make(chan error, 1)
	go func() {
		_, err := s.await(context.Background(), 9)
		done <- err
	}()
	for {
		s.mu.Lock()
		_, registered := s.pending[9]
		s.mu.Unlock()
		if registered {
			break
		}
		time.Sleep(time.Millisecond)
	}

	s.onDisconnect(fmt.Errorf("connection reset"))

	if err := <-done; err == nil {
		t.Fatal("expected error after onDisconnect")
	}
}

func TestSessionAwaitCancelledByContext(t *testing.T) {
	s := newSession()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.await(ctx, 42)
	if err == nil {
		t.Fatal("expected context deadline error")
	}
	s.mu.Lock()
	_, stillPending := s.pending[42]
	s.mu.Unlock()
	if stillPending {
		t.Error("await did not clean up pending entry on cancellation")
	}
}

func TestOnRecordsDropsUnregisteredReqID(t *testing.T) {
	s := newSession()
	s.onRecords(1, [][]any{{"x"}}, true)
	s.mu.Lock()
	_, buffered := s.buffer[1]
	s.mu.Unlock()
	if buffered {
		t.Error("buffer for an unregistered reqID should be dropped on final, not retained")
	}
}

func TestContractOfDefaultsToTestContract(t *testing.T) {
	req := wire.Request{Vendor: "ibkr", Endpoint: "historical_data"}
	c := contractOf(req)
	if c.Symbol != "AAPL" || c.SecType != "STK" {
		t.Errorf("contractOf(no resource) = %+v, want broker.TestContract", c)
	}
}

func TestContractOfUsesInstrumentResource(t *testing.T) {
	res, err := resource.New(instrumentClass, map[string]any{
		"symbol": "MSFT", "sec_type": "STK", "exchange": "SMART", "currency": "USD",
	})
	if err != nil {
		t.Fatalf("resource.New: %v", err)
	}
	req := wire.Request{Vendor: "ibkr", Endpoint: "historical_data", Params: wire.RequestParams{Resource: res}}
	c := contractOf(req)
	if c.Symbol != "MSFT" || c.Exchange != "SMART" || c.Currency != "USD" {
		t.Errorf("contractOf(Instrument) = %+v, want MSFT/STK/SMART/USD", c)
	}
}

func TestDurationStrComputesDayCount(t *testing.T) {
	start := wire.DateTime{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	end := wire.DateTime{Time: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)}
	if got := durationStr(start, end); got != "10 D" {
		t.Errorf("durationStr = %q, want 10 D", got)
	}
}

func TestDurationStrFloorsAtOneDay(t *testing.T) {
	same := wire.DateTime{Time: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	if got := durationStr(same, same); got != "1 D" {
		t.Errorf("durationStr(same,same) = %q, want 1 D", got)
	}
}

func TestNewSpecBuildsGetterTable(t *testing.T) {
	spec, err := NewSpec("127.0.0.1", 7497, 1)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	if len(spec.Getters) != 4 {
		t.Errorf("len(Getters) = %d, want 4", len(spec.Getters))
	}
	if spec.AppConstructor == nil {
		t.Error("AppConstructor is nil, want constructApp")
	}
}

func TestInstrumentClassRegistered(t *testing.T) {
	if reflect.TypeOf(Instrument{}) != instrumentClass.Type {
		t.Error("instrumentClass.Type does not match Instrument")
	}
}
