package edgar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hedgepy/broker/internal/resource"
	"github.com/hedgepy/broker/internal/vendor"
	"github.com/hedgepy/broker/internal/wire"
)

func testSession(t *testing.T, handler http.HandlerFunc) *vendor.HTTPSession {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}
	sess, err := (&vendor.HTTPSessionSpec{Scheme: "http", Host: u.Host}).Build()
	if err != nil {
		t.Fatalf("building session: %v", err)
	}
	return sess
}

// primeTickerCache seeds the package-level ticker cache directly, bypassing
// ensureTickerCache's network fetch against www.sec.gov — mirroring the
// state the cache would be in after its first lazy population.
func primeTickerCache(t *testing.T, cikByTkr map[string]string) {
	t.Helper()
	tickerCache.mu.Lock()
	prev := tickerCache.cikByTkr
	tickerCache.cikByTkr = cikByTkr
	tickerCache.mu.Unlock()
	t.Cleanup(func() {
		tickerCache.mu.Lock()
		tickerCache.cikByTkr = prev
		tickerCache.mu.Unlock()
	})
}

func TestSanitizeCIK(t *testing.T) {
	cases := map[string]string{
		"320193":     "0000320193",
		"1018724":    "0001018724",
		"0000320193": "0000320193",
	}
	for in, want := range cases {
		if got := sanitizeCIK(in); got != want {
			t.Errorf("sanitizeCIK(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCikForUsesPrimedCache(t *testing.T) {
	primeTickerCache(t, map[string]string{"AAPL": "0000320193"})

	cik, err := cikFor(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("cikFor: %v", err)
	}
	if cik != "0000320193" {
		t.Errorf("cikFor(AAPL) = %q, want 0000320193", cik)
	}

	if _, err := cikFor(context.Background(), "NOPE"); err == nil {
		t.Error("expected error for unknown ticker")
	}
}

func TestGetSubmissionsDecodesRecentFilings(t *testing.T) {
	primeTickerCache(t, map[string]string{"AAPL": "0000320193"})
	sess := testSession(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/submissions/CIK0000320193.json" {
			t.Errorf("path = %q, want CIK0000320193 submissions", r.URL.Path)
		}
		w.Write([]byte(`{"filings":{"recent":{
			"form":["10-K"],"accessionNumber":["0000320193-23-000106"],
			"filingDate":["2023-11-03"],"reportDate":["2023-09-30"],
			"fileNumber":["001-36743"],"filmNumber":["231370000"],
			"primaryDocument":["aapl-20230930.htm"],"isXBRL":[1]
		}}}`))
	})

	res, err := resource.New(companyClass, map[string]any{"ticker": "AAPL"})
	if err != nil {
		t.Fatalf("resource.New: %v", err)
	}
	req := wire.Request{Vendor: "edgar", Endpoint: "submissions", Params: wire.RequestParams{Resource: res}}

	resp, err := getSubmissions(context.Background(), sess, req, nil)
	if err != nil {
		t.Fatalf("getSubmissions: %v", err)
	}
	records, err := wire.Drain(resp.Data)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(records) != 1 || records[0][0] != "AAPL" || records[0][1] != "10-K" || records[0][8] != true {
		t.Errorf("records = %v, want one AAPL 10-K xbrl record", records)
	}
}

func TestGetConceptDecodesUnits(t *testing.T) {
	primeTickerCache(t, map[string]string{"AAPL": "0000320193"})
	sess := testSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"units":{"USD":[{"fy":2023,"fp":"FY","form":"10-K","val":352755000000,"accn":"0000320193-23-000106"}]}}`))
	})

	res, err := resource.New(companyClass, map[string]any{"ticker": "AAPL"})
	if err != nil {
		t.Fatalf("resource.New: %v", err)
	}
	req := wire.Request{Vendor: "edgar", Endpoint: "concept", Params: wire.RequestParams{Resource: res}}

	resp, err := getConcept(context.Background(), sess, req, nil)
	if err != nil {
		t.Fatalf("getConcept: %v", err)
	}
	records, err := wire.Drain(resp.Data)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(records) != 1 || records[0][0] != "AAPL" || records[0][2] != "USD" {
		t.Errorf("records = %v, want one AAPL USD concept record", records)
	}
}

func TestLastPeriodFormat(t *testing.T) {
	p := lastPeriod()
	if len(p) < len("CY2024Q1I") || p[:2] != "CY" {
		t.Errorf("lastPeriod() = %q, want CY<year>Q<n>I form", p)
	}
}

func TestNewSpecBuildsGetterTable(t *testing.T) {
	spec, err := NewSpec("Acme Corp", "ops@acme.test")
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	if len(spec.Getters) != 5 {
		t.Errorf("len(Getters) = %d, want 5", len(spec.Getters))
	}
	if spec.HTTPSession.Headers["User-Agent"] != "Acme Corp ops@acme.test" {
		t.Errorf("User-Agent = %q, want %q", spec.HTTPSession.Headers["User-Agent"], "Acme Corp ops@acme.test")
	}
}
