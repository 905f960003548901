package fred

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

func TestGetSeriesDecodesSeriesArray(t *testing.T) {
	sess := testSession(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("series_id") != "GNPCA" {
			t.Errorf("series_id = %q, want GNPCA", r.URL.Query().Get("series_id"))
		}
		w.Write([]byte(`{"seriess":[{"id":"GNPCA","title":"Real GNP","observation_start":"1929-01-01","observation_end":"2020-01-01","frequency_short":"A","units_short":"Bil.","seasonal_adjustment_short":"NSA","last_updated":"2021-01-01"}]}`))
	})

	res, err := resource.New(seriesClass, map[string]any{"series_id": "GNPCA"})
	if err != nil {
		t.Fatalf("resource.New: %v", err)
	}
	req := wire.Request{Vendor: "fred", Endpoint: "series", Params: wire.RequestParams{Resource: res}}
	vctx, err := NewContext("testkey")
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	resp, err := getSeries(context.Background(), sess, req, vctx)
	if err != nil {
		t.Fatalf("getSeries: %v", err)
	}
	records, err := wire.Drain(resp.Data)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(records) != 1 || records[0][0] != "GNPCA" {
		t.Errorf("records = %v, want one GNPCA record", records)
	}
}

func TestGetReleasesNoResourceRequired(t *testing.T) {
	sess := testSession(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "testkey" {
			t.Errorf("api_key = %q, want testkey", r.URL.Query().Get("api_key"))
		}
		w.Write([]byte(`{"releases":[{"id":"53","name":"GDP","link":"https://example.test"}]}`))
	})

	req := wire.Request{Vendor: "fred", Endpoint: "releases"}
	vctx, err := NewContext("testkey")
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	resp, err := getReleases(context.Background(), sess, req, vctx)
	if err != nil {
		t.Fatalf("getReleases: %v", err)
	}
	records, err := wire.Drain(resp.Data)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(records) != 1 || records[0][1] != "GDP" {
		t.Errorf("records = %v, want one GDP release", records)
	}
}

func TestNewSpecBuildsGetterTable(t *testing.T) {
	spec, err := NewSpec("testkey")
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	if len(spec.Getters) != 7 {
		t.Errorf("len(Getters) = %d, want 7", len(spec.Getters))
	}
	if spec.HTTPSession == nil || spec.HTTPSession.Host != "api.stlouisfed.org" {
		t.Errorf("HTTPSession = %+v, want api.stlouisfed.org", spec.HTTPSession)
	}
}

func TestSeriesResourceRejectsMissingID(t *testing.T) {
	if _, err := resource.New(seriesClass, map[string]any{}); err == nil {
		t.Error("expected validation error for missing required series_id")
	}
}
