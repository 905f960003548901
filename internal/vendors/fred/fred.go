// Package fred implements the FRED (Federal Reserve Economic Data)
// vendor plugin: a plain HTTP/JSON session authenticated by an api_key
// query parameter, grounded on
// original_source/common/vendors/fred/fred.py's register_getter-decorated
// functions (get_series, get_series_observations, get_releases, ...).
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"

	"github.com/hedgepy/broker/internal/getter"
	"github.com/hedgepy/broker/internal/resource"
	"github.com/hedgepy/broker/internal/vendor"
	"github.com/hedgepy/broker/internal/wire"
)

// Series identifies one FRED economic data series, e.g. "GNPCA". The
// source's Series Resource (VARIABLE = ((series_id, str, required),)).
type Series struct {
	SeriesID string `schema:"series_id" validate:"required"`
}

// Release identifies one FRED release, e.g. 53 (GDP). The source's
// Release Resource.
type Release struct {
	ReleaseID string `schema:"release_id" validate:"required"`
}

var (
	seriesClass  = &resource.Class{Name: "FredSeries", Type: reflect.TypeOf(Series{}), HandleFields: []string{"series_id"}}
	releaseClass = &resource.Class{Name: "FredRelease", Type: reflect.TypeOf(Release{}), HandleFields: []string{"release_id"}}
)

func init() {
	resource.Register(seriesClass)
	resource.Register(releaseClass)
}

// NewContext builds the per-vendor Context every FRED getter reads its
// api_key out of, mirroring the source's module-level
// dotenv.get_key(_ENV_PATH, 'FRED_API_KEY').
func NewContext(apiKey string) (*getter.Context, error) {
	return getter.NewContext(map[string]any{"api_key": apiKey}, nil)
}

// NewSpec builds the vendor.Spec for FRED: an HTTPSessionSpec against
// api.stlouisfed.org plus the Getters map below. apiKey is the already-
// credential-resolved value from config.VendorConfig.Credentials.
func NewSpec(apiKey string) (vendor.Spec, error) {
	vctx, err := NewContext(apiKey)
	if err != nil {
		return vendor.Spec{}, fmt.Errorf("fred: building context: %w", err)
	}
	return vendor.Spec{
		HTTPSession: &vendor.HTTPSessionSpec{Scheme: "https", Host: "api.stlouisfed.org"},
		Context:     vctx,
		Getters:     getters(),
		Resources:   []string{seriesClass.Name, releaseClass.Name},
	}, nil
}

func getters() map[string]getter.Getter {
	return map[string]getter.Getter{
		"series":              getter.NewEndpoint(getSeries, seriesReturns, false, nil),
		"series_observations": getter.NewEndpoint(getSeriesObservations, observationReturns, false, nil),
		"series_release":      getter.NewEndpoint(getSeriesRelease, releaseReturns, false, nil),
		"releases":            getter.NewEndpoint(getReleases, releaseReturns, false, nil),
		"release":             getter.NewEndpoint(getRelease, releaseReturns, false, nil),
		"release_series":      getter.NewEndpoint(getReleaseSeries, seriesSummaryReturns, false, nil),
		"release_dates":       getter.NewEndpoint(getReleaseDates, releaseDateReturns, false, nil),
	}
}

var seriesReturns = []wire.Field{
	{Name: "id", Type: wire.Text}, {Name: "title", Type: wire.Text},
	{Name: "observation_start", Type: wire.Text}, {Name: "observation_end", Type: wire.Text},
	{Name: "frequency", Type: wire.Text}, {Name: "units", Type: wire.Text},
	{Name: "seasonal_adjustment", Type: wire.Text}, {Name: "last_updated", Type: wire.Text},
}

var seriesSummaryReturns = seriesReturns

var observationReturns = []wire.Field{
	{Name: "date", Type: wire.Text}, {Name: "value", Type: wire.Text},
}

var releaseReturns = []wire.Field{
	{Name: "id", Type: wire.Text}, {Name: "name", Type: wire.Text}, {Name: "link", Type: wire.Text},
}

var releaseDateReturns = []wire.Field{
	{Name: "release_id", Type: wire.Text}, {Name: "date", Type: wire.Text},
}

// seriesID extracts the Resource's Handle (the series_id itself, since
// Series has exactly one HandleField), mirroring the source's direct use
// of params.resource as the series_id query value.
func seriesID(req wire.Request) string {
	if r, ok := req.Params.Resource.(resource.Resource); ok {
		return r.Handle()
	}
	return ""
}

func query(vctx *getter.Context, extra url.Values) url.Values {
	q := url.Values{}
	q.Set("api_key", vctx.String("api_key"))
	q.Set("file_type", "json")
	for k, v := range extra {
		q[k] = v
	}
	return q
}

func session(app getter.App) (*vendor.HTTPSession, error) {
	s, ok := app.(*vendor.HTTPSession)
	if !ok {
		return nil, fmt.Errorf("fred: App is not an HTTPSession")
	}
	return s, nil
}

func getSeries(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	body, err := s.Get(ctx, "/fred/series", query(vctx, url.Values{"series_id": {seriesID(req)}}))
	if err != nil {
		return wire.Response{}, err
	}
	return decode(req, body, "seriess", func(m map[string]any) []any {
		return []any{m["id"], m["title"], m["observation_start"], m["observation_end"],
			m["frequency_short"], m["units_short"], m["seasonal_adjustment_short"], m["last_updated"]}
	})
}

func getSeriesObservations(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	extra := url.Values{
		"series_id":         {seriesID(req)},
		"observation_start": {wire.DtToStr(req.Params.Start, wire.DateLayout)},
		"observation_end":   {wire.DtToStr(req.Params.End, wire.DateLayout)},
	}
	body, err := s.Get(ctx, "/fred/series/observations", query(vctx, extra))
	if err != nil {
		return wire.Response{}, err
	}
	return decode(req, body, "observations", func(m map[string]any) []any {
		return []any{m["date"], m["value"]}
	})
}

func getSeriesRelease(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	body, err := s.Get(ctx, "/fred/series/release", query(vctx, url.Values{"series_id": {seriesID(req)}}))
	if err != nil {
		return wire.Response{}, err
	}
	return decode(req, body, "releases", func(m map[string]any) []any {
		return []any{m["id"], m["name"], m["link"]}
	})
}

func getReleases(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	body, err := s.Get(ctx, "/fred/releases", query(vctx, nil))
	if err != nil {
		return wire.Response{}, err
	}
	return decode(req, body, "releases", func(m map[string]any) []any {
		return []any{m["id"], m["name"], m["link"]}
	})
}

func getRelease(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	releaseID := ""
	if r, ok := req.Params.Resource.(resource.Resource); ok {
		releaseID = r.Handle()
	}
	body, err := s.Get(ctx, "/fred/release", query(vctx, url.Values{"release_id": {releaseID}}))
	if err != nil {
		return wire.Response{}, err
	}
	return decode(req, body, "releases", func(m map[string]any) []any {
		return []any{m["id"], m["name"], m["link"]}
	})
}

func getReleaseSeries(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	releaseID := ""
	if r, ok := req.Params.Resource.(resource.Resource); ok {
		releaseID = r.Handle()
	}
	body, err := s.Get(ctx, "/fred/release/series", query(vctx, url.Values{"release_id": {releaseID}}))
	if err != nil {
		return wire.Response{}, err
	}
	return decode(req, body, "seriess", func(m map[string]any) []any {
		return []any{m["id"], m["title"], m["observation_start"], m["observation_end"],
			m["frequency_short"], m["units_short"], m["seasonal_adjustment_short"], m["last_updated"]}
	})
}

func getReleaseDates(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	releaseID := ""
	if r, ok := req.Params.Resource.(resource.Resource); ok {
		releaseID = r.Handle()
	}
	body, err := s.Get(ctx, "/fred/release/dates", query(vctx, url.Values{"release_id": {releaseID}}))
	if err != nil {
		return wire.Response{}, err
	}
	return decode(req, body, "release_dates", func(m map[string]any) []any {
		return []any{m["release_id"], m["date"]}
	})
}

// decode unmarshals body into its top-level index array and projects each
// element through extract, the Go analog of the source's per-endpoint
// `format_*` functions.
func decode(req wire.Request, body []byte, index string, extract func(map[string]any) []any) (wire.Response, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return wire.Response{}, fmt.Errorf("fred: decoding response: %w", err)
	}
	items, ok := raw[index]
	if !ok {
		return wire.Response{}, fmt.Errorf("fred: response missing %q array", index)
	}
	var records []map[string]any
	if err := json.Unmarshal(items, &records); err != nil {
		return wire.Response{}, fmt.Errorf("fred: decoding %q array: %w", index, err)
	}
	out := make([][]any, 0, len(records))
	for _, r := range records {
		out = append(out, extract(r))
	}
	return wire.Response{Request: req, Data: wire.SliceIter(out)}, nil
}
