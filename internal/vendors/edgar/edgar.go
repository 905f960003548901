// Package edgar implements the SEC EDGAR vendor plugin: an unauthenticated
// HTTP/JSON session identified only by a User-Agent the SEC requires be a
// company/email pair, grounded on
// original_source/common/vendors/edgar/edgar.py's register_endpoint-
// decorated functions (get_submissions, get_concept, get_facts, get_frame).
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/hedgepy/broker/internal/getter"
	"github.com/hedgepy/broker/internal/resource"
	"github.com/hedgepy/broker/internal/vendor"
	"github.com/hedgepy/broker/internal/wire"
)

// Company identifies one EDGAR filer by ticker. The source resolves CIK
// from ticker via a package-level TICKER_MAP/CIK_MAP built at import time
// from SEC's company_tickers.json; here the same map is built lazily and
// cached, since Go has no equivalent of a module-level network call at
// package-init that every consumer would otherwise pay for.
type Company struct {
	Ticker string `schema:"ticker" validate:"required"`
}

var companyClass = &resource.Class{Name: "EdgarCompany", Type: reflect.TypeOf(Company{}), HandleFields: []string{"ticker"}}

func init() {
	resource.Register(companyClass)
}

// NewContext builds the Context every EDGAR getter reads its User-Agent
// identity out of — the source's _company/_email EnvironmentVariables.
func NewContext(company, email string) (*getter.Context, error) {
	return getter.NewContext(map[string]any{
		"company": company,
		"email":   email,
	}, map[string]getter.DerivedFn{
		"user_agent": func(c *getter.Context) (any, error) {
			return fmt.Sprintf("%s %s", c.String("company"), c.String("email")), nil
		},
	})
}

// NewSpec builds the vendor.Spec for EDGAR: an HTTPSessionSpec against
// data.sec.gov with the required headers, plus the Getters map below.
func NewSpec(company, email string) (vendor.Spec, error) {
	vctx, err := NewContext(company, email)
	if err != nil {
		return vendor.Spec{}, fmt.Errorf("edgar: building context: %w", err)
	}
	return vendor.Spec{
		HTTPSession: &vendor.HTTPSessionSpec{
			Scheme: "https",
			Host:   "data.sec.gov",
			Headers: map[string]string{
				"Accept":          "application/json",
				"Accept-Encoding": "gzip, deflate",
				"User-Agent":      vctx.String("user_agent"),
			},
		},
		Context:   vctx,
		Getters:   getters(),
		Resources: []string{companyClass.Name},
	}, nil
}

func getters() map[string]getter.Getter {
	return map[string]getter.Getter{
		"tickers":     getter.NewEndpoint(getTickers, tickerReturns, false, nil),
		"submissions": getter.NewEndpoint(getSubmissions, submissionReturns, false, nil),
		"concept":     getter.NewEndpoint(getConcept, conceptReturns, false, nil),
		"facts":       getter.NewEndpoint(getFacts, factsReturns, false, nil),
		"frame":       getter.NewEndpoint(getFrame, frameReturns, false, nil),
	}
}

var tickerReturns = []wire.Field{{Name: "cik", Type: wire.Text}, {Name: "ticker", Type: wire.Text}}

var submissionReturns = []wire.Field{
	{Name: "ticker", Type: wire.Text}, {Name: "form", Type: wire.Text},
	{Name: "accession_number", Type: wire.Text}, {Name: "filing_date", Type: wire.Text},
	{Name: "report_date", Type: wire.Text}, {Name: "file_number", Type: wire.Text},
	{Name: "film_number", Type: wire.Text}, {Name: "primary_document", Type: wire.Text},
	{Name: "is_xbrl", Type: wire.Bool},
}

var conceptReturns = []wire.Field{
	{Name: "ticker", Type: wire.Text}, {Name: "concept", Type: wire.Text}, {Name: "unit", Type: wire.Text},
	{Name: "fiscal_year", Type: wire.Int}, {Name: "fiscal_period", Type: wire.Text},
	{Name: "form", Type: wire.Text}, {Name: "value", Type: wire.Float}, {Name: "accession_number", Type: wire.Text},
}

var factsReturns = []wire.Field{
	{Name: "ticker", Type: wire.Text}, {Name: "taxonomy", Type: wire.Text}, {Name: "line_item", Type: wire.Text},
	{Name: "unit", Type: wire.Text}, {Name: "label", Type: wire.Text}, {Name: "description", Type: wire.Text},
	{Name: "end", Type: wire.Text}, {Name: "accession_number", Type: wire.Text},
	{Name: "fiscal_year", Type: wire.Int}, {Name: "fiscal_period", Type: wire.Text},
	{Name: "form", Type: wire.Text}, {Name: "filed", Type: wire.Text},
}

var frameReturns = []wire.Field{
	{Name: "period", Type: wire.Text}, {Name: "taxonomy", Type: wire.Text}, {Name: "tag", Type: wire.Text},
	{Name: "ccp", Type: wire.Text}, {Name: "uom", Type: wire.Text}, {Name: "label", Type: wire.Text},
	{Name: "description", Type: wire.Text}, {Name: "accession_number", Type: wire.Text},
	{Name: "ticker", Type: wire.Text}, {Name: "entity_name", Type: wire.Text},
	{Name: "location", Type: wire.Text}, {Name: "end", Type: wire.Text}, {Name: "value", Type: wire.Float},
}

func session(app getter.App) (*vendor.HTTPSession, error) {
	s, ok := app.(*vendor.HTTPSession)
	if !ok {
		return nil, fmt.Errorf("edgar: App is not an HTTPSession")
	}
	return s, nil
}

func ticker(req wire.Request) string {
	if r, ok := req.Params.Resource.(resource.Resource); ok {
		return r.Handle()
	}
	return ""
}

func sanitizeCIK(cik string) string {
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// tickerCache is the lazily-populated, process-lifetime replacement for
// the source's TICKER_MAP/CIK_MAP module globals.
var tickerCache struct {
	mu       sync.RWMutex
	cikByTkr map[string]string
}

func ensureTickerCache(ctx context.Context) error {
	tickerCache.mu.RLock()
	loaded := tickerCache.cikByTkr != nil
	tickerCache.mu.RUnlock()
	if loaded {
		return nil
	}

	body, err := fetchTickers(ctx)
	if err != nil {
		return err
	}
	var raw map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("edgar: decoding company_tickers.json: %w", err)
	}

	tickerCache.mu.Lock()
	tickerCache.cikByTkr = make(map[string]string, len(raw))
	for _, rec := range raw {
		tickerCache.cikByTkr[rec.Ticker] = sanitizeCIK(fmt.Sprint(rec.CIK))
	}
	tickerCache.mu.Unlock()
	return nil
}

func cikFor(ctx context.Context, tkr string) (string, error) {
	if err := ensureTickerCache(ctx); err != nil {
		return "", err
	}
	tickerCache.mu.RLock()
	cik, ok := tickerCache.cikByTkr[tkr]
	tickerCache.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("edgar: unknown ticker %q", tkr)
	}
	return cik, nil
}

// fetchTickers hits www.sec.gov directly rather than through an App's
// HTTPSession, since the source binds it to a different host
// (www.sec.gov vs data.sec.gov) than the rest of this vendor's endpoints.
func fetchTickers(ctx context.Context) ([]byte, error) {
	s, err := (&vendor.HTTPSessionSpec{
		Scheme: "https",
		Host:   "www.sec.gov",
		Headers: map[string]string{
			"Accept":          "application/json",
			"Accept-Encoding": "gzip, deflate",
		},
	}).Build()
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, "/files/company_tickers.json", nil)
}

func getTickers(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	body, err := fetchTickers(ctx)
	if err != nil {
		return wire.Response{}, err
	}
	var raw map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return wire.Response{}, fmt.Errorf("edgar: decoding company_tickers.json: %w", err)
	}
	out := make([][]any, 0, len(raw))
	for _, rec := range raw {
		out = append(out, []any{sanitizeCIK(fmt.Sprint(rec.CIK)), rec.Ticker})
	}
	return wire.Response{Request: req, Data: wire.SliceIter(out)}, nil
}

func getSubmissions(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	tkr := ticker(req)
	cik, err := cikFor(ctx, tkr)
	if err != nil {
		return wire.Response{}, err
	}
	body, err := s.Get(ctx, fmt.Sprintf("/submissions/CIK%s.json", cik), nil)
	if err != nil {
		return wire.Response{}, err
	}
	var raw struct {
		Filings struct {
			Recent struct {
				Form            []string `json:"form"`
				AccessionNumber []string `json:"accessionNumber"`
				FilingDate      []string `json:"filingDate"`
				ReportDate      []string `json:"reportDate"`
				FileNumber      []string `json:"fileNumber"`
				FilmNumber      []string `json:"filmNumber"`
				PrimaryDocument []string `json:"primaryDocument"`
				IsXBRL          []int    `json:"isXBRL"`
			} `json:"recent"`
		} `json:"filings"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return wire.Response{}, fmt.Errorf("edgar: decoding submissions: %w", err)
	}
	recent := raw.Filings.Recent
	out := make([][]any, 0, len(recent.Form))
	for i := range recent.Form {
		out = append(out, []any{
			tkr, recent.Form[i], recent.AccessionNumber[i], recent.FilingDate[i],
			recent.ReportDate[i], recent.FileNumber[i], recent.FilmNumber[i],
			recent.PrimaryDocument[i], recent.IsXBRL[i] != 0,
		})
	}
	return wire.Response{Request: req, Data: wire.SliceIter(out)}, nil
}

func getConcept(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	tkr := ticker(req)
	cik, err := cikFor(ctx, tkr)
	if err != nil {
		return wire.Response{}, err
	}
	tag := "Assets"
	body, err := s.Get(ctx, fmt.Sprintf("/api/xbrl/companyconcept/CIK%s/us-gaap/%s.json", cik, tag), nil)
	if err != nil {
		return wire.Response{}, err
	}
	var raw struct {
		Units map[string][]struct {
			FY   int     `json:"fy"`
			FP   string  `json:"fp"`
			Form string  `json:"form"`
			Val  float64 `json:"val"`
			Accn string  `json:"accn"`
		} `json:"units"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return wire.Response{}, fmt.Errorf("edgar: decoding concept: %w", err)
	}
	var out [][]any
	for unit, records := range raw.Units {
		for _, rec := range records {
			out = append(out, []any{tkr, tag, unit, rec.FY, rec.FP, rec.Form, rec.Val, rec.Accn})
		}
	}
	return wire.Response{Request: req, Data: wire.SliceIter(out)}, nil
}

func getFacts(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	tkr := ticker(req)
	cik, err := cikFor(ctx, tkr)
	if err != nil {
		return wire.Response{}, err
	}
	body, err := s.Get(ctx, fmt.Sprintf("/api/xbrl/companyfacts/CIK%s.json", cik), nil)
	if err != nil {
		return wire.Response{}, err
	}
	var raw struct {
		Facts map[string]map[string]struct {
			Label       string `json:"label"`
			Description string `json:"description"`
			Units       map[string][]struct {
				End  string `json:"end"`
				Accn string `json:"accn"`
				FY   int    `json:"fy"`
				FP   string `json:"fp"`
				Form string `json:"form"`
				Filed string `json:"filed"`
			} `json:"units"`
		} `json:"facts"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return wire.Response{}, fmt.Errorf("edgar: decoding facts: %w", err)
	}
	var out [][]any
	for taxonomy, lineItems := range raw.Facts {
		for lineItem, facts := range lineItems {
			for unit, records := range facts.Units {
				for _, rec := range records {
					out = append(out, []any{
						tkr, taxonomy, lineItem, unit, facts.Label, facts.Description,
						rec.End, rec.Accn, rec.FY, rec.FP, rec.Form, rec.Filed,
					})
				}
			}
		}
	}
	return wire.Response{Request: req, Data: wire.SliceIter(out)}, nil
}

func lastPeriod() string {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if month-3 < 0 {
		return fmt.Sprintf("CY%dQ4I", year-1)
	}
	return fmt.Sprintf("CY%dQ%dI", year, int(math.Ceil(4*float64(month)/12)))
}

func getFrame(ctx context.Context, app getter.App, req wire.Request, vctx *getter.Context) (wire.Response, error) {
	s, err := session(app)
	if err != nil {
		return wire.Response{}, err
	}
	tag, taxonomy, unit := "Assets", "us-gaap", "USD"
	period := lastPeriod()
	body, err := s.Get(ctx, fmt.Sprintf("/api/xbrl/frames/%s/%s/%s/%s.json", taxonomy, tag, unit, period), nil)
	if err != nil {
		return wire.Response{}, err
	}
	var raw struct {
		Taxonomy string `json:"taxonomy"`
		Tag      string `json:"tag"`
		CCP      string `json:"ccp"`
		UOM      string `json:"uom"`
		Label    string `json:"label"`
		Descr    string `json:"description"`
		Data     []struct {
			Accn       string  `json:"accn"`
			CIK        int     `json:"cik"`
			EntityName string  `json:"entityName"`
			Loc        string  `json:"loc"`
			End        string  `json:"end"`
			Val        float64 `json:"val"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return wire.Response{}, fmt.Errorf("edgar: decoding frame: %w", err)
	}
	if err := ensureTickerCache(ctx); err != nil {
		return wire.Response{}, err
	}

	out := make([][]any, 0, len(raw.Data))
	for _, rec := range raw.Data {
		var tkr any
		tickerCache.mu.RLock()
		for t, c := range tickerCache.cikByTkr {
			if c == sanitizeCIK(fmt.Sprint(rec.CIK)) {
				tkr = t
				break
			}
		}
		tickerCache.mu.RUnlock()
		out = append(out, []any{
			period, raw.Taxonomy, raw.Tag, raw.CCP, raw.UOM, raw.Label, raw.Descr,
			rec.Accn, tkr, rec.EntityName, rec.Loc, rec.End, rec.Val,
		})
	}
	return wire.Response{Request: req, Data: wire.SliceIter(out)}, nil
}
