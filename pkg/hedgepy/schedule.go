package hedgepy

import (
	"context"
	"fmt"

	"github.com/hedgepy/broker/internal/coverage"
	"github.com/hedgepy/broker/internal/resource"
	"github.com/hedgepy/broker/internal/template"
	"github.com/hedgepy/broker/internal/vendor"
	"github.com/hedgepy/broker/internal/wire"
)

// templateBucket groups a document's items that share every field but
// Resource — the common case, and the only shape coverage.Template models
// directly (one Start/End/Resolution/Endpoint/Columns per Template).
type templateBucket struct {
	vendor     string
	endpoint   string
	columns    []string
	start      string
	end        string
	resolution string
	items      []coverage.TemplateItem
}

// BuildCoverageTemplates flattens every loaded template document into
// coverage.Templates, resolving each item's resource handle and each
// template's candidate endpoints (for column-based endpoint selection)
// from the live vendor registry. Returns the templates plus an
// endpoint-keyed item index FillRequests needs to attach resources to the
// gaps it finds.
func BuildCoverageTemplates(docs map[string]template.Document, vendors map[string]*vendor.Vendor) ([]coverage.Template, map[string][]coverage.TemplateItem, error) {
	buckets := map[string]*templateBucket{}
	var order []string

	for name, doc := range docs {
		for _, item := range doc.Templates {
			endpoint := firstNonEmpty(item.Endpoint, doc.Common.Endpoint)
			columns := item.Columns
			if len(columns) == 0 {
				columns = doc.Common.Columns
			}
			start := firstNonEmpty(item.Start, doc.Common.Start)
			end := firstNonEmpty(item.End, doc.Common.End)
			resolution := firstNonEmpty(item.Resolution, doc.Common.Resolution)

			res, err := resource.Decode(item.Resource)
			if err != nil {
				return nil, nil, fmt.Errorf("hedgepy: template %q: decoding resource %q: %w", name, item.Resource, err)
			}

			key := fmt.Sprintf("%s|%s|%s|%s|%s|%s", doc.Common.Vendor, endpoint, start, end, resolution, name)
			b, ok := buckets[key]
			if !ok {
				b = &templateBucket{
					vendor: doc.Common.Vendor, endpoint: endpoint, columns: columns,
					start: start, end: end, resolution: resolution,
				}
				buckets[key] = b
				order = append(order, key)
			}
			b.items = append(b.items, coverage.TemplateItem{Resource: res})
		}
	}

	templates := make([]coverage.Template, 0, len(order))
	byEndpoint := map[string][]coverage.TemplateItem{}
	for _, key := range order {
		b := buckets[key]
		startDt, err := wire.StrToDt(b.start, wire.TimestampLayout)
		if err != nil {
			return nil, nil, fmt.Errorf("hedgepy: invalid start %q: %w", b.start, err)
		}
		endDt, err := wire.StrToDt(b.end, wire.TimestampLayout)
		if err != nil {
			return nil, nil, fmt.Errorf("hedgepy: invalid end %q: %w", b.end, err)
		}
		res, err := wire.StrToTd(b.resolution)
		if err != nil {
			return nil, nil, fmt.Errorf("hedgepy: invalid resolution %q: %w", b.resolution, err)
		}

		t := coverage.Template{
			Vendor:     b.vendor,
			Endpoint:   b.endpoint,
			Columns:    b.columns,
			Start:      startDt,
			End:        endDt,
			Resolution: res,
			Items:      b.items,
		}
		if t.Endpoint == "" {
			t.Endpoints = candidateEndpoints(vendors[b.vendor])
		}
		templates = append(templates, t)

		if t.Endpoint != "" {
			byEndpoint[b.vendor+"|"+t.Endpoint] = append(byEndpoint[b.vendor+"|"+t.Endpoint], b.items...)
		}
	}

	return templates, byEndpoint, nil
}

func candidateEndpoints(v *vendor.Vendor) []coverage.CandidateEndpoint {
	if v == nil {
		return nil
	}
	out := make([]coverage.CandidateEndpoint, 0, len(v.Getters))
	for name, g := range v.Getters {
		cols := make([]string, 0, len(g.Returns()))
		for _, f := range g.Returns() {
			cols = append(cols, f.Name)
		}
		out = append(out, coverage.CandidateEndpoint{Name: name, Columns: cols})
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// BuildFillSchedule diffs the loaded templates against the gateway's
// actual coverage and returns the urgent-priority fill requests the
// scheduler daemon should post, per spec.md §4.5/§4.6.
func BuildFillSchedule(ctx context.Context, a *App) ([]wire.Request, error) {
	docs, err := a.Templates.All()
	if err != nil {
		return nil, fmt.Errorf("hedgepy: loading templates: %w", err)
	}
	templates, items, err := BuildCoverageTemplates(docs, a.Vendors)
	if err != nil {
		return nil, err
	}
	actual, err := a.Gateway.Struct(ctx)
	if err != nil {
		return nil, fmt.Errorf("hedgepy: reading actual coverage: %w", err)
	}
	plan, err := coverage.Plan(templates, actual)
	if err != nil {
		return nil, fmt.Errorf("hedgepy: planning coverage: %w", err)
	}
	for _, d := range plan.Missing {
		a.Metrics.ObserveCoverageFillRequest(d.Schema, d.Table)
	}
	return plan.FillRequests(items), nil
}
