package coverage

import (
	"github.com/hedgepy/broker/internal/storage"
	"github.com/hedgepy/broker/internal/wire"
)

// Plan diffs templates against actual (the gateway's Struct() output),
// top-down schema → table → columns/date-range, per spec.md §4.5. An
// uncoverable template's endpoint selection aborts the whole Plan with its
// ErrUncoverable rather than silently dropping it — a template the
// operator wrote is either satisfiable or a configuration error.
func Plan(templates []Template, actual map[storage.TableKey]storage.CoverageRecord) (Plan, error) {
	var plan Plan
	referenced := make(map[storage.TableKey]bool)

	for _, t := range templates {
		endpoints, err := resolveEndpoints(t)
		if err != nil {
			return Plan{}, err
		}
		for _, ep := range endpoints {
			tk := storage.TableKey{Schema: t.Vendor, Table: ep.Name}
			referenced[tk] = true
			diffTable(&plan, tk, ep.Columns, t.Start, t.End, t.Resolution, actual[tk])
		}
	}

	for tk, rec := range actual {
		if referenced[tk] {
			continue
		}
		plan.Orphaned = append(plan.Orphaned, Diff{
			Schema:  tk.Schema,
			Table:   tk.Table,
			Columns: rec.Columns,
			Start:   rec.RangeStart,
			End:     rec.RangeEnd,
		})
	}

	return plan, nil
}

// diffTable compares one desired (schema, table, columns, date-window)
// against its actual CoverageRecord, appending to plan.Missing and
// plan.Common as appropriate. The date-range diff treats (schema, table)
// as a single interval: gaps strictly interior to [A_s, A_e] are not
// detected, by design (spec.md §4.5).
func diffTable(plan *Plan, tk storage.TableKey, columns []string, start, end wire.DateTime, res wire.Duration, actual storage.CoverageRecord) {
	missingColumns := diffColumns(columns, actual.Columns)

	if len(actual.Columns) == 0 {
		// Table doesn't exist yet: everything about it is missing.
		plan.Missing = append(plan.Missing, Diff{
			Schema: tk.Schema, Table: tk.Table,
			Columns: columns, Start: start, End: end, Resolution: res,
		})
		return
	}

	if len(missingColumns) > 0 {
		plan.Missing = append(plan.Missing, Diff{
			Schema: tk.Schema, Table: tk.Table,
			Columns: missingColumns, Start: start, End: end, Resolution: res,
		})
	}

	if !actual.HasRange {
		plan.Missing = append(plan.Missing, Diff{
			Schema: tk.Schema, Table: tk.Table,
			Columns: columns, Start: start, End: end, Resolution: res,
		})
		return
	}

	if start.Time.Before(actual.RangeStart.Time) {
		plan.Missing = append(plan.Missing, Diff{
			Schema: tk.Schema, Table: tk.Table,
			Columns: columns, Start: start, End: actual.RangeStart, Resolution: res,
		})
	}
	if end.Time.After(actual.RangeEnd.Time) {
		plan.Missing = append(plan.Missing, Diff{
			Schema: tk.Schema, Table: tk.Table,
			Columns: columns, Start: actual.RangeEnd, End: end, Resolution: res,
		})
	}

	commonStart := start
	if actual.RangeStart.Time.After(commonStart.Time) {
		commonStart = actual.RangeStart
	}
	commonEnd := end
	if actual.RangeEnd.Time.Before(commonEnd.Time) {
		commonEnd = actual.RangeEnd
	}
	if !commonStart.Time.After(commonEnd.Time) {
		plan.Common = append(plan.Common, Diff{
			Schema: tk.Schema, Table: tk.Table,
			Columns: intersectColumns(columns, actual.Columns),
			Start:   commonStart, End: commonEnd, Resolution: res,
		})
	}
}

func diffColumns(desired, actual []string) []string {
	have := make(map[string]bool, len(actual))
	for _, c := range actual {
		have[c] = true
	}
	var missing []string
	for _, c := range desired {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

func intersectColumns(a, b []string) []string {
	have := make(map[string]bool, len(b))
	for _, c := range b {
		have[c] = true
	}
	var out []string
	for _, c := range a {
		if have[c] {
			out = append(out, c)
		}
	}
	return out
}

// FillRequests flattens plan.Missing into urgent-priority fill requests,
// one per (endpoint, date-window) per spec.md §4.5 — with zero or more
// wire.Request per Diff when the originating template carried resources,
// one Request per resource (the flatten behavior of spec.md §8 scenario
// 6), or exactly one Request when it carried none.
func (p Plan) FillRequests(items map[string][]TemplateItem) []wire.Request {
	var out []wire.Request
	for _, d := range p.Missing {
		templateItems := items[d.Schema+"|"+d.Table]
		if len(templateItems) == 0 {
			out = append(out, fillRequest(d, nil))
			continue
		}
		for _, it := range templateItems {
			out = append(out, fillRequest(d, it.Resource))
		}
	}
	return out
}

func fillRequest(d Diff, resource any) wire.Request {
	return wire.Request{
		Vendor:   d.Schema,
		Endpoint: d.Table,
		Priority: wire.PriorityUrgent,
		Params: wire.RequestParams{
			Start:      d.Start,
			End:        d.End,
			Resolution: d.Resolution,
			Resource:   resource,
		},
	}
}
