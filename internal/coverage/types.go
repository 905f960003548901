// Package coverage diffs what the templates ask for against what the
// persistence gateway actually has on disk, and resolves which endpoint(s)
// supply a template that names required columns instead of a fixed
// endpoint. Grounded on spec.md §4.5; this package intentionally does not
// import internal/vendor or internal/getter — a Template's candidate
// endpoints arrive pre-resolved (name + returns) from whatever wires the
// vendor registry into the scheduler, keeping the diffing logic testable
// against plain data.
package coverage

import (
	"strings"

	"github.com/hedgepy/broker/internal/wire"
)

// CandidateEndpoint is one getter the template's vendor exposes, reduced to
// the shape endpoint selection needs: its name and the column names its
// Returns tuple declares.
type CandidateEndpoint struct {
	Name    string
	Columns []string
}

// TemplateItem is one resource-scoped member of a template's flattened
// request set (spec.md §8 scenario 6: a template's common block plus N
// items yields N Requests differing only in Resource). Resource arrives
// already decoded (internal/template.Load's job, not this package's) so
// coverage never has to import internal/resource.
type TemplateItem struct {
	Resource any
}

// Template is one desired-coverage declaration: a vendor, either a fixed
// endpoint or a set of required columns to resolve one from, a date
// window, and the resources to flatten into individual fill requests.
type Template struct {
	Vendor     string
	Endpoint   string // explicit; when set, Columns/Endpoints are ignored by selection
	Columns    []string
	Endpoints  []CandidateEndpoint // candidates to select from when Endpoint == ""
	Start      wire.DateTime
	End        wire.DateTime
	Resolution wire.Duration
	Items      []TemplateItem
}

// Diff is one coverage comparison result: a desired or actual (schema,
// table) slice, the columns involved, and the date window the diff covers.
type Diff struct {
	Schema     string
	Table      string
	Columns    []string
	Start      wire.DateTime
	End        wire.DateTime
	Resolution wire.Duration
}

// Plan is the coverage planner's output: the three projections spec.md
// §4.5 names.
type Plan struct {
	Missing  []Diff
	Orphaned []Diff
	Common   []Diff
}

// ErrUncoverable reports that no combination of a template's candidate
// endpoints covers its required columns.
type ErrUncoverable struct {
	Vendor  string
	Columns []string
}

func (e *ErrUncoverable) Error() string {
	return "coverage: " + e.Vendor + ": no endpoint combination covers columns [" + strings.Join(e.Columns, ", ") + "]"
}

// resolvedEndpoint is one endpoint chosen to satisfy part or all of a
// template, carrying the full column set its table should declare.
type resolvedEndpoint struct {
	Name    string
	Columns []string
}
