package coverage

import (
	"testing"
	"time"

	"github.com/hedgepy/broker/internal/storage"
	"github.com/hedgepy/broker/internal/wire"
)

func dt(s string) wire.DateTime {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return wire.NewDateTime(t)
}

func TestPlanMissingTableDoesNotExist(t *testing.T) {
	templates := []Template{{
		Vendor: "fred", Endpoint: "series",
		Columns: []string{"date", "value"},
		Start:   dt("2020-01-01"), End: dt("2020-02-01"),
	}}
	plan, err := Plan(templates, map[storage.TableKey]storage.CoverageRecord{})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if len(plan.Missing) != 1 {
		t.Fatalf("Missing = %d diffs, want 1", len(plan.Missing))
	}
	if plan.Missing[0].Schema != "fred" || plan.Missing[0].Table != "series" {
		t.Errorf("Missing[0] = %+v, want fred/series", plan.Missing[0])
	}
}

func TestPlanBackfillAndFrontfill(t *testing.T) {
	templates := []Template{{
		Vendor: "fred", Endpoint: "series",
		Columns: []string{"date", "value"},
		Start:   dt("2020-01-01"), End: dt("2020-03-01"),
	}}
	actual := map[storage.TableKey]storage.CoverageRecord{
		{Schema: "fred", Table: "series"}: {
			Columns: []string{"date", "value"}, HasRange: true,
			RangeStart: dt("2020-01-15"), RangeEnd: dt("2020-02-15"),
		},
	}
	plan, err := Plan(templates, actual)
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if len(plan.Missing) != 2 {
		t.Fatalf("Missing = %d diffs, want 2 (backfill + frontfill): %+v", len(plan.Missing), plan.Missing)
	}
	if len(plan.Common) != 1 {
		t.Fatalf("Common = %d diffs, want 1", len(plan.Common))
	}
}

func TestPlanOrphaned(t *testing.T) {
	actual := map[storage.TableKey]storage.CoverageRecord{
		{Schema: "fred", Table: "unreferenced"}: {Columns: []string{"date", "value"}},
	}
	plan, err := Plan(nil, actual)
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if len(plan.Orphaned) != 1 {
		t.Fatalf("Orphaned = %d diffs, want 1", len(plan.Orphaned))
	}
}

func TestResolveEndpointsSuperset(t *testing.T) {
	templates := []Template{{
		Vendor:  "fred",
		Columns: []string{"date", "value"},
		Endpoints: []CandidateEndpoint{
			{Name: "series_full", Columns: []string{"date", "value", "revision", "notes"}},
			{Name: "series_tight", Columns: []string{"date", "value"}},
		},
		Start: dt("2020-01-01"), End: dt("2020-02-01"),
	}}
	plan, err := Plan(templates, map[storage.TableKey]storage.CoverageRecord{})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if len(plan.Missing) != 1 || plan.Missing[0].Table != "series_tight" {
		t.Fatalf("Missing = %+v, want series_tight selected as the least-extra superset", plan.Missing)
	}
}

func TestResolveEndpointsGreedyFallback(t *testing.T) {
	templates := []Template{{
		Vendor:  "fred",
		Columns: []string{"date", "value", "revision"},
		Endpoints: []CandidateEndpoint{
			{Name: "series_values", Columns: []string{"date", "value"}},
			{Name: "series_revisions", Columns: []string{"date", "revision"}},
		},
		Start: dt("2020-01-01"), End: dt("2020-02-01"),
	}}
	plan, err := Plan(templates, map[storage.TableKey]storage.CoverageRecord{})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if len(plan.Missing) != 2 {
		t.Fatalf("Missing = %d diffs, want 2 (one per greedily-chosen endpoint): %+v", len(plan.Missing), plan.Missing)
	}
}

func TestResolveEndpointsUncoverable(t *testing.T) {
	templates := []Template{{
		Vendor:  "fred",
		Columns: []string{"date", "value", "nonexistent_column"},
		Endpoints: []CandidateEndpoint{
			{Name: "series_values", Columns: []string{"date", "value"}},
		},
	}}
	_, err := Plan(templates, map[storage.TableKey]storage.CoverageRecord{})
	if err == nil {
		t.Fatal("expected ErrUncoverable")
	}
	if _, ok := err.(*ErrUncoverable); !ok {
		t.Fatalf("err = %v (%T), want *ErrUncoverable", err, err)
	}
}

func TestFillRequestsFlattenByResource(t *testing.T) {
	plan := Plan{Missing: []Diff{{Schema: "fred", Table: "series", Start: dt("2020-01-01"), End: dt("2020-02-01")}}}
	items := map[string][]TemplateItem{
		"fred|series": {{Resource: "GDP"}, {Resource: "CPI"}},
	}
	reqs := plan.FillRequests(items)
	if len(reqs) != 2 {
		t.Fatalf("FillRequests() = %d requests, want 2", len(reqs))
	}
	for _, r := range reqs {
		if r.Priority != wire.PriorityUrgent {
			t.Errorf("request priority = %v, want urgent", r.Priority)
		}
	}
}

func TestFillRequestsNoItems(t *testing.T) {
	plan := Plan{Missing: []Diff{{Schema: "fred", Table: "series"}}}
	reqs := plan.FillRequests(nil)
	if len(reqs) != 1 {
		t.Fatalf("FillRequests() = %d requests, want 1", len(reqs))
	}
}
