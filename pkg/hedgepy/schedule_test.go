package hedgepy

import (
	"testing"

	"github.com/hedgepy/broker/internal/resource"
	"github.com/hedgepy/broker/internal/template"
	"github.com/hedgepy/broker/internal/vendor"
	_ "github.com/hedgepy/broker/internal/vendors/fred" // registers FredSeries
)

func encodedSeries(t *testing.T, seriesID string) string {
	t.Helper()
	class, ok := resource.Lookup("FredSeries")
	if !ok {
		t.Fatal("FredSeries class not registered")
	}
	res, err := resource.New(class, map[string]any{"series_id": seriesID})
	if err != nil {
		t.Fatalf("resource.New: %v", err)
	}
	return res.ClassName() + "$" + res.Handle()
}

func TestBuildCoverageTemplatesGroupsByCommonFields(t *testing.T) {
	docs := map[string]template.Document{
		"fred-gdp": {
			Common: template.Common{
				Vendor: "fred", Endpoint: "series",
				Start: "2020-01-01T00:00:00", End: "2024-01-01T00:00:00",
			},
			Templates: []template.Item{
				{Resource: encodedSeries(t, "GNPCA")},
				{Resource: encodedSeries(t, "GDP")},
			},
		},
	}

	templates, byEndpoint, err := BuildCoverageTemplates(docs, map[string]*vendor.Vendor{})
	if err != nil {
		t.Fatalf("BuildCoverageTemplates: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("expected one bucket for two same-window items, got %d", len(templates))
	}
	if len(templates[0].Items) != 2 {
		t.Errorf("expected 2 items in the bucket, got %d", len(templates[0].Items))
	}
	if items := byEndpoint["fred|series"]; len(items) != 2 {
		t.Errorf("expected 2 items indexed under fred|series, got %d", len(items))
	}
}

func TestBuildCoverageTemplatesRejectsBadResourceHandle(t *testing.T) {
	docs := map[string]template.Document{
		"broken": {
			Common:    template.Common{Vendor: "fred", Endpoint: "series"},
			Templates: []template.Item{{Resource: "NotARealClass$whatever"}},
		},
	}
	if _, _, err := BuildCoverageTemplates(docs, map[string]*vendor.Vendor{}); err == nil {
		t.Fatal("expected an error decoding an unregistered resource class")
	}
}
