package hedgepy

import "testing"

func TestSplitEdgarIdentity(t *testing.T) {
	company, email, err := splitEdgarIdentity("Acme Corp:ops@acme.test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if company != "Acme Corp" || email != "ops@acme.test" {
		t.Errorf("got company=%q email=%q", company, email)
	}
}

func TestSplitEdgarIdentityRejectsMissingColon(t *testing.T) {
	if _, _, err := splitEdgarIdentity("no-colon-here"); err == nil {
		t.Fatal("expected an error for credentials with no colon separator")
	}
}

func TestChunkScheduleDisabledAtZero(t *testing.T) {
	if s := chunkSchedule(0); s != nil {
		t.Errorf("expected nil schedule for maxChunkDays=0, got %v", s)
	}
}

func TestChunkScheduleMatchesAnyResolution(t *testing.T) {
	s := chunkSchedule(30)
	if len(s) != 1 {
		t.Fatalf("expected exactly one schedule entry, got %d", len(s))
	}
	for _, max := range s {
		if max.Hours() != 30*24 {
			t.Errorf("max duration = %v, want 30 days", max)
		}
	}
}

func TestMaxRequestsForPrefersLargerOfRateAndBurst(t *testing.T) {
	if got := maxRequestsFor(2.0, 10); got != 10 {
		t.Errorf("maxRequestsFor(2.0, 10) = %d, want 10", got)
	}
	if got := maxRequestsFor(50.0, 5); got != 50 {
		t.Errorf("maxRequestsFor(50.0, 5) = %d, want 50", got)
	}
	if got := maxRequestsFor(0, 0); got != 1 {
		t.Errorf("maxRequestsFor(0, 0) = %d, want 1 (floor)", got)
	}
}
