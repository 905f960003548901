package wire

import (
	"testing"
	"time"
)

func TestDtToStrStrToDtRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		layout string
		value  string
	}{
		{"date", DateLayout, "2020-01-01"},
		{"time", TimeLayout, "09:30:00"},
		{"timestamp", TimestampLayout, "2020-01-01T09:30:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dt, err := StrToDt(tc.value, tc.layout)
			if err != nil {
				t.Fatalf("StrToDt(%q) returned error: %v", tc.value, err)
			}
			got := DtToStr(dt, tc.layout)
			if got != tc.value {
				t.Errorf("round trip mismatch: got %q, want %q", got, tc.value)
			}
		})
	}
}

func TestStrToDtEmptyIsZero(t *testing.T) {
	dt, err := StrToDt("", TimestampLayout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dt.IsZero() {
		t.Errorf("expected zero DateTime for empty string, got %v", dt)
	}
	if got := DtToStr(dt, TimestampLayout); got != "" {
		t.Errorf("expected empty string for zero DateTime, got %q", got)
	}
}

func TestStrToDtInvalid(t *testing.T) {
	if _, err := StrToDt("not-a-date", DateLayout); err == nil {
		t.Error("expected error for malformed date string")
	}
}

func TestStrToTdTdToStrRoundTrip(t *testing.T) {
	cases := []string{
		"P1Y2M3W4DT5H6M7S",
		"P1D",
		"PT1M",
		"P1Y",
		"PT30M",
	}

	for _, s := range cases {
		t.Run(s, func(t *testing.T) {
			d, err := StrToTd(s)
			if err != nil {
				t.Fatalf("StrToTd(%q) returned error: %v", s, err)
			}
			got := TdToStr(d)
			if got != s {
				t.Errorf("round trip mismatch: got %q, want %q", got, s)
			}
		})
	}
}

func TestStrToTdEmptyIsZero(t *testing.T) {
	d, err := StrToTd("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != (Duration{}) {
		t.Errorf("expected zero Duration, got %+v", d)
	}
}

func TestStrToTdInvalid(t *testing.T) {
	cases := []string{"garbage", "P", "1D"}
	for _, s := range cases {
		if _, err := StrToTd(s); err == nil {
			t.Errorf("expected error parsing %q", s)
		}
	}
}

func TestDurationApprox(t *testing.T) {
	d := Duration{Days: 1}
	if got := d.Approx(); got != 24*time.Hour {
		t.Errorf("expected 24h for P1D, got %v", got)
	}
}

func TestDurationAddTo(t *testing.T) {
	base := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)
	d := Duration{Months: 1}
	got := d.AddTo(base)
	want := time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC) // time.Time.AddDate normalizes Feb 31 -> Mar 2
	if !got.Equal(want) {
		t.Errorf("AddTo(%v) = %v, want %v", base, got, want)
	}
}

func TestTimeChunkingScenario(t *testing.T) {
	// Scenario 2 from the spec: 7 days at a P1D cap produces 7 one-day windows.
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 1, 8, 0, 0, 0, 0, time.UTC)
	cap, err := StrToTd("P1D")
	if err != nil {
		t.Fatal(err)
	}

	var windows int
	cursor := start
	for cursor.Before(end) {
		next := cap.AddTo(cursor)
		if next.After(end) {
			next = end
		}
		windows++
		cursor = next
	}
	if windows != 7 {
		t.Errorf("expected 7 sub-windows, got %d", windows)
	}
}
