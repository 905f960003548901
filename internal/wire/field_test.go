package wire

import "testing"

func TestParseFieldTypeRoundTrip(t *testing.T) {
	types := []FieldType{Text, Bool, Int, Float, Date, Time, Timestamp, Interval}
	for _, ft := range types {
		parsed, err := ParseFieldType(ft.String())
		if err != nil {
			t.Fatalf("ParseFieldType(%q) failed: %v", ft.String(), err)
		}
		if parsed != ft {
			t.Errorf("round trip mismatch: got %v, want %v", parsed, ft)
		}
	}
}

func TestParseFieldTypeUnknown(t *testing.T) {
	if _, err := ParseFieldType("not-a-type"); err == nil {
		t.Error("expected error for unknown field type")
	}
}

func TestFieldAssignable(t *testing.T) {
	cases := []struct {
		name  string
		field Field
		value any
		want  bool
	}{
		{"text ok", Field{Type: Text}, "hello", true},
		{"text wrong", Field{Type: Text}, 1, false},
		{"bool ok", Field{Type: Bool}, true, true},
		{"int ok", Field{Type: Int}, int64(5), true},
		{"int wrong", Field{Type: Int}, "5", false},
		{"float ok", Field{Type: Float}, 1.5, true},
		{"timestamp ok", Field{Type: Timestamp}, DateTime{}, true},
		{"interval ok", Field{Type: Interval}, Duration{Days: 1}, true},
		{"nil always assignable", Field{Type: Int}, nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.field.Assignable(tc.value); got != tc.want {
				t.Errorf("Assignable(%v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}
