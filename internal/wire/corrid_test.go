package wire

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestCorrIDUUIDAccessors(t *testing.T) {
	u := uuid.New()
	c := NewUUIDCorrID(u)

	if c.Kind() != CorrIDUUID {
		t.Fatalf("expected CorrIDUUID, got %v", c.Kind())
	}
	got, ok := c.UUID()
	if !ok || got != u {
		t.Errorf("UUID() = %v, %v; want %v, true", got, ok, u)
	}
	if _, ok := c.Int32(); ok {
		t.Error("Int32() should report false for a UUID-kind CorrID")
	}
}

func TestCorrIDInt32Accessors(t *testing.T) {
	c := NewInt32CorrID(42)

	if c.Kind() != CorrIDInt32 {
		t.Fatalf("expected CorrIDInt32, got %v", c.Kind())
	}
	got, ok := c.Int32()
	if !ok || got != 42 {
		t.Errorf("Int32() = %v, %v; want 42, true", got, ok)
	}
	if _, ok := c.UUID(); ok {
		t.Error("UUID() should report false for an Int32-kind CorrID")
	}
}

func TestCorrIDJSONRoundTrip(t *testing.T) {
	cases := []CorrID{
		NewUUIDCorrID(uuid.New()),
		NewInt32CorrID(7),
	}

	for _, c := range cases {
		data, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("Marshal(%v) failed: %v", c, err)
		}
		var decoded CorrID
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", data, err)
		}
		if decoded != c {
			t.Errorf("round trip mismatch: got %+v, want %+v", decoded, c)
		}
	}
}

func TestCorrIDComparable(t *testing.T) {
	a := NewInt32CorrID(1)
	b := NewInt32CorrID(1)
	c := NewInt32CorrID(2)

	m := map[CorrID]string{a: "first"}
	if m[b] != "first" {
		t.Error("equal CorrIDs should map to the same key")
	}
	if _, ok := m[c]; ok {
		t.Error("distinct CorrIDs should not collide as map keys")
	}
}

func TestUnmarshalCorrIDRejectsGarbage(t *testing.T) {
	var c CorrID
	if err := json.Unmarshal([]byte(`"not-a-valid-id"`), &c); err == nil {
		t.Error("expected error decoding a non-UUID, non-integer string")
	}
}

func TestNewUUIDCorrIDFn(t *testing.T) {
	fn := NewUUIDCorrIDFn()
	a := fn()
	b := fn()
	if a == b {
		t.Error("expected distinct corr_ids from successive calls")
	}
	if a.Kind() != CorrIDUUID {
		t.Errorf("expected CorrIDUUID, got %v", a.Kind())
	}
}
