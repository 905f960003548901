package wire

import "testing"

func TestPriorityString(t *testing.T) {
	if PriorityUrgent.String() != "urgent" {
		t.Errorf("expected \"urgent\", got %q", PriorityUrgent.String())
	}
	if PriorityNormal.String() != "normal" {
		t.Errorf("expected \"normal\", got %q", PriorityNormal.String())
	}
}

func TestResponseZeroValueHasNilData(t *testing.T) {
	var r Response
	if r.Data != nil {
		t.Error("expected zero-value Response to have nil Data")
	}
}
