package wire

import "testing"

func TestSliceIterDrain(t *testing.T) {
	records := [][]any{{"a", 1}, {"b", 2}, {"c", 3}}
	it := SliceIter(records)

	drained, err := Drain(it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drained) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(drained))
	}
	for i := range records {
		if drained[i][0] != records[i][0] || drained[i][1] != records[i][1] {
			t.Errorf("record %d mismatch: got %v, want %v", i, drained[i], records[i])
		}
	}
}

func TestSliceIterExhausted(t *testing.T) {
	it := SliceIter(nil)
	_, ok, err := it()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for an empty iterator")
	}
}

func TestConcatPreservesOrder(t *testing.T) {
	a := SliceIter([][]any{{1}, {2}})
	b := SliceIter([][]any{{3}, {4}})
	c := SliceIter([][]any{{5}})

	merged := Concat(a, b, c)
	got, err := Drain(merged)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]any{{1}, {2}, {3}, {4}, {5}}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i][0] != want[i][0] {
			t.Errorf("record %d mismatch: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestConcatSkipsNilIterators(t *testing.T) {
	a := SliceIter([][]any{{1}})
	merged := Concat(nil, a, nil)
	got, err := Drain(merged)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
}

func TestDrainPropagatesError(t *testing.T) {
	boom := errRecordIter{}
	_, err := Drain(boom.iter())
	if err == nil {
		t.Error("expected Drain to propagate the iterator's error")
	}
}

type errRecordIter struct{}

func (errRecordIter) iter() RecordIter {
	called := false
	return func() ([]any, bool, error) {
		if called {
			return nil, false, nil
		}
		called = true
		return nil, false, errBoom
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
