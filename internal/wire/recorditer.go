package wire

// RecordIter is a lazy, finite, non-restartable sequence of records. Each
// call returns the next record (a slice whose arity and element types match
// the producing endpoint's returns tuple), whether another call would yield
// more, and an error. Once ok is false or err is non-nil, the iterator must
// not be called again.
//
// This shape (rather than a channel or a slice) keeps the broker TCP
// client's "append until end-of-data signal" response side and the HTTP
// vendor's "one JSON array, fully materialized" response side behind the
// same interface: both can be draped over a single closure.
type RecordIter func() (record []any, ok bool, err error)

// SliceIter adapts an already-materialized slice of records into a
// RecordIter. Used by HTTP-session getters, whose formatter typically
// decodes a whole JSON response body in one shot.
func SliceIter(records [][]any) RecordIter {
	i := 0
	return func() ([]any, bool, error) {
		if i >= len(records) {
			return nil, false, nil
		}
		rec := records[i]
		i++
		return rec, true, nil
	}
}

// Drain exhausts a RecordIter into a slice, for callers (formatters, tests,
// the persistence gateway's bulk-insert path) that need the whole sequence
// materialized rather than consumed incrementally.
func Drain(it RecordIter) ([][]any, error) {
	if it == nil {
		return nil, nil
	}
	var out [][]any
	for {
		rec, ok, err := it()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
}

// Concat returns a RecordIter that drains each iterator in order, the
// mechanism TimeChunker uses to merge sub-response data in request-start
// order without materializing the whole merged sequence up front.
func Concat(iters ...RecordIter) RecordIter {
	idx := 0
	return func() ([]any, bool, error) {
		for idx < len(iters) {
			if iters[idx] == nil {
				idx++
				continue
			}
			rec, ok, err := iters[idx]()
			if err != nil {
				return nil, false, err
			}
			if ok {
				return rec, true, nil
			}
			idx++
		}
		return nil, false, nil
	}
}
