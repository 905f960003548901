package wire

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CorrIDKind distinguishes the two CorrID representations in play: HTTP
// vendors mint a v4 UUID per request, the broker-protocol vendor reuses its
// wire protocol's monotonic int32 request_id.
type CorrIDKind uint8

const (
	CorrIDUUID CorrIDKind = iota
	CorrIDInt32
)

// CorrID is the sum-type-like struct described in §9: a Kind tag plus
// exactly one of a uuid.UUID or an int32, with typed accessors. It is the
// map key for the pipeline's response store and waiter table, so it must be
// comparable — both fields are plain values, not pointers or interfaces.
type CorrID struct {
	kind CorrIDKind
	u    uuid.UUID
	i    int32
}

// NewUUIDCorrID wraps a uuid.UUID as a CorrID.
func NewUUIDCorrID(u uuid.UUID) CorrID {
	return CorrID{kind: CorrIDUUID, u: u}
}

// NewInt32CorrID wraps a broker-protocol request_id as a CorrID.
func NewInt32CorrID(i int32) CorrID {
	return CorrID{kind: CorrIDInt32, i: i}
}

// Kind reports which representation this CorrID carries.
func (c CorrID) Kind() CorrIDKind {
	return c.kind
}

// UUID returns the wrapped UUID and true, or the zero UUID and false if this
// CorrID is not a CorrIDUUID.
func (c CorrID) UUID() (uuid.UUID, bool) {
	if c.kind != CorrIDUUID {
		return uuid.UUID{}, false
	}
	return c.u, true
}

// Int32 returns the wrapped int32 and true, or 0 and false if this CorrID is
// not a CorrIDInt32.
func (c CorrID) Int32() (int32, bool) {
	if c.kind != CorrIDInt32 {
		return 0, false
	}
	return c.i, true
}

// String renders the CorrID in its canonical wire form: a UUID string for
// CorrIDUUID, or the bare decimal integer for CorrIDInt32.
func (c CorrID) String() string {
	switch c.kind {
	case CorrIDUUID:
		return c.u.String()
	case CorrIDInt32:
		return fmt.Sprintf("%d", c.i)
	default:
		return ""
	}
}

// MarshalJSON emits the CorrID as its String() form, matching the HTTP
// front-end's `{corr_id}` wire encoding in both directions.
func (c CorrID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts either a UUID string or a bare integer string,
// trying UUID parse first since that is the common case (only the broker
// vendor uses integer corr_ids).
func (c *CorrID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("wire: corr_id must be a JSON string: %w", err)
	}
	if u, err := uuid.Parse(s); err == nil {
		*c = NewUUIDCorrID(u)
		return nil
	}
	var i int32
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return fmt.Errorf("wire: corr_id %q is neither a UUID nor an integer", s)
	}
	*c = NewInt32CorrID(i)
	return nil
}

// ParseCorrID parses s (a query-string corr_id, the same wire form
// UnmarshalJSON accepts) into a CorrID, trying UUID first.
func ParseCorrID(s string) (CorrID, error) {
	if u, err := uuid.Parse(s); err == nil {
		return NewUUIDCorrID(u), nil
	}
	var i int32
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return CorrID{}, fmt.Errorf("wire: corr_id %q is neither a UUID nor an integer", s)
	}
	return NewInt32CorrID(i), nil
}

// CorrIDFn allocates a CorrID for a request about to be dispatched. HTTP
// vendors use NewUUIDCorrIDFn; the broker vendor supplies one backed by its
// own monotonic counter tied to the wire protocol's request_id field.
type CorrIDFn func() CorrID

// NewUUIDCorrIDFn returns a CorrIDFn that mints a random v4 UUID per call,
// the default corr_id_fn for every HTTP-session vendor.
func NewUUIDCorrIDFn() CorrIDFn {
	return func() CorrID {
		return NewUUIDCorrID(uuid.New())
	}
}
