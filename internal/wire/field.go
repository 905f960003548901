// Package wire defines the scalar type system, correlation-ID sum type, and
// record iterator shared by every other package that crosses a vendor,
// pipeline, or storage boundary.
package wire

import "fmt"

// FieldType is one of the scalar kinds an endpoint's returns tuple may
// declare. The set is fixed and bijective with a Go type: widening the set
// requires updating String, ParseFieldType, Assignable, and every
// persistence-gateway column mapping in lockstep.
type FieldType uint8

const (
	Text FieldType = iota
	Bool
	Int
	Float
	Date
	Time
	Timestamp
	Interval
)

func (t FieldType) String() string {
	switch t {
	case Text:
		return "text"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case Date:
		return "date"
	case Time:
		return "time"
	case Timestamp:
		return "timestamp"
	case Interval:
		return "interval"
	default:
		return fmt.Sprintf("fieldtype(%d)", uint8(t))
	}
}

// ParseFieldType maps a wire-format type name to a FieldType. Used when
// decoding templates and resource class descriptors, where types arrive as
// strings.
func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "text":
		return Text, nil
	case "bool":
		return Bool, nil
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	case "date":
		return Date, nil
	case "time":
		return Time, nil
	case "timestamp":
		return Timestamp, nil
	case "interval":
		return Interval, nil
	default:
		return 0, fmt.Errorf("wire: unknown field type %q", s)
	}
}

// Field is a (name, type) pair. Every endpoint declares a returns tuple of
// Fields; every Resource class declares its CONSTANT and VARIABLE fields
// this way too.
type Field struct {
	Name string
	Type FieldType
}

// Assignable reports whether a decoded Go value's dynamic type matches the
// field's declared FieldType. Neither the pipeline nor Resource construction
// calls it; records are not checked against the returns tuple.
func (f Field) Assignable(v any) bool {
	if v == nil {
		return true
	}
	switch f.Type {
	case Text:
		_, ok := v.(string)
		return ok
	case Bool:
		_, ok := v.(bool)
		return ok
	case Int:
		switch v.(type) {
		case int, int32, int64:
			return true
		}
		return false
	case Float:
		switch v.(type) {
		case float32, float64:
			return true
		}
		return false
	case Date, Time, Timestamp:
		_, ok := v.(DateTime)
		return ok
	case Interval:
		_, ok := v.(Duration)
		return ok
	default:
		return false
	}
}
