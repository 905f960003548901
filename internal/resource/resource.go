// Package resource implements the immutable, validated parameter bundles
// ("Resources") that name an addressable unit at a vendor — a FRED series,
// an IBKR contract, an EDGAR CIK. Concrete resource types are plain Go
// structs defined by each vendor package; this package supplies the
// validating constructor, the canonical handle encoding, and the
// class registry used to decode a resource back out of its wire form.
package resource

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

var (
	validate      = validator.New()
	strictDecoder = schema.NewDecoder()
)

func init() {
	strictDecoder.IgnoreUnknownKeys(false)
}

// Resource is an immutable, validated parameter bundle. Concrete
// implementations are produced exclusively by New or Decode — there is no
// exported constructor that bypasses validation, which is how the source's
// "immutable after construction" invariant is enforced here: Go has no
// attribute-mutation hook to intercept, so the enforcement point moves to
// construction instead.
type Resource interface {
	// ClassName is the registered name this resource's Class was built
	// under, the left-hand side of the wire handle "<ClassName>$<handle>".
	ClassName() string
	// Handle is the canonical string built from the resource's VARIABLE
	// fields, per the Class's declared handle field order and separator.
	Handle() string
}

// Class describes one resource type: its concrete Go struct, which of that
// struct's fields participate in the handle, and any CONSTANT fields fixed
// for every instance of the class (not carried in the struct at all, since
// they never vary — e.g. a vendor that only ever deals in one asset class).
type Class struct {
	Name      string
	Type      reflect.Type // the concrete struct type, e.g. reflect.TypeOf(fred.Series{})
	Constant  map[string]any
	HandleSep string // defaults to "_" if empty
	// HandleFields names the VARIABLE fields, in encode/decode order, that
	// make up the canonical handle. Each must have a matching `schema`
	// struct tag on Type.
	HandleFields []string
}

func (c *Class) sep() string {
	if c.HandleSep == "" {
		return "_"
	}
	return c.HandleSep
}

type instance struct {
	class *Class
	value reflect.Value // addressable value of c.Type
}

func (r *instance) ClassName() string {
	return r.class.Name
}

func (r *instance) Handle() string {
	parts := make([]string, 0, len(r.class.HandleFields))
	fieldByTag := schemaFieldIndex(r.class.Type)
	for _, name := range r.class.HandleFields {
		idx, ok := fieldByTag[name]
		if !ok {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, fmt.Sprint(r.value.Field(idx).Interface()))
	}
	return strings.Join(parts, r.class.sep())
}

// Value returns the underlying concrete struct value (not a pointer),
// for callers (getters, formatters) that need the vendor-declared fields.
func (r *instance) Value() any {
	return r.value.Interface()
}

// registry maps a registered Class name to its descriptor. Populated at
// vendor-load time via Register; read by Decode.
var registry = map[string]*Class{}

// Register adds a Class to the package-level registry, keyed by its Name.
// Vendor packages call this from an init() alongside their getter
// registration, mirroring the teacher's package-init registration idiom.
func Register(class *Class) {
	registry[class.Name] = class
}

// Lookup returns a previously Registered Class by name.
func Lookup(name string) (*Class, bool) {
	c, ok := registry[name]
	return c, ok
}

// New validates fields against class and returns an immutable Resource.
// fields carries one entry per VARIABLE field the caller wants to set,
// keyed by the struct's `schema` tag name; any key not present in the
// Class's Type is rejected (no extraneous keys), any field whose struct
// tag carries `validate:"required"` must be present and non-zero, and any
// field absent from fields keeps its struct's zero value (which a vendor
// author sets as a literal default before calling New — see
// NewWithDefaults).
func New(class *Class, fields map[string]any) (Resource, error) {
	return newWithDefaults(class, nil, fields)
}

// NewWithDefaults behaves like New but first populates defaults (field name
// -> default value) onto the target struct before decoding fields over top,
// implementing the source's "(Field, required, default)" triple: a field
// present in defaults but absent from fields keeps its default rather than
// the Go zero value.
func NewWithDefaults(class *Class, defaults map[string]any, fields map[string]any) (Resource, error) {
	return newWithDefaults(class, defaults, fields)
}

func newWithDefaults(class *Class, defaults map[string]any, fields map[string]any) (Resource, error) {
	if class == nil || class.Type == nil {
		return nil, fmt.Errorf("resource: class is not fully specified")
	}
	ptr := reflect.New(class.Type)
	if err := applyDefaults(ptr, defaults); err != nil {
		return nil, err
	}

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, fmt.Sprint(v))
	}
	if err := strictDecoder.Decode(ptr.Interface(), values); err != nil {
		return nil, fmt.Errorf("resource: decoding %s: %w", class.Name, err)
	}

	if err := validate.Struct(ptr.Interface()); err != nil {
		return nil, fmt.Errorf("resource: validating %s: %w", class.Name, err)
	}

	return &instance{class: class, value: ptr.Elem()}, nil
}

func applyDefaults(ptr reflect.Value, defaults map[string]any) error {
	if len(defaults) == 0 {
		return nil
	}
	idx := schemaFieldIndex(ptr.Elem().Type())
	for name, def := range defaults {
		i, ok := idx[name]
		if !ok {
			return fmt.Errorf("resource: default given for unknown field %q", name)
		}
		field := ptr.Elem().Field(i)
		dv := reflect.ValueOf(def)
		if !dv.Type().AssignableTo(field.Type()) {
			return fmt.Errorf("resource: default for field %q has type %s, want %s", name, dv.Type(), field.Type())
		}
		field.Set(dv)
	}
	return nil
}

// Decode reifies a wire-encoded resource handle of the form
// "<ClassName>$<handle>" back into a Resource, looking up the Class in the
// registry and splitting the handle positionally per HandleFields.
func Decode(encoded string) (Resource, error) {
	name, handle, ok := strings.Cut(encoded, "$")
	if !ok {
		return nil, fmt.Errorf("resource: %q is not of the form <ClassName>$<handle>", encoded)
	}
	class, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("resource: unknown resource class %q", name)
	}
	parts := strings.Split(handle, class.sep())
	if len(parts) != len(class.HandleFields) {
		return nil, fmt.Errorf("resource: handle %q has %d parts, class %q expects %d",
			handle, len(parts), name, len(class.HandleFields))
	}
	fields := make(map[string]any, len(parts))
	for i, field := range class.HandleFields {
		fields[field] = parts[i]
	}
	return New(class, fields)
}

// Encode renders a Resource back into its wire form, the inverse of Decode.
func Encode(r Resource) string {
	return fmt.Sprintf("%s$%s", r.ClassName(), r.Handle())
}

func schemaFieldIndex(t reflect.Type) map[string]int {
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("schema")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		idx[name] = i
	}
	return idx
}
