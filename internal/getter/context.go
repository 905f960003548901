package getter

import "fmt"

// Context is the immutable, per-vendor configuration bag available to every
// getter: credentials, date format strings, HTTP headers, and so on.
// Derived values are computed once, at construction, from the static ones —
// there is no lazy re-evaluation and no mutation after NewContext returns.
type Context struct {
	static  map[string]any
	derived map[string]any
}

// DerivedFn computes one derived value from the Context's static values.
// The Context passed in already has every static value populated. Derived
// values are evaluated in map iteration order, which is not defined, so a
// derived function can rely only on static values.
type DerivedFn func(c *Context) (any, error)

// NewContext builds a frozen Context. derived functions are evaluated
// immediately, once each; their results are kept in a separate immutable
// map that Get checks before the static values, so callers read static and
// derived keys the same way.
func NewContext(static map[string]any, derived map[string]DerivedFn) (*Context, error) {
	c := &Context{static: map[string]any{}, derived: map[string]any{}}
	for k, v := range static {
		c.static[k] = v
	}
	for k, fn := range derived {
		v, err := fn(c)
		if err != nil {
			return nil, fmt.Errorf("getter: deriving context value %q: %w", k, err)
		}
		c.derived[k] = v
	}
	return c, nil
}

// Get returns a value by key, checking derived values first since a derived
// key is permitted to shadow a static one of the same name.
func (c *Context) Get(key string) (any, bool) {
	if v, ok := c.derived[key]; ok {
		return v, true
	}
	v, ok := c.static[key]
	return v, ok
}

// String returns a string-typed value, or "" if absent or not a string.
func (c *Context) String(key string) string {
	v, ok := c.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Headers returns a map[string]string-typed value, or nil if absent.
func (c *Context) Headers(key string) map[string]string {
	v, ok := c.Get(key)
	if !ok {
		return nil
	}
	h, _ := v.(map[string]string)
	return h
}
