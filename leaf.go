package verdict

import "reflect"

// LeafRule is a single pure check over a target value. The predicate must
// not mutate the target and must tolerate a nil target without raising;
// absence is itself a condition many leaf rules test for.
type LeafRule struct {
	base
	predicate func(target any) bool
}

// NewLeaf builds a leaf rule from a caller-supplied predicate. The built-in
// families below cover the common checks; NewLeaf is the escape hatch for
// domain-specific ones.
func NewLeaf(name, message string, target any, predicate func(any) bool, opts ...Option) *LeafRule {
	return &LeafRule{
		base:      newBase(name, message, target, opts...),
		predicate: predicate,
	}
}

// Evaluate runs the predicate and records the outcome. Violations are
// results, never errors; a predicate that panics is a configuration defect
// and is surfaced by Context.Render instead.
func (r *LeafRule) Evaluate() (*Result, error) {
	return newResult(r, r.predicate(r.target)), nil
}

// NotNil passes when the target is present (not nil, including typed nils).
func NotNil(name, message string, target any, opts ...Option) *LeafRule {
	return NewLeaf(name, message, target, func(v any) bool {
		return !isNil(v)
	}, opts...)
}

// IsTrue passes when the target is the boolean true.
func IsTrue(name, message string, target any, opts ...Option) *LeafRule {
	return NewLeaf(name, message, target, func(v any) bool {
		b, ok := v.(bool)
		return ok && b
	}, opts...)
}

// IsFalse passes when the target is the boolean false.
func IsFalse(name, message string, target any, opts ...Option) *LeafRule {
	return NewLeaf(name, message, target, func(v any) bool {
		b, ok := v.(bool)
		return ok && !b
	}, opts...)
}

// Min passes when the target is numeric and >= bound. Absent or
// non-numeric targets fail closed.
func Min(name, message string, target any, bound float64, opts ...Option) *LeafRule {
	return NewLeaf(name, message, target, func(v any) bool {
		n, ok := numeric(v)
		return ok && n >= bound
	}, opts...)
}

// Max passes when the target is numeric and <= bound. Absent or
// non-numeric targets fail closed.
func Max(name, message string, target any, bound float64, opts ...Option) *LeafRule {
	return NewLeaf(name, message, target, func(v any) bool {
		n, ok := numeric(v)
		return ok && n <= bound
	}, opts...)
}

// Equals passes when the target equals want. Numeric values compare by
// value across types, so an int 5 equals a JSON-decoded float64 5.
func Equals(name, message string, target, want any, opts ...Option) *LeafRule {
	return NewLeaf(name, message, target, func(v any) bool {
		return equal(v, want)
	}, opts...)
}

// NotEquals passes when the target differs from want.
func NotEquals(name, message string, target, want any, opts ...Option) *LeafRule {
	return NewLeaf(name, message, target, func(v any) bool {
		return !equal(v, want)
	}, opts...)
}

// MinLength passes when the target is a string of at least min characters
// (inclusive). Absent or non-string targets fail closed.
func MinLength(name, message string, target any, min int, opts ...Option) *LeafRule {
	return NewLeaf(name, message, target, func(v any) bool {
		s, ok := v.(string)
		return ok && len(s) >= min
	}, opts...)
}

// MaxLength passes when the target is a string of at most max characters
// (inclusive). Absent or non-string targets fail closed.
func MaxLength(name, message string, target any, max int, opts ...Option) *LeafRule {
	return NewLeaf(name, message, target, func(v any) bool {
		s, ok := v.(string)
		return ok && len(s) <= max
	}, opts...)
}

// Length passes when the target is a string whose length is within
// [min, max] inclusive.
func Length(name, message string, target any, min, max int, opts ...Option) *LeafRule {
	return NewLeaf(name, message, target, func(v any) bool {
		s, ok := v.(string)
		return ok && len(s) >= min && len(s) <= max
	}, opts...)
}

// isNil reports absence, covering both untyped nil and typed nil values
// hiding behind an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// numeric widens any Go numeric type to float64. JSON-decoded documents
// carry float64, domain structs carry ints; bound checks accept both.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func equal(a, b any) bool {
	if na, ok := numeric(a); ok {
		if nb, ok := numeric(b); ok {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
