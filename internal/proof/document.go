package proof

import (
	"encoding/json"
	"math"
	"strings"
)

// Document is a parsed artifact exactly as the decoder produced it.
// Objects are map[string]any, arrays []any and numbers json.Number; no other
// coercion is applied. Accessors never mutate the document.
type Document map[string]any

// Top-level keys of a canonical proof.
const (
	KeyEngine       = "engine"
	KeySteps        = "steps"
	KeyTopology     = "topology"
	KeyConservation = "conservation"
	KeyStability    = "stability"
	KeyHashChain    = "hash_chain"
	KeyPerformance  = "performance"
	KeyInvariants   = "invariants"
	KeyPsiReplay    = "psi_replay"
	KeyCoherence    = "coherence"
)

// Lookup walks nested objects along path and returns the value found.
func (d Document) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(d)
	for _, key := range path {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether a value exists at path.
func (d Document) Has(path ...string) bool {
	_, ok := d.Lookup(path...)
	return ok
}

// Number returns the finite numeric value at path.
func (d Document) Number(path ...string) (float64, bool) {
	v, ok := d.Lookup(path...)
	if !ok {
		return 0, false
	}
	return Float(v)
}

// String returns the string value at path.
func (d Document) String(path ...string) (string, bool) {
	v, ok := d.Lookup(path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the boolean value at path. Non-boolean values report ok=false.
func (d Document) Bool(path ...string) (value bool, ok bool) {
	v, found := d.Lookup(path...)
	if !found {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Array returns the array value at path.
func (d Document) Array(path ...string) ([]any, bool) {
	v, ok := d.Lookup(path...)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	return arr, ok
}

// Object returns the object value at path.
func (d Document) Object(path ...string) (map[string]any, bool) {
	v, ok := d.Lookup(path...)
	if !ok {
		return nil, false
	}
	return asObject(v)
}

// Float converts a decoded JSON number to float64.
// Non-finite and out-of-range values are rejected.
func Float(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Floats converts an array of decoded numbers. It fails on the first
// non-numeric element and reports its index.
func Floats(arr []any) ([]float64, int, bool) {
	out := make([]float64, len(arr))
	for i, v := range arr {
		f, ok := Float(v)
		if !ok {
			return nil, i, false
		}
		out[i] = f
	}
	return out, -1, true
}

// PathString renders a key path as a JSON pointer, e.g. "/invariants/H0".
func PathString(path ...string) string {
	if len(path) == 0 {
		return "/"
	}
	escaped := make([]string, len(path))
	for i, p := range path {
		p = strings.ReplaceAll(p, "~", "~0")
		escaped[i] = strings.ReplaceAll(p, "/", "~1")
	}
	return "/" + strings.Join(escaped, "/")
}

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case Document:
		return obj, true
	default:
		return nil, false
	}
}
