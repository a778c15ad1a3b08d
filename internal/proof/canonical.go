package proof

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
	"golang.org/x/text/unicode/norm"
)

// CanonicalJSON produces the RFC 8785 canonical form of a document.
//
// Strings (keys and values) are NFC normalized before canonicalization so
// that visually identical producer identifiers hash identically. Numbers are
// re-serialized in the ECMAScript form mandated by RFC 8785, so 1e-13,
// 1.0e-13 and 0.0000000000001 canonicalize alike.
func CanonicalJSON(doc Document) ([]byte, error) {
	normalized, err := normalizeValue(map[string]any(doc))
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return canonical, nil
}

// normalizeValue returns a copy of v with every string NFC normalized.
func normalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return norm.NFC.String(val), nil
	case Document:
		return normalizeValue(map[string]any(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			key := norm.NFC.String(k)
			if _, dup := out[key]; dup {
				return nil, fmt.Errorf("object key %q collides after NFC normalization", key)
			}
			n, err := normalizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[key] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := normalizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}
