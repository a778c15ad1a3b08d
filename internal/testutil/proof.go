package testutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/proofcheck/internal/proof"
)

// ProofBuilder assembles canonical proof fixtures.
//
// The zero modification is a complete, passing proof: every section the
// strict schema requires is present and every check passes. Tests then set
// or remove individual fields by dotted path, e.g.
//
//	doc := testutil.NewProof().Set("conservation.delta_H_max", 5e-10).Document(t)
type ProofBuilder struct {
	root map[string]any
}

// NewProof returns a builder preloaded with a passing proof.
func NewProof() *ProofBuilder {
	return &ProofBuilder{root: map[string]any{
		"engine":   "reference-engine",
		"steps":    1000000,
		"topology": "ring",
		"conservation": map[string]any{
			"delta_H_max": 1e-13,
		},
		"stability": map[string]any{
			"lyapunov_estimate": -0.05,
		},
		"hash_chain": map[string]any{
			"genesis": "aa11",
			"tip":     "bb22",
		},
		"performance": map[string]any{
			"deterministic":    true,
			"steps_per_second": 250000.0,
			"latency":          0.004,
		},
		"invariants": map[string]any{
			"H0":       1.0,
			"H_series": []any{1.0, 1.0, 1.0},
		},
		"psi_replay": 0.0,
		"coherence": map[string]any{
			"R_initial": 0.12,
			"R_final":   0.97,
		},
	}}
}

// Set assigns value at a dotted path, creating intermediate objects.
func (b *ProofBuilder) Set(path string, value any) *ProofBuilder {
	keys := strings.Split(path, ".")
	obj := b.root
	for _, k := range keys[:len(keys)-1] {
		next, ok := obj[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			obj[k] = next
		}
		obj = next
	}
	obj[keys[len(keys)-1]] = value
	return b
}

// Delete removes the value at a dotted path if present.
func (b *ProofBuilder) Delete(path string) *ProofBuilder {
	keys := strings.Split(path, ".")
	obj := b.root
	for _, k := range keys[:len(keys)-1] {
		next, ok := obj[k].(map[string]any)
		if !ok {
			return b
		}
		obj = next
	}
	delete(obj, keys[len(keys)-1])
	return b
}

// JSON serializes the proof.
func (b *ProofBuilder) JSON(t testing.TB) []byte {
	t.Helper()
	data, err := json.MarshalIndent(b.root, "", "  ")
	require.NoError(t, err)
	return data
}

// Document returns the proof as the loader would decode it, with json.Number
// numbers.
func (b *ProofBuilder) Document(t testing.TB) proof.Document {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(b.JSON(t)))
	dec.UseNumber()
	var doc map[string]any
	require.NoError(t, dec.Decode(&doc))
	return proof.Document(doc)
}

// WriteFile writes the proof as JSON into dir and returns its path.
func (b *ProofBuilder) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, b.JSON(t))
}
