package testutil

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofBuilder_DefaultIsComplete(t *testing.T) {
	doc := NewProof().Document(t)

	for _, key := range []string{"invariants", "psi_replay", "coherence", "stability", "performance", "hash_chain", "conservation"} {
		assert.True(t, doc.Has(key), "missing %s", key)
	}

	v, ok := doc.Lookup("conservation", "delta_H_max")
	require.True(t, ok)
	assert.IsType(t, json.Number(""), v, "numbers decode as json.Number")
}

func TestProofBuilder_SetAndDelete(t *testing.T) {
	doc := NewProof().
		Set("stability.lyapunov_estimate", 0.0).
		Set("extra.nested.value", "x").
		Delete("hash_chain.tip").
		Document(t)

	lambda, ok := doc.Number("stability", "lyapunov_estimate")
	require.True(t, ok)
	assert.Equal(t, 0.0, lambda)

	s, ok := doc.String("extra", "nested", "value")
	require.True(t, ok)
	assert.Equal(t, "x", s)

	assert.False(t, doc.Has("hash_chain", "tip"))
	assert.True(t, doc.Has("hash_chain", "genesis"))
}

func TestProofBuilder_BuildersAreIndependent(t *testing.T) {
	a := NewProof().Delete("stability")
	b := NewProof()

	assert.False(t, a.Document(t).Has("stability"))
	assert.True(t, b.Document(t).Has("stability"))
}

func TestProofBuilder_WriteFile(t *testing.T) {
	path := NewProof().WriteFile(t, t.TempDir(), "sub/proof.json")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"delta_H_max"`)
}
