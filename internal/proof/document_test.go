package proof

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(t *testing.T, src string) Document {
	t.Helper()
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(src), &doc))
	return doc
}

func TestLookupNested(t *testing.T) {
	doc := testDocument(t, `{"hash_chain": {"genesis": "aa11", "tip": "bb22"}}`)

	v, ok := doc.Lookup("hash_chain", "tip")
	require.True(t, ok)
	assert.Equal(t, "bb22", v)

	_, ok = doc.Lookup("hash_chain", "links")
	assert.False(t, ok)

	_, ok = doc.Lookup("hash_chain", "tip", "deeper")
	assert.False(t, ok, "cannot descend into a string")
}

func TestNumberAcceptsDecoderTypes(t *testing.T) {
	doc := Document{
		"a": json.Number("1e-13"),
		"b": float64(2.5),
		"c": 3,
		"d": int64(4),
		"e": "5",
	}

	for key, want := range map[string]float64{"a": 1e-13, "b": 2.5, "c": 3, "d": 4} {
		got, ok := doc.Number(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}

	_, ok := doc.Number("e")
	assert.False(t, ok, "strings are not numbers")
}

func TestFloatRejectsNonFinite(t *testing.T) {
	_, ok := Float(math.Inf(1))
	assert.False(t, ok)

	_, ok = Float(json.Number("1e400"))
	assert.False(t, ok, "out of range json.Number")
}

func TestBoolIsStrict(t *testing.T) {
	doc := Document{"yes": true, "str": "true", "num": json.Number("1")}

	v, ok := doc.Bool("yes")
	assert.True(t, ok)
	assert.True(t, v)

	_, ok = doc.Bool("str")
	assert.False(t, ok)
	_, ok = doc.Bool("num")
	assert.False(t, ok)
	_, ok = doc.Bool("missing")
	assert.False(t, ok)
}

func TestFloats(t *testing.T) {
	out, _, ok := Floats([]any{json.Number("1"), 2.0})
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, out)

	_, idx, ok := Floats([]any{json.Number("1"), "x"})
	assert.False(t, ok)
	assert.Equal(t, 1, idx)
}

func TestPathString(t *testing.T) {
	assert.Equal(t, "/", PathString())
	assert.Equal(t, "/invariants/H_series", PathString("invariants", "H_series"))
	assert.Equal(t, "/a~1b/c~0d", PathString("a/b", "c~d"))
}

func TestParseTopology(t *testing.T) {
	spec, ok := ParseTopology("ring")
	require.True(t, ok)
	assert.Equal(t, TopologySpec{Name: "ring"}, spec)

	spec, ok = ParseTopology(map[string]any{"name": "lattice", "params": map[string]any{"dim": 2}})
	require.True(t, ok)
	assert.Equal(t, "lattice", spec.Name)
	assert.Equal(t, map[string]any{"dim": 2}, spec.Params)

	for _, v := range []any{"", 3, nil, map[string]any{"params": map[string]any{}}, map[string]any{"name": 7}} {
		_, ok := ParseTopology(v)
		assert.False(t, ok, "%v", v)
	}
}
