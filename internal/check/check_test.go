package check

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/proofcheck/internal/loader"
	"github.com/roach88/proofcheck/internal/proof"
	"github.com/roach88/proofcheck/internal/testutil"
)

func TestConservation(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		passed  bool
		message string
	}{
		{"well below threshold", 1e-13, true, "Conservation verified: ΔH = 1.00e-13 ≤ 1e-12"},
		{"exactly at threshold", 1e-12, true, "Conservation verified: ΔH = 1.00e-12 ≤ 1e-12"},
		{"zero drift", 0.0, true, "Conservation verified: ΔH = 0.00e+00 ≤ 1e-12"},
		{"above threshold", 5e-10, false, "Conservation violated: ΔH = 5.00e-10 > 1e-12"},
		{"json number", json.Number("1e-13"), true, "Conservation verified: ΔH = 1.00e-13 ≤ 1e-12"},
		{"not a number", "1e-13", false, "Conservation unverifiable: delta_H_max is not a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := proof.Document{"conservation": map[string]any{"delta_H_max": tt.value}}

			r := Conservation{}.Check(doc)

			assert.Equal(t, NameConservation, r.Name)
			assert.Equal(t, tt.passed, r.Passed)
			assert.Equal(t, tt.message, r.Message)
			if tt.passed {
				assert.NoError(t, r.Err)
			} else {
				assert.True(t, IsThresholdViolation(r.Err))
			}
		})
	}
}

func TestConservation_Missing(t *testing.T) {
	r := Conservation{}.Check(proof.Document{})

	assert.False(t, r.Passed)
	assert.Equal(t, "Conservation unverifiable: delta_H_max missing", r.Message)

	var tv *ThresholdViolation
	require.ErrorAs(t, r.Err, &tv)
	assert.Equal(t, "/conservation/delta_H_max", tv.Path)
	assert.Equal(t, "missing", tv.Observed)
}

func TestConservation_JustAboveThreshold(t *testing.T) {
	above := math.Nextafter(ConservationThreshold, 1)
	r := Conservation{}.Check(proof.Document{"conservation": map[string]any{"delta_H_max": above}})
	assert.False(t, r.Passed)
}

func TestStability(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		passed  bool
		message string
	}{
		{"negative", -0.05, true, "Stability verified: λ = -5.00e-02 < 0"},
		{"tiny negative", -1e-300, true, "Stability verified: λ = -1.00e-300 < 0"},
		{"zero is unstable", 0.0, false, "System unstable: λ = 0.00e+00 ≥ 0"},
		{"positive", 0.3, false, "System unstable: λ = 3.00e-01 ≥ 0"},
		{"string", "-0.05", false, "Stability unverifiable: lyapunov_estimate is not a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := proof.Document{"stability": map[string]any{"lyapunov_estimate": tt.value}}

			r := Stability{}.Check(doc)

			assert.Equal(t, tt.passed, r.Passed)
			assert.Equal(t, tt.message, r.Message)
		})
	}
}

func TestStability_Missing(t *testing.T) {
	r := Stability{}.Check(proof.Document{"stability": map[string]any{}})
	assert.False(t, r.Passed)
	assert.Equal(t, "Stability unverifiable: lyapunov_estimate missing", r.Message)
}

func TestHashChain(t *testing.T) {
	tests := []struct {
		name    string
		chain   any
		passed  bool
		message string
	}{
		{"both present", map[string]any{"genesis": "aa11", "tip": "bb22"}, true, "Hash chain present: bb22..."},
		{"long tip truncated", map[string]any{"genesis": "aa11", "tip": "0123456789abcdef"}, true, "Hash chain present: 01234567..."},
		{"links counted", map[string]any{"genesis": "aa11", "tip": "bb22", "links": []any{"c1", "c2"}}, true, "Hash chain present: bb22... (2 links reported)"},
		{"missing tip", map[string]any{"genesis": "aa11"}, false, "Hash chain incomplete: missing tip"},
		{"missing genesis", map[string]any{"tip": "bb22"}, false, "Hash chain incomplete: missing genesis"},
		{"empty tip", map[string]any{"genesis": "aa11", "tip": ""}, false, "Hash chain incomplete: missing tip"},
		{"both missing", map[string]any{}, false, "Hash chain incomplete: missing genesis, tip"},
		{"non-string tip", map[string]any{"genesis": "aa11", "tip": 42}, false, "Hash chain incomplete: tip not a string"},
		{"missing and non-string", map[string]any{"tip": json.Number("12345678")}, false, "Hash chain incomplete: missing genesis; tip not a string"},
		{"section absent", nil, false, "Hash chain incomplete: missing genesis, tip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := proof.Document{}
			if tt.chain != nil {
				doc["hash_chain"] = tt.chain
			}

			r := HashChain{}.Check(doc)

			assert.Equal(t, tt.passed, r.Passed)
			assert.Equal(t, tt.message, r.Message)
		})
	}
}

// Unquoted all-digit YAML digests decode as numbers; the field is present
// but mistyped.
func TestHashChain_UnquotedYAMLDigest(t *testing.T) {
	a, err := loader.Parse("proof.yaml", []byte("hash_chain:\n  genesis: 1e10\n  tip: 12345678\n"))
	require.NoError(t, err)

	r := HashChain{}.Check(a.Doc)

	assert.False(t, r.Passed)
	assert.Equal(t, "Hash chain incomplete: genesis, tip not a string", r.Message)
	var tv *ThresholdViolation
	require.ErrorAs(t, r.Err, &tv)
	assert.Equal(t, "/hash_chain/genesis", tv.Path)
	assert.Equal(t, "not a string", tv.Observed)
}

// The checker does not recompute links: a tip unrelated to genesis passes.
func TestHashChain_StructuralOnly(t *testing.T) {
	doc := proof.Document{"hash_chain": map[string]any{
		"genesis": "aa11",
		"tip":     "not-a-digest-of-anything",
		"links":   []any{"unrelated"},
	}}
	assert.True(t, HashChain{}.Check(doc).Passed)
}

func TestDeterminism(t *testing.T) {
	tests := []struct {
		name     string
		perf     map[string]any
		passed   bool
		observed string
	}{
		{"true", map[string]any{"deterministic": true}, true, ""},
		{"false", map[string]any{"deterministic": false}, false, "false"},
		{"absent", map[string]any{}, false, "missing"},
		{"truthy string", map[string]any{"deterministic": "true"}, false, "true"},
		{"one", map[string]any{"deterministic": json.Number("1")}, false, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Determinism{}.Check(proof.Document{"performance": tt.perf})

			assert.Equal(t, tt.passed, r.Passed)
			if tt.passed {
				assert.Equal(t, "Deterministic execution confirmed", r.Message)
				return
			}
			assert.Equal(t, "Non-deterministic execution", r.Message)
			var tv *ThresholdViolation
			require.ErrorAs(t, r.Err, &tv)
			assert.Equal(t, tt.observed, tv.Observed)
		})
	}
}

func TestRun_AllCheckersRunDespiteFailures(t *testing.T) {
	doc := testutil.NewProof().
		Set("conservation.delta_H_max", 5e-10).
		Set("stability.lyapunov_estimate", 0.0).
		Delete("hash_chain.tip").
		Set("performance.deterministic", false).
		Document(t)

	results := Run(doc, Default())

	require.Len(t, results, 4)
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
		assert.False(t, r.Passed, r.Name)
		assert.Error(t, r.Err, r.Name)
	}
	assert.Equal(t, []string{NameConservation, NameStability, NameHashChain, NameDeterminism}, names)
	assert.False(t, AllPassed(results))
}

func TestRun_PassingProof(t *testing.T) {
	results := Run(testutil.NewProof().Document(t), Default())
	assert.True(t, AllPassed(results))
}

func TestAllPassed_Empty(t *testing.T) {
	assert.False(t, AllPassed(nil))
}

func TestThresholdViolation_Error(t *testing.T) {
	err := &ThresholdViolation{Check: NameConservation, Path: "/conservation/delta_H_max", Observed: "5.00e-10", Required: "≤ 1e-12"}
	assert.Equal(t, "conservation check failed: /conservation/delta_H_max = 5.00e-10, required ≤ 1e-12", err.Error())
}

func TestConsistency(t *testing.T) {
	tests := []struct {
		name     string
		doc      *testutil.ProofBuilder
		passed   bool
		message  string
		quantity string
	}{
		{
			name:    "constant series",
			doc:     testutil.NewProof(),
			passed:  true,
			message: "Consistency verified: recomputed ΔH = 0.00e+00 ≤ reported 1.00e-13",
		},
		{
			name: "drift matches report",
			doc: testutil.NewProof().
				Set("invariants.H_series", []any{2.0, 2.0 + 2e-13}).
				Set("invariants.H0", 2.0),
			passed: true,
		},
		{
			name: "series drifts more than reported",
			doc: testutil.NewProof().
				Set("invariants.H_series", []any{1.0, 1.001}),
			passed:   false,
			message:  "Consistency violated: recomputed ΔH = 1.00e-03 > reported 1.00e-13",
			quantity: "delta_H_max",
		},
		{
			name:    "empty series",
			doc:     testutil.NewProof().Set("invariants.H_series", []any{}),
			passed:  true,
			message: "Consistency verified: recomputed ΔH = 0.00e+00 ≤ reported 1.00e-13",
		},
		{
			name:    "zero baseline",
			doc:     testutil.NewProof().Set("invariants.H0", 0.0),
			passed:  false,
			message: "Consistency unverifiable: H0 is zero",
		},
		{
			name:    "missing delta_H_max",
			doc:     testutil.NewProof().Delete("conservation"),
			passed:  false,
			message: "Consistency unverifiable: delta_H_max missing",
		},
		{
			name:    "non-numeric sample",
			doc:     testutil.NewProof().Set("invariants.H_series", []any{1.0, "x"}),
			passed:  false,
			message: "Consistency unverifiable: H_series[1] is not a number",
		},
		{
			name:    "series not an array",
			doc:     testutil.NewProof().Set("invariants.H_series", "1.0"),
			passed:  false,
			message: "Consistency unverifiable: H_series is not an array",
		},
		{
			name:    "missing H0",
			doc:     testutil.NewProof().Delete("invariants.H0"),
			passed:  false,
			message: "Consistency unverifiable: H0 missing or not a number",
		},
		{
			name:    "exponent step count",
			doc:     testutil.NewProof().Set("steps", json.Number("1e6")),
			passed:  true,
			message: "Consistency verified: recomputed ΔH = 0.00e+00 ≤ reported 1.00e-13",
		},
		{
			name: "unrelated fields of unexpected shape",
			doc: testutil.NewProof().
				Set("psi_replay", map[string]any{"value": 0.0}).
				Set("performance.deterministic", "true").
				Set("hash_chain.links", 3),
			passed: true,
		},
		{
			name: "non-numeric R_final with phases",
			doc: testutil.NewProof().
				Set("coherence.phases", []any{0.0, 0.0}).
				Set("coherence.R_final", "high"),
			passed:  false,
			message: "Consistency unverifiable: R_final is not a number",
		},
		{
			name: "phases agree with R_final",
			doc: testutil.NewProof().
				Set("coherence.phases", []any{0.0, 0.0, 0.0}).
				Set("coherence.R_final", 1.0),
			passed:  true,
			message: "Consistency verified: recomputed ΔH = 0.00e+00 ≤ reported 1.00e-13, R_final matches 3 phases",
		},
		{
			name: "phases disagree with R_final",
			doc: testutil.NewProof().
				Set("coherence.phases", []any{0.0, math.Pi}).
				Set("coherence.R_final", 0.97),
			passed:   false,
			quantity: "R_final",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Consistency{}.Check(tt.doc.Document(t))

			assert.Equal(t, NameConsistency, r.Name)
			assert.Equal(t, tt.passed, r.Passed, r.Message)
			if tt.message != "" {
				assert.Equal(t, tt.message, r.Message)
			}
			if tt.quantity != "" {
				var cv *ConsistencyViolation
				require.ErrorAs(t, r.Err, &cv)
				assert.Equal(t, tt.quantity, cv.Quantity)
				assert.True(t, IsConsistencyViolation(r.Err))
			}
		})
	}
}

func TestConsistency_NotInDefault(t *testing.T) {
	for _, c := range Default() {
		assert.NotEqual(t, NameConsistency, c.Name())
	}
}
