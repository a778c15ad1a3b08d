package check

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/roach88/proofcheck/internal/proof"
)

func properties(t *testing.T) *gopter.Properties {
	t.Helper()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	return gopter.NewProperties(parameters)
}

// Property: delta_H_max <= 1e-12 passes, anything above fails.
func TestConservationThresholdProperty(t *testing.T) {
	props := properties(t)

	props.Property("values within the bound pass", prop.ForAll(
		func(dh float64) bool {
			doc := proof.Document{"conservation": map[string]any{"delta_H_max": dh}}
			return Conservation{}.Check(doc).Passed
		},
		gen.Float64Range(0, ConservationThreshold),
	))

	props.Property("values above the bound fail", prop.ForAll(
		func(excess float64) bool {
			doc := proof.Document{"conservation": map[string]any{"delta_H_max": ConservationThreshold + excess}}
			return !Conservation{}.Check(doc).Passed
		},
		gen.Float64Range(1e-20, 1e6),
	))

	props.TestingRun(t)
}

// Property: lambda < 0 passes, lambda >= 0 fails.
func TestStabilitySignProperty(t *testing.T) {
	props := properties(t)

	props.Property("stability passes iff lambda is negative", prop.ForAll(
		func(lambda float64) bool {
			doc := proof.Document{"stability": map[string]any{"lyapunov_estimate": lambda}}
			return Stability{}.Check(doc).Passed == (lambda < 0)
		},
		gen.Float64Range(-1e3, 1e3),
	))

	props.TestingRun(t)
}

// Property: the chain passes iff both genesis and tip are non-empty.
func TestHashChainPresenceProperty(t *testing.T) {
	props := properties(t)

	props.Property("integrity passes iff genesis and tip are non-empty", prop.ForAll(
		func(genesis, tip string, hasGenesis, hasTip bool) bool {
			chain := map[string]any{}
			if hasGenesis {
				chain["genesis"] = genesis
			}
			if hasTip {
				chain["tip"] = tip
			}
			want := hasGenesis && hasTip && genesis != "" && tip != ""
			return HashChain{}.Check(proof.Document{"hash_chain": chain}).Passed == want
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.Bool(),
		gen.Bool(),
	))

	props.TestingRun(t)
}

// Property: the aggregate passes iff all four checks pass, and all four are
// always reported.
func TestAggregateProperty(t *testing.T) {
	props := properties(t)

	props.Property("aggregate is the AND of the four outcomes", prop.ForAll(
		func(dh, lambda float64, tipPresent, deterministic bool) bool {
			chain := map[string]any{"genesis": "aa11"}
			if tipPresent {
				chain["tip"] = "bb22"
			}
			doc := proof.Document{
				"conservation": map[string]any{"delta_H_max": dh},
				"stability":    map[string]any{"lyapunov_estimate": lambda},
				"hash_chain":   chain,
				"performance":  map[string]any{"deterministic": deterministic},
			}

			results := Run(doc, Default())
			if len(results) != 4 {
				return false
			}
			want := dh <= ConservationThreshold && lambda < 0 && tipPresent && deterministic
			return AllPassed(results) == want
		},
		gen.Float64Range(0, 2e-12),
		gen.Float64Range(-1, 1),
		gen.Bool(),
		gen.Bool(),
	))

	props.TestingRun(t)
}

// Property: a constant energy series is always consistent with any
// non-negative reported drift.
func TestConsistencyConstantSeriesProperty(t *testing.T) {
	props := properties(t)

	props.Property("constant series never violates", prop.ForAll(
		func(h0, dh float64, n int) bool {
			series := make([]any, n)
			for i := range series {
				series[i] = h0
			}
			doc := proof.Document{
				"conservation": map[string]any{"delta_H_max": dh},
				"invariants":   map[string]any{"H0": h0, "H_series": series},
			}
			return Consistency{}.Check(doc).Passed
		},
		gen.Float64Range(0.5, 1e6),
		gen.Float64Range(0, 1e-12),
		gen.IntRange(0, 50),
	))

	props.TestingRun(t)
}
