package check

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/proofcheck/internal/proof"
)

// Tolerances for recomputed quantities.
const (
	DriftRelativeSlack = 1e-9
	DriftAbsoluteSlack = 1e-18
	CoherenceTolerance = 1e-9
)

// Consistency recomputes quantities the producer reported alongside their
// raw samples and fails when they disagree:
//
//   - max_i |H_i - H0| / |H0| over invariants.H_series must not exceed
//     conservation.delta_H_max (up to DriftRelativeSlack)
//   - when coherence.phases and coherence.R_final are both present, the
//     Kuramoto order parameter of the phases must match R_final
//
// It is opt-in and never part of Default.
type Consistency struct{}

func (Consistency) Name() string { return NameConsistency }

func (Consistency) Check(doc proof.Document) Result {
	if !doc.Has(proof.KeyConservation, "delta_H_max") {
		return unverifiable("delta_H_max missing")
	}
	reported, ok := doc.Number(proof.KeyConservation, "delta_H_max")
	if !ok {
		return unverifiable("delta_H_max is not a number")
	}
	h0, ok := doc.Number(proof.KeyInvariants, "H0")
	if !ok {
		return unverifiable("H0 missing or not a number")
	}
	var series []float64
	if doc.Has(proof.KeyInvariants, "H_series") {
		raw, ok := doc.Array(proof.KeyInvariants, "H_series")
		if !ok {
			return unverifiable("H_series is not an array")
		}
		var idx int
		if series, idx, ok = proof.Floats(raw); !ok {
			return unverifiable(fmt.Sprintf("H_series[%d] is not a number", idx))
		}
	}

	recomputed, err := proof.MaxRelativeDrift(h0, series)
	if errors.Is(err, proof.ErrZeroBaseline) {
		return unverifiable("H0 is zero")
	}
	if recomputed > reported*(1+DriftRelativeSlack)+DriftAbsoluteSlack {
		return fail(NameConsistency,
			fmt.Sprintf("Consistency violated: recomputed ΔH = %.2e > reported %.2e", recomputed, reported),
			&ConsistencyViolation{
				Quantity:   "delta_H_max",
				Reported:   reported,
				Recomputed: recomputed,
				Tolerance:  DriftRelativeSlack,
			})
	}
	msg := fmt.Sprintf("Consistency verified: recomputed ΔH = %.2e ≤ reported %.2e", recomputed, reported)

	rawPhases, _ := doc.Array(proof.KeyCoherence, "phases")
	if len(rawPhases) > 0 && doc.Has(proof.KeyCoherence, "R_final") {
		rFinal, ok := doc.Number(proof.KeyCoherence, "R_final")
		if !ok {
			return unverifiable("R_final is not a number")
		}
		phases, idx, ok := proof.Floats(rawPhases)
		if !ok {
			return unverifiable(fmt.Sprintf("phases[%d] is not a number", idx))
		}
		r := proof.OrderParameter(phases)
		if math.Abs(r-rFinal) > CoherenceTolerance {
			return fail(NameConsistency,
				fmt.Sprintf("Consistency violated: R_final = %.2e but phases give %.2e", rFinal, r),
				&ConsistencyViolation{
					Quantity:   "R_final",
					Reported:   rFinal,
					Recomputed: r,
					Tolerance:  CoherenceTolerance,
				})
		}
		msg += fmt.Sprintf(", R_final matches %d phases", len(phases))
	}

	return pass(NameConsistency, msg)
}

func unverifiable(reason string) Result {
	return fail(NameConsistency, "Consistency unverifiable: "+reason,
		&ThresholdViolation{
			Check:    NameConsistency,
			Path:     "/",
			Observed: reason,
			Required: "recomputable invariants",
		})
}
