package check

import (
	"fmt"
	"strings"

	"github.com/roach88/proofcheck/internal/proof"
)

// ConservationThreshold is the machine-precision bound on reported energy
// drift. It is fixed and inclusive.
const ConservationThreshold = 1e-12

// tipPreview is how many characters of the chain tip are echoed.
const tipPreview = 8

// Conservation passes iff conservation.delta_H_max <= ConservationThreshold.
// The reported scalar is trusted; see Consistency for the recomputing check.
type Conservation struct{}

func (Conservation) Name() string { return NameConservation }

func (Conservation) Check(doc proof.Document) Result {
	path := proof.PathString(proof.KeyConservation, "delta_H_max")
	raw, ok := doc.Lookup(proof.KeyConservation, "delta_H_max")
	if !ok {
		return fail(NameConservation, "Conservation unverifiable: delta_H_max missing",
			&ThresholdViolation{Check: NameConservation, Path: path, Observed: "missing", Required: "≤ 1e-12"})
	}
	dh, ok := proof.Float(raw)
	if !ok {
		return fail(NameConservation, "Conservation unverifiable: delta_H_max is not a number",
			&ThresholdViolation{Check: NameConservation, Path: path, Observed: fmt.Sprint(raw), Required: "≤ 1e-12"})
	}

	if dh > ConservationThreshold {
		return fail(NameConservation, fmt.Sprintf("Conservation violated: ΔH = %.2e > 1e-12", dh),
			&ThresholdViolation{Check: NameConservation, Path: path, Observed: fmt.Sprintf("%.2e", dh), Required: "≤ 1e-12"})
	}
	return pass(NameConservation, fmt.Sprintf("Conservation verified: ΔH = %.2e ≤ 1e-12", dh))
}

// Stability passes iff stability.lyapunov_estimate < 0.
type Stability struct{}

func (Stability) Name() string { return NameStability }

func (Stability) Check(doc proof.Document) Result {
	path := proof.PathString(proof.KeyStability, "lyapunov_estimate")
	raw, ok := doc.Lookup(proof.KeyStability, "lyapunov_estimate")
	if !ok {
		return fail(NameStability, "Stability unverifiable: lyapunov_estimate missing",
			&ThresholdViolation{Check: NameStability, Path: path, Observed: "missing", Required: "< 0"})
	}
	lambda, ok := proof.Float(raw)
	if !ok {
		return fail(NameStability, "Stability unverifiable: lyapunov_estimate is not a number",
			&ThresholdViolation{Check: NameStability, Path: path, Observed: fmt.Sprint(raw), Required: "< 0"})
	}

	if lambda >= 0 {
		return fail(NameStability, fmt.Sprintf("System unstable: λ = %.2e ≥ 0", lambda),
			&ThresholdViolation{Check: NameStability, Path: path, Observed: fmt.Sprintf("%.2e", lambda), Required: "< 0"})
	}
	return pass(NameStability, fmt.Sprintf("Stability verified: λ = %.2e < 0", lambda))
}

// HashChain passes iff hash_chain.genesis and hash_chain.tip are non-empty
// strings. No link is recomputed. A present but non-string digest, such as an
// unquoted all-digit YAML scalar, is reported as not a string.
type HashChain struct{}

func (HashChain) Name() string { return NameHashChain }

func (HashChain) Check(doc proof.Document) Result {
	var missing, mistyped []string
	fields := make(map[string]string, 2)
	for _, field := range []string{"genesis", "tip"} {
		v, ok := doc.Lookup(proof.KeyHashChain, field)
		if !ok || v == "" {
			missing = append(missing, field)
			continue
		}
		s, ok := v.(string)
		if !ok {
			mistyped = append(mistyped, field)
			continue
		}
		fields[field] = s
	}

	if len(missing) > 0 || len(mistyped) > 0 {
		var problems []string
		first, observed := "", ""
		if len(missing) > 0 {
			problems = append(problems, "missing "+strings.Join(missing, ", "))
			first, observed = missing[0], "missing"
		}
		if len(mistyped) > 0 {
			problems = append(problems, strings.Join(mistyped, ", ")+" not a string")
			if first == "" {
				first, observed = mistyped[0], "not a string"
			}
		}
		return fail(NameHashChain, "Hash chain incomplete: "+strings.Join(problems, "; "),
			&ThresholdViolation{
				Check:    NameHashChain,
				Path:     proof.PathString(proof.KeyHashChain, first),
				Observed: observed,
				Required: "non-empty genesis and tip",
			})
	}

	tip := fields["tip"]
	if len(tip) > tipPreview {
		tip = tip[:tipPreview]
	}
	msg := fmt.Sprintf("Hash chain present: %s...", tip)
	if links, ok := doc.Array(proof.KeyHashChain, "links"); ok {
		msg += fmt.Sprintf(" (%d links reported)", len(links))
	}
	return pass(NameHashChain, msg)
}

// Determinism passes iff performance.deterministic is boolean true.
// Absent and non-boolean values fail.
type Determinism struct{}

func (Determinism) Name() string { return NameDeterminism }

func (Determinism) Check(doc proof.Document) Result {
	if v, ok := doc.Bool(proof.KeyPerformance, "deterministic"); ok && v {
		return pass(NameDeterminism, "Deterministic execution confirmed")
	}

	var observed string
	if raw, ok := doc.Lookup(proof.KeyPerformance, "deterministic"); !ok {
		observed = "missing"
	} else {
		observed = fmt.Sprint(raw)
	}
	return fail(NameDeterminism, "Non-deterministic execution",
		&ThresholdViolation{
			Check:    NameDeterminism,
			Path:     proof.PathString(proof.KeyPerformance, "deterministic"),
			Observed: observed,
			Required: "true",
		})
}
