package schema

import (
	"github.com/roach88/proofcheck/internal/proof"
)

// requiredSections is the minimal key set the fallback strategy enforces.
var requiredSections = []string{
	proof.KeyInvariants,
	proof.KeyPsiReplay,
	proof.KeyCoherence,
	proof.KeyStability,
	proof.KeyPerformance,
}

// FallbackValidator checks presence of the required sections plus the shape
// of invariants. Nested types elsewhere are left to the checkers.
type FallbackValidator struct{}

// NewFallbackValidator returns the fallback strategy.
func NewFallbackValidator() *FallbackValidator {
	return &FallbackValidator{}
}

// Mode implements Validator.
func (FallbackValidator) Mode() Mode {
	return ModeFallback
}

// Validate implements Validator.
func (FallbackValidator) Validate(doc proof.Document) error {
	var issues []Issue
	missing := func(path ...string) {
		issues = append(issues, Issue{Path: proof.PathString(path...), Message: "required field is missing", Code: ErrCodeMissing})
	}

	for _, key := range requiredSections {
		if !doc.Has(key) {
			missing(key)
		}
	}

	if doc.Has(proof.KeyInvariants) {
		if _, ok := doc.Object(proof.KeyInvariants); !ok {
			issues = append(issues, Issue{Path: proof.PathString(proof.KeyInvariants), Message: "must be an object", Code: ErrCodeType})
		} else {
			if !doc.Has(proof.KeyInvariants, "H0") {
				missing(proof.KeyInvariants, "H0")
			}
			if !doc.Has(proof.KeyInvariants, "H_series") {
				missing(proof.KeyInvariants, "H_series")
			} else if _, ok := doc.Array(proof.KeyInvariants, "H_series"); !ok {
				issues = append(issues, Issue{Path: proof.PathString(proof.KeyInvariants, "H_series"), Message: "must be an array", Code: ErrCodeType})
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	sortIssues(issues)
	return &Violation{Mode: ModeFallback, Issues: issues}
}
