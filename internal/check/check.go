// Package check implements the invariant checks run against a schema-valid
// canonical proof.
//
// Every checker is a stateless predicate over a proof.Document. Checkers
// never mutate the document and never depend on each other's outcome; the
// orchestrator runs all of them and ANDs the results.
//
// The hash-chain checker is structural only. It confirms that the producer
// reported a genesis and a tip; it does not re-derive any link and offers
// no tamper detection beyond field presence.
package check

import (
	"errors"
	"fmt"

	"github.com/roach88/proofcheck/internal/proof"
)

// Check names, in the order Default runs them.
const (
	NameConservation = "conservation"
	NameStability    = "stability"
	NameHashChain    = "hash_chain"
	NameDeterminism  = "determinism"
	NameConsistency  = "consistency"
)

// Result is the outcome of one checker.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	// Err is nil on success, otherwise a *ThresholdViolation or
	// *ConsistencyViolation carrying the observed and required values.
	Err error `json:"-"`
}

// Checker is one invariant predicate.
type Checker interface {
	Name() string
	Check(doc proof.Document) Result
}

// Default returns the four invariant checkers in report order.
func Default() []Checker {
	return []Checker{
		Conservation{},
		Stability{},
		HashChain{},
		Determinism{},
	}
}

// Run applies every checker to doc. All checkers run regardless of earlier
// failures.
func Run(doc proof.Document, checkers []Checker) []Result {
	results := make([]Result, 0, len(checkers))
	for _, c := range checkers {
		results = append(results, c.Check(doc))
	}
	return results
}

// AllPassed reports whether every result passed. An empty slice does not pass.
func AllPassed(results []Result) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// ThresholdViolation reports that a reported value failed its check.
type ThresholdViolation struct {
	Check    string
	Path     string // JSON pointer of the offending field
	Observed string
	Required string
}

func (e *ThresholdViolation) Error() string {
	return fmt.Sprintf("%s check failed: %s = %s, required %s", e.Check, e.Path, e.Observed, e.Required)
}

// ConsistencyViolation reports that a reported scalar disagrees with the
// value recomputed from the document's own samples.
type ConsistencyViolation struct {
	Quantity   string
	Reported   float64
	Recomputed float64
	Tolerance  float64
}

func (e *ConsistencyViolation) Error() string {
	return fmt.Sprintf("%s inconsistent: reported %.6e, recomputed %.6e (tolerance %.0e)",
		e.Quantity, e.Reported, e.Recomputed, e.Tolerance)
}

// IsThresholdViolation returns true if err is or wraps a *ThresholdViolation.
func IsThresholdViolation(err error) bool {
	var tv *ThresholdViolation
	return errors.As(err, &tv)
}

// IsConsistencyViolation returns true if err is or wraps a *ConsistencyViolation.
func IsConsistencyViolation(err error) bool {
	var cv *ConsistencyViolation
	return errors.As(err, &cv)
}

func pass(name, msg string) Result {
	return Result{Name: name, Passed: true, Message: msg}
}

func fail(name, msg string, err error) Result {
	return Result{Name: name, Passed: false, Message: msg, Err: err}
}
