package harness

import (
	"github.com/roach88/proofcheck/internal/verify"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success: every expectation matched.
	// It is unrelated to whether the artifact itself passed verification.
	Pass bool `json:"pass"`

	// Report is the verification report the expectations ran against.
	Report *verify.Report `json:"report"`

	// Transcript is the rendered text transcript, empty on load failure.
	Transcript string `json:"transcript,omitempty"`

	// LoadError holds the load-phase error message, if any.
	LoadError string `json:"load_error,omitempty"`

	// Errors contains expectation mismatch messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
