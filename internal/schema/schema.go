// Package schema validates the shape of a canonical proof before any
// invariant check runs.
//
// A single Validator capability has three interchangeable strategies:
//
//   - strict: JSON Schema (proof.schema.json), the published description
//   - cue: the same description as a CUE definition (proof.cue)
//   - fallback: manual presence/type checks on the minimal key set
//
// Fallback is intentionally weaker. It accepts every document the strict
// strategies accept, plus documents whose top-level sections are present but
// whose nested types are wrong (e.g. a string lyapunov_estimate). Documents
// that pass fallback validation may still fail a checker for a type reason
// the strict strategies would have reported as a violation.
package schema

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/proofcheck/internal/logging"
	"github.com/roach88/proofcheck/internal/proof"
)

// Mode names a validation strategy.
type Mode string

const (
	ModeAuto     Mode = "auto" // strict when available, fallback otherwise
	ModeStrict   Mode = "strict"
	ModeCUE      Mode = "cue"
	ModeFallback Mode = "fallback"
)

// ValidModes lists the accepted --schema-mode values.
var ValidModes = []Mode{ModeAuto, ModeStrict, ModeCUE, ModeFallback}

// ParseMode converts a flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range ValidModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid schema mode %q: must be one of %v", s, ValidModes)
}

// Strict reports whether the mode validates against a formal description.
func (m Mode) Strict() bool {
	return m == ModeStrict || m == ModeCUE
}

// Validator confirms a parsed document is shaped correctly.
// Validate returns nil or a *Violation.
type Validator interface {
	Mode() Mode
	Validate(doc proof.Document) error
}

// Issue codes (E100-E199).
const (
	ErrCodeSchema     = "E100" // any other schema constraint
	ErrCodeMissing    = "E101" // required field absent
	ErrCodeType       = "E102" // field has the wrong type
	ErrCodeConstraint = "E103" // value outside the allowed range
)

// Issue is one offending path.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Violation is the SchemaViolation error kind.
type Violation struct {
	Mode   Mode    `json:"mode"`
	Issues []Issue `json:"issues"`
}

func (v *Violation) Error() string {
	if len(v.Issues) == 0 {
		return fmt.Sprintf("schema violation (%s)", v.Mode)
	}
	msg := fmt.Sprintf("schema violation (%s): %s", v.Mode, v.Issues[0])
	if len(v.Issues) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(v.Issues)-1)
	}
	return msg
}

// Paths returns the offending paths in report order.
func (v *Violation) Paths() []string {
	paths := make([]string, len(v.Issues))
	for i, issue := range v.Issues {
		paths[i] = issue.Path
	}
	return paths
}

// IsViolation returns true if err is or wraps a *Violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// UnavailableError reports that a strict strategy could not be initialized.
type UnavailableError struct {
	Mode Mode
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s schema validation unavailable: %v", e.Mode, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Options configures Select.
type Options struct {
	Mode       Mode
	SchemaFile string // overrides the embedded description; .cue files feed the cue strategy
	Logger     *slog.Logger
}

// Select builds the validator for the requested mode.
//
// ModeAuto prefers the strict JSON Schema strategy and degrades to fallback,
// with a warning, when the schema description cannot be loaded or compiled.
// Explicit strict modes fail with *UnavailableError instead.
func Select(opts Options) (Validator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeAuto
	}

	switch mode {
	case ModeFallback:
		return NewFallbackValidator(), nil
	case ModeCUE:
		src := CUESource
		if opts.SchemaFile != "" {
			data, err := readSchemaFile(opts.SchemaFile)
			if err != nil {
				return nil, &UnavailableError{Mode: ModeCUE, Err: err}
			}
			src = data
		}
		v, err := NewCUEValidator(src)
		if err != nil {
			return nil, &UnavailableError{Mode: ModeCUE, Err: err}
		}
		return v, nil
	case ModeStrict, ModeAuto:
		src := JSONSchemaSource
		var err error
		if opts.SchemaFile != "" {
			src, err = readSchemaFile(opts.SchemaFile)
		}
		var v *JSONSchemaValidator
		if err == nil {
			v, err = NewJSONSchemaValidator(src)
		}
		if err == nil {
			return v, nil
		}
		if mode == ModeStrict {
			return nil, &UnavailableError{Mode: ModeStrict, Err: err}
		}
		logger.Warn("strict schema validation unavailable, using fallback",
			"schema_file", opts.SchemaFile,
			"error", err)
		return NewFallbackValidator(), nil
	default:
		return nil, fmt.Errorf("invalid schema mode %q", mode)
	}
}

// sortIssues orders issues by path for deterministic reports.
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Message < issues[j].Message
	})
}
