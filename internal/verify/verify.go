// Package verify orchestrates one verification: schema validation, then the
// invariant checks, then the report.
//
// A verification moves through Loaded, SchemaChecked, ChecksRun and Reported
// in that order. Any failure before ChecksRun skips directly to Reported
// with an aggregate failure. A Verifier holds only immutable configuration
// and is safe for concurrent use, provided its Validator is.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/proofcheck/internal/check"
	"github.com/roach88/proofcheck/internal/loader"
	"github.com/roach88/proofcheck/internal/logging"
	"github.com/roach88/proofcheck/internal/proof"
	"github.com/roach88/proofcheck/internal/schema"
)

// Stage is a step of the verification state machine.
type Stage string

const (
	StageLoaded        Stage = "loaded"
	StageSchemaChecked Stage = "schema_checked"
	StageChecksRun     Stage = "checks_run"
	StageReported      Stage = "reported"
)

// Clock supplies report timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Verifier runs verifications with a fixed configuration.
type Verifier struct {
	validator   schema.Validator
	checkers    []check.Checker
	consistency bool
	clock       Clock
	logger      *slog.Logger
	retry       *loader.RetryPolicy
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithConsistency appends the consistency check to the default checks.
func WithConsistency(enabled bool) Option {
	return func(v *Verifier) {
		v.consistency = enabled
	}
}

// WithClock sets the clock used for CheckedAt.
func WithClock(c Clock) Option {
	return func(v *Verifier) {
		v.clock = c
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = l
	}
}

// WithLoadRetry makes VerifyFile retry transient read failures.
func WithLoadRetry(policy loader.RetryPolicy) Option {
	return func(v *Verifier) {
		v.retry = &policy
	}
}

// New creates a Verifier around the given schema strategy.
func New(validator schema.Validator, opts ...Option) *Verifier {
	v := &Verifier{
		validator: validator,
		clock:     systemClock{},
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.checkers = check.Default()
	if v.consistency {
		v.checkers = append(v.checkers, check.Consistency{})
	}
	return v
}

// Mode returns the schema strategy in use.
func (v *Verifier) Mode() schema.Mode {
	return v.validator.Mode()
}

// Verify checks an in-memory document.
func (v *Verifier) Verify(doc proof.Document) *Report {
	r := v.newReport()
	v.run(r, doc)
	return r
}

// VerifyArtifact checks a loaded artifact and records its location and
// raw digest in the report.
func (v *Verifier) VerifyArtifact(a *loader.Artifact) *Report {
	r := v.newReport()
	r.Path = a.Path
	r.ArtifactSHA256 = a.SHA256
	v.run(r, a.Doc)
	return r
}

// VerifyFile loads and checks the artifact at path. A load or parse failure
// returns a report that went straight to Reported, together with the
// *loader.LoadError or *loader.ParseError.
func (v *Verifier) VerifyFile(ctx context.Context, path string) (*Report, error) {
	var (
		a   *loader.Artifact
		err error
	)
	if v.retry != nil {
		a, err = loader.LoadWithRetry(ctx, path, *v.retry)
	} else {
		a, err = loader.Load(path)
	}
	if err != nil {
		v.logger.Debug("artifact load failed", "path", path, "error", err)
		r := v.newReport()
		r.Path = path
		r.Error = err.Error()
		r.advance(StageReported)
		return r, err
	}
	return v.VerifyArtifact(a), nil
}

func (v *Verifier) newReport() *Report {
	return &Report{
		SchemaMode:      v.validator.Mode(),
		VerifierVersion: proof.VerifierVersion,
		CheckedAt:       v.clock.Now(),
	}
}

func (v *Verifier) run(r *Report, doc proof.Document) {
	r.advance(StageLoaded)
	r.Header = headerOf(doc)
	if digest, err := proof.CanonicalDigest(doc); err == nil {
		r.CanonicalDigest = digest
	} else {
		v.logger.Debug("canonical digest unavailable", "path", r.Path, "error", err)
	}

	if err := v.validator.Validate(doc); err != nil {
		var violation *schema.Violation
		if !errors.As(err, &violation) {
			violation = &schema.Violation{Mode: v.validator.Mode(), Issues: []schema.Issue{{Path: "/", Message: err.Error(), Code: schema.ErrCodeSchema}}}
		}
		r.SchemaViolation = violation
		v.logger.Debug("schema validation failed",
			"path", r.Path,
			"mode", v.validator.Mode(),
			"issues", len(violation.Issues))
		r.advance(StageReported)
		return
	}
	r.advance(StageSchemaChecked)

	r.Checks = check.Run(doc, v.checkers)
	r.advance(StageChecksRun)

	r.Passed = check.AllPassed(r.Checks)
	v.logger.Debug("verification complete",
		"path", r.Path,
		"passed", r.Passed,
		"checks", len(r.Checks))
	r.advance(StageReported)
}
