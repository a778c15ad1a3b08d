package harness

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/proofcheck/internal/loader"
)

// EvaluateExpectations matches a result against an expectation and returns
// one message per mismatch. Mismatches are reported in a fixed order:
// load error, aggregate, schema violation, checks, transcript.
func EvaluateExpectations(result *Result, expect Expectation, loadErr error) []string {
	var errs []string

	if got := loadErrorKind(loadErr); got != expect.LoadError {
		errs = append(errs, fmt.Sprintf("load error: expected %s, got %s", orNone(expect.LoadError), orNone(got)))
	}

	report := result.Report
	if expect.Passed != nil && report.Passed != *expect.Passed {
		errs = append(errs, fmt.Sprintf("aggregate: expected passed=%t, got passed=%t", *expect.Passed, report.Passed))
	}

	if len(expect.SchemaViolation) > 0 {
		if report.SchemaViolation == nil {
			errs = append(errs, fmt.Sprintf("schema violation: expected paths %v, got none", expect.SchemaViolation))
		} else {
			paths := report.SchemaViolation.Paths()
			for _, want := range expect.SchemaViolation {
				if !slices.Contains(paths, want) {
					errs = append(errs, fmt.Sprintf("schema violation: expected path %s, got %v", want, paths))
				}
			}
		}
	}

	if len(expect.Checks) > 0 {
		outcomes := report.Outcomes()
		names := make([]string, 0, len(expect.Checks))
		for name := range expect.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			got, ok := outcomes[name]
			switch {
			case !ok:
				errs = append(errs, fmt.Sprintf("check %s: expected passed=%t, but it did not run", name, expect.Checks[name]))
			case got != expect.Checks[name]:
				errs = append(errs, fmt.Sprintf("check %s: expected passed=%t, got passed=%t", name, expect.Checks[name], got))
			}
		}
	}

	for _, want := range expect.TranscriptContains {
		if !strings.Contains(result.Transcript, want) {
			errs = append(errs, fmt.Sprintf("transcript: expected to contain %q", want))
		}
	}

	return errs
}

func loadErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var le *loader.LoadError
	if errors.As(err, &le) {
		if le.NotFound() {
			return LoadErrorNotFound
		}
		return LoadErrorUnreadable
	}
	if loader.IsParseError(err) {
		return LoadErrorMalformed
	}
	return "unknown"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
