package verify

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/proofcheck/internal/check"
)

const (
	title    = "Canonical Proof Verification"
	notShown = "n/a"
)

var demonstrates = []string{
	"Energy conservation to machine precision",
	"Stable dynamics (negative Lyapunov)",
	"Deterministic replay capability",
	"Hash-verified structure (genesis and tip reported)",
}

// RenderOptions controls transcript detail.
type RenderOptions struct {
	// Verbose adds digests and the verifier version after the header.
	Verbose bool
}

// RenderText writes the human-readable transcript of r.
func RenderText(w io.Writer, r *Report, opts RenderOptions) error {
	p := message.NewPrinter(language.English)
	bw := bufio.NewWriter(w)

	p.Fprintln(bw, title)
	p.Fprintln(bw, strings.Repeat("=", 40))
	p.Fprintf(bw, "Engine: %s\n", orNA(r.Header.Engine))
	switch {
	case r.Header.Steps != nil:
		p.Fprintf(bw, "Steps: %d\n", *r.Header.Steps)
	case r.Header.StepsText != "":
		p.Fprintf(bw, "Steps: %s\n", r.Header.StepsText)
	default:
		p.Fprintf(bw, "Steps: %s\n", notShown)
	}
	p.Fprintf(bw, "Topology: %s\n", orNA(r.Header.Topology))

	if opts.Verbose {
		if r.ArtifactSHA256 != "" {
			p.Fprintf(bw, "Artifact SHA-256: %s\n", r.ArtifactSHA256)
		}
		if r.CanonicalDigest != "" {
			p.Fprintf(bw, "Canonical digest: %s\n", r.CanonicalDigest)
		}
		p.Fprintf(bw, "Verifier: %s\n", r.VerifierVersion)
	}

	if r.SchemaViolation != nil {
		for _, issue := range r.SchemaViolation.Issues {
			p.Fprintf(bw, "✗ Schema violation (%s): %s: %s\n", r.SchemaViolation.Mode, issue.Path, issue.Message)
		}
		p.Fprintln(bw)
		p.Fprintln(bw, "⚠️ SCHEMA VALIDATION FAILED")
		return bw.Flush()
	}
	p.Fprintf(bw, "Schema: ok (%s)\n", r.SchemaMode)
	p.Fprintln(bw)

	for _, c := range r.Checks {
		mark := "✓"
		if !c.Passed {
			mark = "❌"
		}
		p.Fprintf(bw, "%s %s\n", mark, c.Message)
	}
	p.Fprintln(bw)

	if !r.Passed {
		p.Fprintln(bw, "⚠️ SOME CHECKS FAILED")
		return bw.Flush()
	}

	p.Fprintln(bw, "✅ ALL CHECKS PASSED")
	p.Fprintln(bw)
	p.Fprintln(bw, "This proof demonstrates:")
	for _, line := range demonstrates {
		p.Fprintf(bw, "• %s\n", line)
	}
	if _, ok := r.Outcomes()[check.NameConsistency]; ok {
		p.Fprintln(bw, "• Reported drift consistent with sampled energies")
	}
	return bw.Flush()
}

func orNA(s string) string {
	if s == "" {
		return notShown
	}
	return s
}
