package verify

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/roach88/proofcheck/internal/check"
	"github.com/roach88/proofcheck/internal/proof"
	"github.com/roach88/proofcheck/internal/schema"
)

// Report is the VerificationReport: the sole output of a verification.
// Passed is the programmatic aggregate; rendering is separate.
type Report struct {
	Path            string            `json:"path,omitempty"`
	Header          Header            `json:"header"`
	SchemaMode      schema.Mode       `json:"schema_mode"`
	SchemaViolation *schema.Violation `json:"schema_violation,omitempty"`
	Checks          []check.Result    `json:"checks"`
	Passed          bool              `json:"passed"`
	Stages          []Stage           `json:"stages"`
	Error           string            `json:"error,omitempty"`
	ArtifactSHA256  string            `json:"artifact_sha256,omitempty"`
	CanonicalDigest string            `json:"canonical_digest,omitempty"`
	VerifierVersion string            `json:"verifier_version"`
	CheckedAt       time.Time         `json:"checked_at"`
}

// Header carries the producer-reported identification fields, rendered
// as-is. Missing fields are empty.
type Header struct {
	Engine   string `json:"engine,omitempty"`
	Steps    *int64 `json:"steps,omitempty"`
	Topology string `json:"topology,omitempty"`

	// StepsText holds a numeric step count that is not an exact int64,
	// as written by the producer.
	StepsText string `json:"steps_text,omitempty"`

	// TopologySpec is set when the descriptor names a topology.
	TopologySpec *proof.TopologySpec `json:"topology_spec,omitempty"`
}

// Stage returns the last stage reached.
func (r *Report) Stage() Stage {
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[len(r.Stages)-1]
}

// Outcomes maps each check name to its result.
func (r *Report) Outcomes() map[string]bool {
	out := make(map[string]bool, len(r.Checks))
	for _, c := range r.Checks {
		out[c.Name] = c.Passed
	}
	return out
}

// Failed returns the checks that did not pass.
func (r *Report) Failed() []check.Result {
	var failed []check.Result
	for _, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

func (r *Report) advance(s Stage) {
	r.Stages = append(r.Stages, s)
}

func headerOf(doc proof.Document) Header {
	var h Header
	if s, ok := doc.String(proof.KeyEngine); ok {
		h.Engine = s
	}
	if raw, ok := doc.Lookup(proof.KeySteps); ok {
		h.Steps, h.StepsText = stepsOf(raw)
	}
	if raw, ok := doc.Lookup(proof.KeyTopology); ok {
		h.Topology = topologyString(raw)
		if spec, ok := proof.ParseTopology(raw); ok {
			h.TopologySpec = &spec
		}
	}
	return h
}

// stepsOf returns an exact integer step count, or the number's literal text
// when it has a fraction or does not fit an int64.
func stepsOf(v any) (*int64, string) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return &i, ""
		}
	}
	f, ok := proof.Float(v)
	if !ok {
		return nil, ""
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < -math.MinInt64 {
		i := int64(f)
		return &i, ""
	}
	return nil, fmt.Sprint(v)
}

// topologyString renders a topology descriptor: strings verbatim, objects
// as canonical JSON.
func topologyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if b, err := proof.CanonicalJSON(proof.Document(t)); err == nil {
			return string(b)
		}
	}
	return ""
}
