// Package harness provides conformance testing for the proof verifier.
//
// The harness runs declarative scenarios through the real loader, schema
// validator and checkers, then evaluates expectations against the report
// and, optionally, compares the rendered transcript with a golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: drift_above_threshold
//	description: "Conservation fails when delta_H_max exceeds 1e-12"
//	schema_mode: strict        # strict (default), cue or fallback
//	consistency: false
//	artifact:                  # inline document, or:
//	  conservation: { delta_H_max: 5.0e-10 }
//	  ...
//	artifact_file: proofs/drift.json   # relative to the scenario file
//	expect:
//	  passed: false
//	  checks:
//	    conservation: false
//	    stability: true
//	  schema_violation: ["/stability"]
//	  load_error: not_found    # not_found, unreadable or malformed
//	  transcript_contains:
//	    - "Conservation violated"
//
// Every run uses a deterministic clock, so transcripts and reports are
// byte-identical across runs.
//
// # Golden Files
//
// Transcripts are compared with testdata/golden/{name}.golden via goldie.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
