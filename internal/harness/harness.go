package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/proofcheck/internal/loader"
	"github.com/roach88/proofcheck/internal/logging"
	"github.com/roach88/proofcheck/internal/schema"
	"github.com/roach88/proofcheck/internal/testutil"
	"github.com/roach88/proofcheck/internal/verify"
)

// inlineArtifactPath names inline artifacts in reports and transcripts.
const inlineArtifactPath = "inline.json"

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Select the scenario's schema strategy
//  2. Load the artifact (inline documents go through the JSON parser)
//  3. Verify with a deterministic clock
//  4. Render the transcript
//  5. Evaluate expectations
//
// An error is returned only when the scenario itself cannot be executed.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for artifact loading.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	mode := schema.ModeStrict
	if scenario.SchemaMode != "" {
		m, err := schema.ParseMode(scenario.SchemaMode)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	logger := logging.Discard()
	validator, err := schema.Select(schema.Options{Mode: mode, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to select validator: %w", err)
	}

	v := verify.New(validator,
		verify.WithClock(testutil.NewDeterministicClock()),
		verify.WithConsistency(scenario.Consistency),
		verify.WithLogger(logger),
	)

	result := NewResult()
	var loadErr error
	if scenario.ArtifactFile != "" {
		result.Report, loadErr = v.VerifyFile(ctx, scenario.ArtifactFile)
	} else {
		data, err := json.Marshal(scenario.Artifact)
		if err != nil {
			return nil, fmt.Errorf("failed to encode inline artifact: %w", err)
		}
		artifact, err := loader.Parse(inlineArtifactPath, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse inline artifact: %w", err)
		}
		result.Report = v.VerifyArtifact(artifact)
	}

	if loadErr != nil {
		result.LoadError = loadErr.Error()
	} else {
		var buf bytes.Buffer
		if err := verify.RenderText(&buf, result.Report, verify.RenderOptions{}); err != nil {
			return nil, fmt.Errorf("failed to render transcript: %w", err)
		}
		result.Transcript = buf.String()
	}

	for _, msg := range EvaluateExpectations(result, scenario.Expect, loadErr) {
		result.AddError(msg)
	}

	return result, nil
}
