package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/proofcheck/internal/schema"
)

// Scenario defines a conformance test scenario: one artifact, one verifier
// configuration and the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SchemaMode selects the validation strategy. Empty means strict.
	SchemaMode string `yaml:"schema_mode,omitempty"`

	// Consistency enables the recomputing consistency check.
	Consistency bool `yaml:"consistency,omitempty"`

	// Artifact is an inline document. Exactly one of Artifact and
	// ArtifactFile must be set.
	Artifact map[string]any `yaml:"artifact,omitempty"`

	// ArtifactFile is a path to an artifact on disk, resolved relative to
	// the scenario file. It may name a file that does not exist.
	ArtifactFile string `yaml:"artifact_file,omitempty"`

	// Expect holds the expected outcome.
	Expect Expectation `yaml:"expect"`
}

// Expectation is matched against the verification report. Unset fields are
// not checked.
type Expectation struct {
	// Passed is the expected aggregate.
	Passed *bool `yaml:"passed,omitempty"`

	// Checks maps check names to expected outcomes (subset match).
	Checks map[string]bool `yaml:"checks,omitempty"`

	// SchemaViolation lists paths the schema violation must name.
	SchemaViolation []string `yaml:"schema_violation,omitempty"`

	// LoadError is the expected load-phase failure kind.
	LoadError string `yaml:"load_error,omitempty"`

	// TranscriptContains lists substrings the rendered transcript must contain.
	TranscriptContains []string `yaml:"transcript_contains,omitempty"`
}

// Load error kinds accepted by Expectation.LoadError.
const (
	LoadErrorNotFound   = "not_found"
	LoadErrorUnreadable = "unreadable"
	LoadErrorMalformed  = "malformed"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// ArtifactFile is resolved relative to the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.ArtifactFile != "" && !filepath.IsAbs(scenario.ArtifactFile) {
		scenario.ArtifactFile = filepath.Join(filepath.Dir(path), scenario.ArtifactFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if (s.Artifact == nil) == (s.ArtifactFile == "") {
		return fmt.Errorf("exactly one of artifact and artifact_file is required")
	}

	if s.SchemaMode != "" {
		if _, err := schema.ParseMode(s.SchemaMode); err != nil {
			return err
		}
	}

	switch s.Expect.LoadError {
	case "", LoadErrorNotFound, LoadErrorUnreadable, LoadErrorMalformed:
	default:
		return fmt.Errorf("expect.load_error %q: must be %s, %s or %s",
			s.Expect.LoadError, LoadErrorNotFound, LoadErrorUnreadable, LoadErrorMalformed)
	}

	return nil
}
