package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/roach88/proofcheck/internal/proof"
)

// JSONSchemaSource is the published schema description.
//
//go:embed proof.schema.json
var JSONSchemaSource []byte

const schemaURL = "https://proofcheck.schemas.local/canonical-proof/v1.schema.json"

// JSONSchemaValidator is the strict strategy backed by JSON Schema draft 2020-12.
// The compiled schema is immutable; Validate is safe for concurrent use.
type JSONSchemaValidator struct {
	schema *jsonschema.Schema
}

// NewJSONSchemaValidator compiles a JSON Schema description.
func NewJSONSchemaValidator(src []byte) (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader(src)); err != nil {
		return nil, fmt.Errorf("schema load failed: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("schema compile failed: %w", err)
	}
	return &JSONSchemaValidator{schema: compiled}, nil
}

// Mode implements Validator.
func (v *JSONSchemaValidator) Mode() Mode {
	return ModeStrict
}

// Validate implements Validator.
func (v *JSONSchemaValidator) Validate(doc proof.Document) error {
	err := v.schema.Validate(map[string]any(doc))
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &Violation{Mode: ModeStrict, Issues: []Issue{{Path: "/", Message: err.Error(), Code: ErrCodeSchema}}}
	}

	var issues []Issue
	collectLeaves(ve, &issues)
	sortIssues(issues)
	return &Violation{Mode: ModeStrict, Issues: issues}
}

// collectLeaves flattens the cause tree; only leaves name a concrete problem.
func collectLeaves(ve *jsonschema.ValidationError, out *[]Issue) {
	if len(ve.Causes) == 0 {
		*out = append(*out, jsonSchemaIssue(ve))
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

func jsonSchemaIssue(ve *jsonschema.ValidationError) Issue {
	path := ve.InstanceLocation
	if path == "" {
		path = "/"
	}
	issue := Issue{Path: path, Message: ve.Message, Code: ErrCodeSchema}

	keyword := ve.KeywordLocation
	if i := strings.LastIndex(keyword, "/"); i >= 0 {
		keyword = keyword[i+1:]
	}
	switch keyword {
	case "required":
		issue.Code = ErrCodeMissing
		// report the missing member itself rather than its parent
		if missing := missingProperty(ve.Message); missing != "" {
			issue.Path = strings.TrimSuffix(path, "/") + "/" + missing
		}
		issue.Message = "required field is missing"
	case "type":
		issue.Code = ErrCodeType
	case "minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum":
		issue.Code = ErrCodeConstraint
	}
	return issue
}

// missingProperty extracts the first name from "missing properties: 'a', 'b'".
func missingProperty(msg string) string {
	start := strings.Index(msg, "'")
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], "'")
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

func readSchemaFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema description: %w", err)
	}
	return data, nil
}
