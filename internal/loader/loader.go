// Package loader reads canonical proof artifacts from disk.
//
// Load-phase failures are reported as two distinct kinds: *LoadError when the
// location cannot be read and *ParseError when the bytes are not a
// well-formed document. Neither produces a partial document.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/proofcheck/internal/proof"
)

// Format identifies the serialization of an artifact.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Error code constants for load-phase failures.
const (
	ErrCodeUnreadable  = "E002" // location exists but cannot be read
	ErrCodeMalformed   = "E004" // content is not well-formed
	ErrCodeNotFound    = "E005" // location does not exist
	ErrCodeNotDocument = "E006" // well-formed, but top-level value is not an object
)

// Artifact is a successfully loaded canonical proof.
type Artifact struct {
	Path   string
	Format Format
	Raw    []byte
	Doc    proof.Document
	SHA256 string // plain digest of Raw
}

// LoadError reports that the artifact location is missing or unreadable.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the location does not exist.
func (e *LoadError) NotFound() bool {
	return e.Code == ErrCodeNotFound
}

// ParseError reports that the artifact content is not a well-formed document.
type ParseError struct {
	Code    string
	Path    string
	Format  Format
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsLoadError returns true if err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Load reads and parses the artifact at path.
func Load(path string) (*Artifact, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: fmt.Sprintf("file '%s' not found", path), Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeUnreadable, Path: path, Message: fmt.Sprintf("cannot access '%s': %v", path, err), Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeUnreadable, Path: path, Message: fmt.Sprintf("'%s' is a directory", path)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeUnreadable, Path: path, Message: fmt.Sprintf("cannot read '%s': %v", path, err), Err: err}
	}

	return Parse(path, data)
}

// Parse decodes artifact bytes. The format is chosen from the path extension:
// .yaml and .yml are YAML, everything else is JSON.
func Parse(path string, data []byte) (*Artifact, error) {
	format := DetectFormat(path)

	var (
		doc proof.Document
		err error
	)
	switch format {
	case FormatYAML:
		doc, err = decodeYAML(data)
	default:
		doc, err = decodeJSON(data)
	}
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
			pe.Format = format
			return nil, pe
		}
		return nil, &ParseError{
			Code:    ErrCodeMalformed,
			Path:    path,
			Format:  format,
			Message: fmt.Sprintf("invalid %s in '%s': %v", strings.ToUpper(string(format)), path, err),
			Err:     err,
		}
	}

	return &Artifact{
		Path:   path,
		Format: format,
		Raw:    data,
		Doc:    doc,
		SHA256: proof.RawDigest(data),
	}, nil
}

// DetectFormat maps a file extension to a Format.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// decodeJSON decodes exactly one JSON object. Numbers stay json.Number so no
// precision is lost before validation.
func decodeJSON(data []byte) (proof.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{
			Code:    ErrCodeNotDocument,
			Message: fmt.Sprintf("top-level value is %s, expected an object", jsonKind(v)),
		}
	}
	return proof.Document(obj), nil
}

// decodeYAML decodes a YAML document and normalizes it through JSON so YAML
// and JSON artifacts produce identical documents.
func decodeYAML(data []byte) (proof.Document, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.New("empty document")
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, &ParseError{
			Code:    ErrCodeNotDocument,
			Message: fmt.Sprintf("top-level value is %s, expected a mapping", jsonKind(v)),
		}
	}

	normalized, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("non-JSON-compatible YAML: %w", err)
	}
	return decodeJSON(normalized)
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case map[string]any:
		return "an object"
	default:
		return "a number"
	}
}
