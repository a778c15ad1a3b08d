package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/proofcheck/internal/proof"
)

// CUESource is the schema description as a CUE definition.
//
//go:embed proof.cue
var CUESource []byte

// definitionPath selects the proof definition inside the CUE source.
const definitionPath = "#CanonicalProof"

// CUEValidator is the strict strategy backed by a CUE definition.
//
// A cue.Context is not safe for concurrent use, so Validate serializes on mu.
type CUEValidator struct {
	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// NewCUEValidator compiles a CUE source that declares #CanonicalProof.
func NewCUEValidator(src []byte) (*CUEValidator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename("proof.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile CUE schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath(definitionPath))
	if !def.Exists() {
		return nil, fmt.Errorf("CUE schema does not declare %s", definitionPath)
	}
	return &CUEValidator{ctx: ctx, def: def}, nil
}

// Mode implements Validator.
func (v *CUEValidator) Mode() Mode {
	return ModeCUE
}

// Validate implements Validator.
func (v *CUEValidator) Validate(doc proof.Document) error {
	data, err := json.Marshal(map[string]any(doc))
	if err != nil {
		return &Violation{Mode: ModeCUE, Issues: []Issue{{Path: "/", Message: err.Error(), Code: ErrCodeSchema}}}
	}

	expr, err := cuejson.Extract("artifact.json", data)
	if err != nil {
		return &Violation{Mode: ModeCUE, Issues: []Issue{{Path: "/", Message: err.Error(), Code: ErrCodeSchema}}}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	instance := v.ctx.BuildExpr(expr)
	if err := instance.Err(); err != nil {
		return &Violation{Mode: ModeCUE, Issues: []Issue{{Path: "/", Message: err.Error(), Code: ErrCodeSchema}}}
	}

	err = v.def.Unify(instance).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	seen := make(map[Issue]bool)
	var issues []Issue
	for _, e := range cueerrors.Errors(err) {
		issue := cueIssue(e)
		if seen[issue] {
			continue
		}
		seen[issue] = true
		issues = append(issues, issue)
	}
	if len(issues) == 0 {
		issues = []Issue{{Path: "/", Message: err.Error(), Code: ErrCodeSchema}}
	}
	sortIssues(issues)
	return &Violation{Mode: ModeCUE, Issues: issues}
}

func cueIssue(e cueerrors.Error) Issue {
	format, args := e.Msg()
	msg := fmt.Sprintf(format, args...)

	// Paths are relative to the definition; drop the definition label.
	var path []string
	for _, sel := range e.Path() {
		if strings.HasPrefix(sel, "#") {
			continue
		}
		path = append(path, sel)
	}

	issue := Issue{Path: proof.PathString(path...), Message: msg, Code: ErrCodeSchema}
	switch {
	case strings.Contains(msg, "required"):
		issue.Code = ErrCodeMissing
		issue.Message = "required field is missing"
	case strings.Contains(msg, "mismatched types"):
		issue.Code = ErrCodeType
	case strings.Contains(msg, "invalid value"), strings.Contains(msg, "out of bound"):
		issue.Code = ErrCodeConstraint
	}
	return issue
}
