package ruleset

import (
	"github.com/google/cel-go/cel"

	"github.com/verdict-engine/verdict"
)

// celRule adapts a compiled CEL program to the verdict.Rule contract. The
// whole target document is the rule's target; non-boolean outputs are
// treated as a failing check. An evaluation error (as opposed to a false
// result) is a configuration defect and propagates out of the render.
type celRule struct {
	name        string
	message     string
	priority    int
	displayable bool
	severity    verdict.Severity
	target      map[string]any
	prog        cel.Program
}

var _ verdict.Rule = (*celRule)(nil)

func newCELRule(def *RuleDef, prog cel.Program, target map[string]any) *celRule {
	r := &celRule{
		name:        def.Name,
		message:     def.Message,
		priority:    def.Priority,
		displayable: def.displayable(),
		severity:    parseSeverity(def.Severity),
		target:      target,
		prog:        prog,
	}
	return r
}

func (r *celRule) Name() string               { return r.name }
func (r *celRule) Message() string            { return r.message }
func (r *celRule) Priority() int              { return r.priority }
func (r *celRule) Displayable() bool          { return r.displayable }
func (r *celRule) Severity() verdict.Severity { return r.severity }
func (r *celRule) Target() any                { return r.target }

func (r *celRule) Evaluate() (*verdict.Result, error) {
	out, _, err := r.prog.Eval(map[string]any{"target": r.target})
	if err != nil {
		return nil, err
	}

	valid := false
	if b, ok := out.Value().(bool); ok {
		valid = b
	}

	res := &verdict.Result{
		Rule:   r,
		Valid:  valid,
		Target: r.target,
	}
	if !valid {
		res.Message = r.message
	}
	return res, nil
}
