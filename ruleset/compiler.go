package ruleset

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/verdict-engine/verdict"
)

// celCostLimit caps expression evaluation cost to prevent resource
// exhaustion from runaway expressions.
const celCostLimit = 1_000_000

// Compiler turns stored definitions into verdict rule trees. CEL
// expressions are compiled once per definition and cached; Build then
// binds the compiled set to a concrete target document. Thread-safe for
// concurrent reads and compilation.
type Compiler struct {
	env      *cel.Env
	programs map[string]cel.Program // setID/rulePath -> compiled program
	mu       sync.RWMutex
}

// NewCompiler creates a compiler with a CEL environment exposing the
// target document as the dynamic variable `target`.
func NewCompiler() (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("target", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Compiler{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// CompileSet compiles every cel rule in the definition, replacing any
// previously compiled programs for the same set. Compilation failures
// carry the offending rule's name.
func (c *Compiler) CompileSet(def *Definition) error {
	compiled := make(map[string]cel.Program)
	for i := range def.Rules {
		if err := c.compileRule(def.ID, &def.Rules[i], compiled); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.evictLocked(def.ID)
	for key, prog := range compiled {
		c.programs[key] = prog
	}
	c.mu.Unlock()
	return nil
}

func (c *Compiler) compileRule(setID string, r *RuleDef, out map[string]cel.Program) error {
	switch r.Kind {
	case KindCEL:
		ast, issues := c.env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s: compile error: %w", r.Name, issues.Err())
		}
		prog, err := c.env.Program(ast,
			cel.EvalOptions(cel.OptTrackState),
			cel.CostLimit(celCostLimit),
		)
		if err != nil {
			return fmt.Errorf("rule %s: program creation error: %w", r.Name, err)
		}
		out[programKey(setID, r.Name)] = prog
	case KindComposite:
		for i := range r.Children {
			if err := c.compileRule(setID, &r.Children[i], out); err != nil {
				return err
			}
		}
	}
	return nil
}

// EvictSet drops the compiled programs of a definition.
func (c *Compiler) EvictSet(setID string) {
	c.mu.Lock()
	c.evictLocked(setID)
	c.mu.Unlock()
}

func (c *Compiler) evictLocked(setID string) {
	prefix := setID + "/"
	for key := range c.programs {
		if strings.HasPrefix(key, prefix) {
			delete(c.programs, key)
		}
	}
}

// Build binds a compiled definition to a target document, producing the
// top-level verdict rules ready to register in a context. Leaf rules check
// the field resolved from the document (absent paths yield a nil target,
// which the leaves fail closed on); cel rules see the whole document.
func (c *Compiler) Build(def *Definition, target map[string]any) ([]verdict.Rule, error) {
	rules := make([]verdict.Rule, 0, len(def.Rules))
	for i := range def.Rules {
		rule, err := c.buildRule(def.ID, &def.Rules[i], target)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (c *Compiler) buildRule(setID string, r *RuleDef, target map[string]any) (verdict.Rule, error) {
	opts := ruleOptions(r)
	field := lookup(target, r.Field)

	switch r.Kind {
	case KindNotNil:
		return verdict.NotNil(r.Name, r.Message, field, opts...), nil
	case KindIsTrue:
		return verdict.IsTrue(r.Name, r.Message, field, opts...), nil
	case KindIsFalse:
		return verdict.IsFalse(r.Name, r.Message, field, opts...), nil
	case KindMin:
		return verdict.Min(r.Name, r.Message, field, *r.Bound, opts...), nil
	case KindMax:
		return verdict.Max(r.Name, r.Message, field, *r.Bound, opts...), nil
	case KindEquals:
		return verdict.Equals(r.Name, r.Message, field, r.Value, opts...), nil
	case KindNotEquals:
		return verdict.NotEquals(r.Name, r.Message, field, r.Value, opts...), nil
	case KindMinLength:
		return verdict.MinLength(r.Name, r.Message, field, int(*r.Bound), opts...), nil
	case KindMaxLength:
		return verdict.MaxLength(r.Name, r.Message, field, int(*r.Bound), opts...), nil
	case KindCEL:
		c.mu.RLock()
		prog, exists := c.programs[programKey(setID, r.Name)]
		c.mu.RUnlock()
		if !exists {
			return nil, fmt.Errorf("rule %s is not compiled", r.Name)
		}
		return newCELRule(r, prog, target), nil
	case KindComposite:
		comp := verdict.Composite(r.Name, r.Message, target, parseRenderType(r.RenderType), opts...)
		for i := range r.Children {
			child, err := c.buildRule(setID, &r.Children[i], target)
			if err != nil {
				return nil, err
			}
			comp.Add(child)
		}
		return comp, nil
	default:
		return nil, fmt.Errorf("rule %s has unknown kind %q", r.Name, r.Kind)
	}
}

func programKey(setID, ruleName string) string {
	return setID + "/" + ruleName
}

func ruleOptions(r *RuleDef) []verdict.Option {
	opts := []verdict.Option{
		verdict.WithPriority(r.Priority),
		verdict.WithSeverity(parseSeverity(r.Severity)),
	}
	if !r.displayable() {
		opts = append(opts, verdict.Hidden())
	}
	return opts
}

func parseSeverity(s string) verdict.Severity {
	switch s {
	case "warning":
		return verdict.SeverityWarning
	case "information":
		return verdict.SeverityInformation
	default:
		return verdict.SeverityException
	}
}

func parseRenderType(rt string) verdict.RenderType {
	switch rt {
	case "exitOnFirstFalseEvaluation":
		return verdict.ExitOnFirstFalseEvaluation
	case "exitOnFirstTrueEvaluation":
		return verdict.ExitOnFirstTrueEvaluation
	default:
		return verdict.EvaluateAllRules
	}
}

// lookup resolves a dotted path against a JSON-style document. A missing
// segment resolves to nil; presence rules turn that into a violation.
func lookup(doc map[string]any, path string) any {
	if path == "" {
		return nil
	}
	var cur any = doc
	for _, segment := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[segment]
		if !ok {
			return nil
		}
	}
	return cur
}
