package verdict

import "fmt"

// State is the aggregate verdict of a Context.
type State int

const (
	// NotEvaluated means Render has not completed yet.
	NotEvaluated State = iota
	// Evaluated means the last render produced no violations.
	Evaluated
	// HasViolations means at least one rule failed on the last render.
	HasViolations
)

func (s State) String() string {
	switch s {
	case NotEvaluated:
		return "notEvaluated"
	case Evaluated:
		return "evaluated"
	case HasViolations:
		return "hasViolations"
	default:
		return "unknown"
	}
}

// Context collects rules, runs an evaluation pass over them, and exposes
// the aggregate verdict. A context is built per validation request,
// rendered by a single caller, and discarded once the verdict is
// consumed; it is not safe for concurrent use.
type Context struct {
	rules    []Rule
	results  []*Result
	state    State
	reporter Reporter
}

// ContextOption configures a Context at construction time.
type ContextOption func(*Context)

// WithReporter forwards each violation observed during Render to the
// given sink.
func WithReporter(r Reporter) ContextOption {
	return func(c *Context) { c.reporter = r }
}

// NewContext creates an empty context in the NotEvaluated state.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		state:    NotEvaluated,
		reporter: NopReporter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddRule appends top-level rules. Insertion order is preserved;
// evaluation order is by priority. Duplicate names are not rejected.
func (c *Context) AddRule(rules ...Rule) {
	c.rules = append(c.rules, rules...)
}

// Rules returns the registered top-level rules in insertion order.
func (c *Context) Rules() []Rule { return c.rules }

// Render sorts the top-level rules by ascending priority (stable),
// evaluates each in order, stores the produced results, and sets the
// aggregate state. It returns the context itself for chained inspection.
//
// A failing rule is a violation, not an error; Render only returns an
// error for configuration defects (a rule evaluation that errored or
// panicked). On a defect the run is aborted and the context keeps the
// state and results of the previous render. Each successful run replaces
// the prior result sequence, so re-rendering unchanged rules is
// idempotent.
func (c *Context) Render() (ctx *Context, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ctx, err = nil, fmt.Errorf("rule evaluation panicked: %v", rec)
		}
	}()

	ordered := sortByPriority(c.rules)
	results := make([]*Result, 0, len(ordered))
	violations := false

	for _, rule := range ordered {
		res, evalErr := rule.Evaluate()
		if evalErr != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name(), evalErr)
		}
		results = append(results, res)
		if !res.Valid {
			violations = true
			c.reporter.Record(rule.Name(), rule.Severity(), rule.Message())
		}
	}

	c.results = results
	if violations {
		c.state = HasViolations
	} else {
		c.state = Evaluated
	}
	return c, nil
}

// State returns the aggregate verdict of the last render.
func (c *Context) State() State { return c.state }

// HasViolations reports whether the last render produced any violation.
func (c *Context) HasViolations() bool { return c.state == HasViolations }

// Results returns the top-level results of the last render in evaluation
// order. Composite aggregates appear flattened one level; their nested
// detail is retrievable from the composite itself.
func (c *Context) Results() []*Result { return c.results }

// Violations returns the displayable violations of the last render,
// recursing through composite detail.
func (c *Context) Violations() []*Result {
	return Violations(c.results)
}
