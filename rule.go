// Package verdict is a composable business-rule validation engine.
// Callers assemble rule trees out of leaf checks and composites, register
// them in a Context, and read an aggregate verdict after rendering. The
// companion action package gates side-effecting work on that verdict.
package verdict

// Severity indicates how a failing rule should be treated downstream.
type Severity int

const (
	// SeverityException marks a violation as fatal for the operation.
	SeverityException Severity = iota
	// SeverityWarning marks a violation as advisory.
	SeverityWarning
	// SeverityInformation marks a violation as purely informational.
	SeverityInformation
)

func (s Severity) String() string {
	switch s {
	case SeverityException:
		return "exception"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	default:
		return "unknown"
	}
}

// RenderType selects how a composite walks its children.
type RenderType int

const (
	// EvaluateAllRules evaluates every child regardless of prior failures.
	// The aggregate is valid iff all children are valid.
	EvaluateAllRules RenderType = iota
	// ExitOnFirstFalseEvaluation stops at the first failing child. Children
	// after it are not evaluated and produce no result for the run.
	ExitOnFirstFalseEvaluation
	// ExitOnFirstTrueEvaluation stops at the first succeeding child. Used
	// for any-of style composites.
	ExitOnFirstTrueEvaluation
)

func (rt RenderType) String() string {
	switch rt {
	case EvaluateAllRules:
		return "evaluateAllRules"
	case ExitOnFirstFalseEvaluation:
		return "exitOnFirstFalseEvaluation"
	case ExitOnFirstTrueEvaluation:
		return "exitOnFirstTrueEvaluation"
	default:
		return "unknown"
	}
}

// Rule is the atomic evaluation contract. A rule is either a leaf check or
// a composite of further rules; both produce a Result from Evaluate.
//
// The error return is reserved for configuration defects (a check that
// raised instead of reporting). Ordinary violations are never errors; they
// come back as a Result with Valid=false.
type Rule interface {
	// Name is a stable identifier, unique within a context by convention.
	Name() string

	// Message is the human-readable description used when the rule fails.
	Message() string

	// Priority orders evaluation among siblings; lower evaluates first.
	Priority() int

	// Displayable reports whether a violation may be shown to an end user.
	// Non-displayable violations still gate execution.
	Displayable() bool

	// Severity informs how a failure is treated downstream.
	Severity() Severity

	// Target is the value being checked. The engine never mutates it.
	Target() any

	Evaluate() (*Result, error)
}

// base carries the metadata shared by every rule variant.
type base struct {
	name        string
	message     string
	priority    int
	displayable bool
	severity    Severity
	target      any
}

func newBase(name, message string, target any, opts ...Option) base {
	b := base{
		name:        name,
		message:     message,
		target:      target,
		displayable: true,
		severity:    SeverityException,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Name() string       { return b.name }
func (b *base) Message() string    { return b.message }
func (b *base) Priority() int      { return b.priority }
func (b *base) Displayable() bool  { return b.displayable }
func (b *base) Severity() Severity { return b.severity }
func (b *base) Target() any        { return b.target }

// Option configures rule metadata at construction time.
type Option func(*base)

// WithPriority sets the rule's evaluation priority. Lower evaluates first;
// ties preserve declaration order.
func WithPriority(p int) Option {
	return func(b *base) { b.priority = p }
}

// WithSeverity sets how a failure of this rule is treated downstream.
// The default is SeverityException.
func WithSeverity(s Severity) Option {
	return func(b *base) { b.severity = s }
}

// Hidden marks the rule's violations as internal-only: they still gate
// execution but are never surfaced to end users.
func Hidden() Option {
	return func(b *base) { b.displayable = false }
}
