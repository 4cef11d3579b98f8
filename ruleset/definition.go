// Package ruleset stores declarative rule-set definitions and compiles
// them into verdict rule trees bound to a target document. Definitions are
// plain data (persisted as JSON), so callers can validate arbitrary
// payloads without writing Go.
package ruleset

import "time"

// Rule kinds accepted in a definition. Leaf kinds check one field of the
// target document; cel evaluates a CEL expression over the whole document;
// composite groups children under a render policy.
const (
	KindNotNil    = "notNil"
	KindIsTrue    = "isTrue"
	KindIsFalse   = "isFalse"
	KindMin       = "min"
	KindMax       = "max"
	KindEquals    = "equals"
	KindNotEquals = "notEquals"
	KindMinLength = "minLength"
	KindMaxLength = "maxLength"
	KindCEL       = "cel"
	KindComposite = "composite"
)

// Definition is a named, versioned-by-timestamp set of rules.
type Definition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	Rules       []RuleDef `json:"rules"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RuleDef describes one rule in a definition. Which fields apply depends
// on Kind; ValidateDefinition enforces the combinations.
type RuleDef struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Message string `json:"message"`

	// Field is a dotted path into the target document, e.g. "course.title".
	// Required for leaf kinds; unused for cel and composite.
	Field string `json:"field,omitempty"`

	Priority    int    `json:"priority,omitempty"`
	Displayable *bool  `json:"displayable,omitempty"` // default true
	Severity    string `json:"severity,omitempty"`    // exception | warning | information

	// Bound is the numeric bound for min/max and the inclusive length for
	// minLength/maxLength.
	Bound *float64 `json:"bound,omitempty"`

	// Value is the comparison operand for equals/notEquals.
	Value any `json:"value,omitempty"`

	// Expression is the CEL source for cel rules. The document is bound to
	// the variable `target`.
	Expression string `json:"expression,omitempty"`

	// RenderType selects the composite walk policy: evaluateAllRules,
	// exitOnFirstFalseEvaluation or exitOnFirstTrueEvaluation.
	RenderType string    `json:"renderType,omitempty"`
	Children   []RuleDef `json:"children,omitempty"`
}

// displayable resolves the tri-state flag to its default.
func (r *RuleDef) displayable() bool {
	return r.Displayable == nil || *r.Displayable
}
