package ruleset

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxRulesPerSet  = 100
	maxNestingDepth = 5
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// ValidateDefinition checks a definition's structure before it is stored
// or compiled. It returns the first problem found, nil if the definition
// is well formed. Structural validation is deliberately separate from rule
// evaluation: a definition that fails here is a caller error, not a
// violation.
func ValidateDefinition(def *Definition) error {
	if def == nil {
		return fmt.Errorf("definition is required")
	}
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("definition name is required")
	}
	if len(def.Rules) == 0 {
		return fmt.Errorf("definition %q must contain at least one rule", def.Name)
	}
	if len(def.Rules) > maxRulesPerSet {
		return fmt.Errorf("definition %q contains %d rules, maximum allowed is %d",
			def.Name, len(def.Rules), maxRulesPerSet)
	}

	for i := range def.Rules {
		if err := validateRuleDef(&def.Rules[i], 1); err != nil {
			return fmt.Errorf("definition %q: %w", def.Name, err)
		}
	}
	return nil
}

func validateRuleDef(r *RuleDef, depth int) error {
	if err := validateIdentifier(r.Name); err != nil {
		return fmt.Errorf("invalid rule name %q: %w", r.Name, err)
	}
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("rule %q has no message", r.Name)
	}
	if r.Severity != "" && !isValidSeverity(r.Severity) {
		return fmt.Errorf("rule %q has invalid severity %q (must be one of: exception, warning, information)",
			r.Name, r.Severity)
	}

	switch r.Kind {
	case KindNotNil, KindIsTrue, KindIsFalse:
		if r.Field == "" {
			return fmt.Errorf("rule %q of kind %s requires a field", r.Name, r.Kind)
		}
	case KindMin, KindMax, KindMinLength, KindMaxLength:
		if r.Field == "" {
			return fmt.Errorf("rule %q of kind %s requires a field", r.Name, r.Kind)
		}
		if r.Bound == nil {
			return fmt.Errorf("rule %q of kind %s requires a bound", r.Name, r.Kind)
		}
	case KindEquals, KindNotEquals:
		if r.Field == "" {
			return fmt.Errorf("rule %q of kind %s requires a field", r.Name, r.Kind)
		}
		if r.Value == nil {
			return fmt.Errorf("rule %q of kind %s requires a value", r.Name, r.Kind)
		}
	case KindCEL:
		if strings.TrimSpace(r.Expression) == "" {
			return fmt.Errorf("rule %q of kind cel requires an expression", r.Name)
		}
	case KindComposite:
		if depth >= maxNestingDepth {
			return fmt.Errorf("rule %q exceeds maximum nesting depth of %d", r.Name, maxNestingDepth)
		}
		if len(r.Children) == 0 {
			return fmt.Errorf("composite rule %q must contain at least one child", r.Name)
		}
		if r.RenderType != "" && !isValidRenderType(r.RenderType) {
			return fmt.Errorf("composite rule %q has invalid renderType %q", r.Name, r.RenderType)
		}
		for i := range r.Children {
			if err := validateRuleDef(&r.Children[i], depth+1); err != nil {
				return fmt.Errorf("composite %q: %w", r.Name, err)
			}
		}
	case "":
		return fmt.Errorf("rule %q has no kind", r.Name)
	default:
		return fmt.Errorf("rule %q has unknown kind %q", r.Name, r.Kind)
	}

	return nil
}

// validateIdentifier checks a rule name: 1-100 characters, letters, digits,
// underscores and dots, starting with a letter or underscore.
func validateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("identifier length %d exceeds maximum of 100 characters", len(name))
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("must match pattern ^[a-zA-Z_][a-zA-Z0-9_.]*$")
	}
	return nil
}

func isValidSeverity(s string) bool {
	switch s {
	case "exception", "warning", "information":
		return true
	}
	return false
}

func isValidRenderType(rt string) bool {
	switch rt {
	case "evaluateAllRules", "exitOnFirstFalseEvaluation", "exitOnFirstTrueEvaluation":
		return true
	}
	return false
}
