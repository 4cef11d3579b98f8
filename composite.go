package verdict

import "sort"

// CompositeRule owns an ordered set of child rules and derives its verdict
// from theirs. Children are walked in ascending priority (stable, so ties
// keep declaration order) under the policy selected by RenderType. The
// composite retains the child results of its last evaluation for
// inspection and recursive violation collection.
type CompositeRule struct {
	base
	renderType RenderType
	children   []Rule
	results    []*Result
}

// Composite builds an empty composite; add children with Add. The
// composite's own verdict is never evaluated independently of its
// children.
func Composite(name, message string, target any, rt RenderType, opts ...Option) *CompositeRule {
	return &CompositeRule{
		base:       newBase(name, message, target, opts...),
		renderType: rt,
	}
}

// Add appends child rules in declaration order. It returns the composite
// so construction can be chained.
func (c *CompositeRule) Add(rules ...Rule) *CompositeRule {
	c.children = append(c.children, rules...)
	return c
}

// RenderType reports the child-walk policy.
func (c *CompositeRule) RenderType() RenderType { return c.renderType }

// Children returns the child rules in declaration order.
func (c *CompositeRule) Children() []Rule { return c.children }

// Results returns the child results retained from the last evaluation, in
// evaluation order. Children skipped by an early-exit policy have no
// result.
func (c *CompositeRule) Results() []*Result { return c.results }

// HasErrors reports whether any retained child result is invalid.
func (c *CompositeRule) HasErrors() bool {
	for _, res := range c.results {
		if !res.Valid {
			return true
		}
	}
	return false
}

// Evaluate walks the children per the render policy and returns the
// aggregate result. A child returning an error aborts the walk; that is a
// configuration defect, not a violation.
func (c *CompositeRule) Evaluate() (*Result, error) {
	ordered := sortByPriority(c.children)
	c.results = make([]*Result, 0, len(ordered))

	valid := true
	if c.renderType == ExitOnFirstTrueEvaluation {
		valid = false
	}

	for _, child := range ordered {
		res, err := child.Evaluate()
		if err != nil {
			return nil, err
		}
		c.results = append(c.results, res)

		switch c.renderType {
		case EvaluateAllRules:
			if !res.Valid {
				valid = false
			}
		case ExitOnFirstFalseEvaluation:
			if !res.Valid {
				return newResult(c, false), nil
			}
		case ExitOnFirstTrueEvaluation:
			if res.Valid {
				return newResult(c, true), nil
			}
		}
	}

	return newResult(c, valid), nil
}

// Range is a convenience composite checking that a numeric target is
// present and within [start, end] inclusive: a presence check plus a
// minimum and a maximum bound, evaluated under EvaluateAllRules.
func Range(name, message string, target any, start, end float64, opts ...Option) *CompositeRule {
	c := Composite(name, message, target, EvaluateAllRules, opts...)
	c.Add(
		NotNil(name+".present", message, target),
		Min(name+".min", message, target, start, WithPriority(1)),
		Max(name+".max", message, target, end, WithPriority(2)),
	)
	return c
}

// sortByPriority returns a copy ordered by ascending priority. The sort is
// stable so equal priorities keep declaration order.
func sortByPriority(rules []Rule) []Rule {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})
	return ordered
}
