package verdict

// Result is the immutable record of one rule evaluation. Message carries
// the rule's configured message when the evaluation failed and is empty
// otherwise.
type Result struct {
	Rule    Rule
	Valid   bool
	Message string
	Target  any
}

func newResult(r Rule, valid bool) *Result {
	res := &Result{
		Rule:   r,
		Valid:  valid,
		Target: r.Target(),
	}
	if !valid {
		res.Message = r.Message()
	}
	return res
}

// resultHolder is satisfied by rules that retain per-child results from
// their last evaluation (composites, including external implementations).
type resultHolder interface {
	Results() []*Result
}

// Violations walks a result sequence and collects every invalid result a
// user may see. Invalid composites are recursed into rather than reported
// at the aggregate; a composite contributes its own message only when none
// of its descendants produced a displayable violation. Non-displayable
// violations are omitted entirely.
func Violations(results []*Result) []*Result {
	var out []*Result
	for _, res := range results {
		if res == nil || res.Valid {
			continue
		}
		if holder, ok := res.Rule.(resultHolder); ok {
			nested := Violations(holder.Results())
			if len(nested) > 0 {
				out = append(out, nested...)
				continue
			}
		}
		if res.Rule.Displayable() {
			out = append(out, res)
		}
	}
	return out
}
