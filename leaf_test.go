package verdict

import "testing"

func TestNotNil(t *testing.T) {
	var nilPtr *int
	testCases := []struct {
		name   string
		target any
		want   bool
	}{
		{"present string", "hello", true},
		{"present zero int", 0, true},
		{"nil", nil, false},
		{"typed nil pointer", nilPtr, false},
		{"nil map", map[string]any(nil), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule := NotNil("present", "value is required", tc.target)
			res, err := rule.Evaluate()
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if res.Valid != tc.want {
				t.Errorf("Valid = %v, want %v", res.Valid, tc.want)
			}
		})
	}
}

func TestBooleanRules(t *testing.T) {
	testCases := []struct {
		name   string
		rule   *LeafRule
		want   bool
	}{
		{"isTrue on true", IsTrue("t", "must be set", true), true},
		{"isTrue on false", IsTrue("t", "must be set", false), false},
		{"isTrue on nil", IsTrue("t", "must be set", nil), false},
		{"isTrue on non-bool", IsTrue("t", "must be set", "yes"), false},
		{"isFalse on false", IsFalse("f", "must be unset", false), true},
		{"isFalse on true", IsFalse("f", "must be unset", true), false},
		{"isFalse on nil", IsFalse("f", "must be unset", nil), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := tc.rule.Evaluate()
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if res.Valid != tc.want {
				t.Errorf("Valid = %v, want %v", res.Valid, tc.want)
			}
		})
	}
}

func TestNumericBounds(t *testing.T) {
	testCases := []struct {
		name   string
		rule   *LeafRule
		want   bool
	}{
		{"min met", Min("m", "too small", 5, 1), true},
		{"min equal", Min("m", "too small", 1, 1), true},
		{"min violated", Min("m", "too small", 0, 1), false},
		{"min on nil", Min("m", "too small", nil, 1), false},
		{"min on string", Min("m", "too small", "5", 1), false},
		{"min on float target", Min("m", "too small", 2.5, 1), true},
		{"max met", Max("m", "too large", 5, 10), true},
		{"max equal", Max("m", "too large", 10, 10), true},
		{"max violated", Max("m", "too large", 15, 10), false},
		{"max on nil", Max("m", "too large", nil, 10), false},
		{"max on int64", Max("m", "too large", int64(7), 10), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := tc.rule.Evaluate()
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if res.Valid != tc.want {
				t.Errorf("Valid = %v, want %v", res.Valid, tc.want)
			}
		})
	}
}

func TestEquality(t *testing.T) {
	testCases := []struct {
		name string
		rule *LeafRule
		want bool
	}{
		{"equal strings", Equals("e", "mismatch", "ok", "ok"), true},
		{"unequal strings", Equals("e", "mismatch", "ok", "nope"), false},
		{"int equals float", Equals("e", "mismatch", 5, 5.0), true},
		{"nil target", Equals("e", "mismatch", nil, "x"), false},
		{"not equals", NotEquals("n", "collision", "a", "b"), true},
		{"not equals violated", NotEquals("n", "collision", "a", "a"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := tc.rule.Evaluate()
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if res.Valid != tc.want {
				t.Errorf("Valid = %v, want %v", res.Valid, tc.want)
			}
		})
	}
}

func TestStringLengthRules(t *testing.T) {
	testCases := []struct {
		name string
		rule *LeafRule
		want bool
	}{
		{"minLength met", MinLength("l", "too short", "abc", 3), true},
		{"minLength violated", MinLength("l", "too short", "ab", 3), false},
		{"minLength on nil", MinLength("l", "too short", nil, 3), false},
		{"maxLength met", MaxLength("l", "too long", "abc", 3), true},
		{"maxLength violated", MaxLength("l", "too long", "abcd", 3), false},
		{"length within bounds", Length("l", "bad length", "abc", 1, 5), true},
		{"length at max", Length("l", "bad length", "abcde", 1, 5), true},
		{"length on non-string", Length("l", "bad length", 42, 1, 5), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := tc.rule.Evaluate()
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if res.Valid != tc.want {
				t.Errorf("Valid = %v, want %v", res.Valid, tc.want)
			}
		})
	}
}

// TestTitleLengthScenario covers the bounded-length failure shape: the
// result carries the rule's configured message and the original target.
func TestTitleLengthScenario(t *testing.T) {
	rule := Length("TitleLen", "title must be between 3 and 200 characters", "ab", 3, 200)

	res, err := rule.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if res.Valid {
		t.Fatal("two-character title should be invalid")
	}
	if res.Message != "title must be between 3 and 200 characters" {
		t.Errorf("Message = %q, want configured message", res.Message)
	}
	if res.Target != "ab" {
		t.Errorf("Target = %v, want original target", res.Target)
	}
	if res.Rule.Name() != "TitleLen" {
		t.Errorf("Rule name = %s, want TitleLen", res.Rule.Name())
	}
}

func TestResultMessageEmptyOnSuccess(t *testing.T) {
	rule := NotNil("present", "value is required", "here")
	res, _ := rule.Evaluate()
	if !res.Valid {
		t.Fatal("rule should pass")
	}
	if res.Message != "" {
		t.Errorf("Message on success = %q, want empty", res.Message)
	}
}

func TestRuleOptions(t *testing.T) {
	rule := NotNil("opt", "msg", nil,
		WithPriority(7),
		WithSeverity(SeverityWarning),
		Hidden(),
	)

	if rule.Priority() != 7 {
		t.Errorf("Priority = %d, want 7", rule.Priority())
	}
	if rule.Severity() != SeverityWarning {
		t.Errorf("Severity = %v, want warning", rule.Severity())
	}
	if rule.Displayable() {
		t.Error("Hidden() rule should not be displayable")
	}
}

func TestRuleDefaults(t *testing.T) {
	rule := NotNil("d", "msg", nil)

	if rule.Priority() != 0 {
		t.Errorf("default Priority = %d, want 0", rule.Priority())
	}
	if !rule.Displayable() {
		t.Error("rules should be displayable by default")
	}
	if rule.Severity() != SeverityException {
		t.Errorf("default Severity = %v, want exception", rule.Severity())
	}
}
