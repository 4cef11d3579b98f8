package action

import (
	"context"
	"errors"
	"testing"

	"github.com/verdict-engine/verdict"
)

func TestNewActionDefaults(t *testing.T) {
	a := New("noop", Hooks{})

	if a.Result() != Unknown {
		t.Errorf("Result = %v, want Unknown", a.Result())
	}
	if !a.AllowExecution() {
		t.Error("AllowExecution should start true")
	}
	if a.Validation() == nil {
		t.Fatal("action should own a validation context")
	}
	if a.Validation().State() != verdict.NotEvaluated {
		t.Errorf("fresh context state = %v, want NotEvaluated", a.Validation().State())
	}
	if a.ID().String() == "" {
		t.Error("action should carry an identity")
	}
}

func TestPhasesRunInDeclaredOrder(t *testing.T) {
	var phases []string
	mark := func(name string) func(*Action) {
		return func(*Action) { phases = append(phases, name) }
	}

	a := New("ordered", Hooks{
		Start:       mark("start"),
		Audit:       mark("audit"),
		PreValidate: mark("preValidate"),
		PostValidate: mark("postValidate"),
		PreExecute:  mark("preExecute"),
		Perform: func(context.Context, *Action) error {
			phases = append(phases, "perform")
			return nil
		},
		PostExecute:    mark("postExecute"),
		ValidateResult: mark("validateResult"),
		Finish:         mark("finish"),
	})

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	want := []string{
		"start", "audit", "preValidate", "postValidate",
		"preExecute", "perform", "postExecute", "validateResult", "finish",
	}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phases = %v, want %v", phases, want)
		}
	}
}

func TestFailedValidationSkipsDelegate(t *testing.T) {
	performCalls := 0

	a := New("gated", Hooks{
		PreValidate: func(a *Action) {
			a.Validation().AddRule(verdict.IsTrue("never", "value must be true", false))
		},
		Perform: func(context.Context, *Action) error {
			performCalls++
			return nil
		},
	})

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if performCalls != 0 {
		t.Errorf("delegate called %d times, want 0", performCalls)
	}
	if a.AllowExecution() {
		t.Error("AllowExecution should be cleared by a violation")
	}
	if a.Result() != Fail {
		t.Errorf("Result = %v, want Fail", a.Result())
	}
	if len(a.Messages()) != 1 || a.Messages()[0] != "value must be true" {
		t.Errorf("Messages = %v, want the rule's configured message", a.Messages())
	}
}

func TestPassingValidationRunsDelegate(t *testing.T) {
	performCalls := 0

	a := New("allowed", Hooks{
		PreValidate: func(a *Action) {
			a.Validation().AddRule(verdict.NotNil("present", "value required", "here"))
		},
		Perform: func(context.Context, *Action) error {
			performCalls++
			return nil
		},
	})

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if performCalls != 1 {
		t.Errorf("delegate called %d times, want 1", performCalls)
	}
	if a.Result() != Success {
		t.Errorf("Result = %v, want Success", a.Result())
	}
	if len(a.Messages()) != 0 {
		t.Errorf("Messages = %v, want none", a.Messages())
	}
}

func TestDelegateFailureYieldsFail(t *testing.T) {
	boom := errors.New("storage unavailable")

	a := New("doomed", Hooks{
		Perform: func(context.Context, *Action) error {
			return boom
		},
	})

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() should not raise for a delegate failure: %v", err)
	}

	if a.Result() != Fail {
		t.Errorf("Result = %v, want Fail even though validation passed", a.Result())
	}
	if !errors.Is(a.Err(), boom) {
		t.Errorf("Err() = %v, want the delegate error", a.Err())
	}
}

func TestHiddenViolationGatesWithoutMessage(t *testing.T) {
	performCalls := 0

	a := New("internal", Hooks{
		PreValidate: func(a *Action) {
			a.Validation().AddRule(
				verdict.IsTrue("quota", "quota exhausted", false, verdict.Hidden()),
			)
		},
		Perform: func(context.Context, *Action) error {
			performCalls++
			return nil
		},
	})

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if performCalls != 0 {
		t.Error("non-displayable violation must still gate execution")
	}
	if a.Result() != Fail {
		t.Errorf("Result = %v, want Fail", a.Result())
	}
	if len(a.Messages()) != 0 {
		t.Errorf("Messages = %v, want none for a hidden violation", a.Messages())
	}
}

func TestCompositeViolationsDistilledRecursively(t *testing.T) {
	a := New("nested", Hooks{
		PreValidate: func(a *Action) {
			score := verdict.Range("score", "score must be between 1 and 10", 15, 1, 10)
			a.Validation().AddRule(score)
		},
	})

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if len(a.Messages()) != 1 {
		t.Fatalf("Messages = %v, want the failing bound's message", a.Messages())
	}
	if a.Messages()[0] != "score must be between 1 and 10" {
		t.Errorf("message = %q", a.Messages()[0])
	}
}

func TestFinishRunsOnConfigurationDefect(t *testing.T) {
	finished := false
	var cur *string

	a := New("defective", Hooks{
		PreValidate: func(a *Action) {
			a.Validation().AddRule(verdict.NewLeaf("bad", "failed", nil, func(any) bool {
				return *cur == "x"
			}))
		},
		Finish: func(*Action) { finished = true },
	})

	err := a.Execute(context.Background())
	if err == nil {
		t.Fatal("Execute() should surface a configuration defect")
	}
	if !finished {
		t.Error("Finish must run even when validation aborts")
	}
	if a.Result() != Fail {
		t.Errorf("Result = %v, want Fail", a.Result())
	}
}

func TestFinishRunsWhenGateClosed(t *testing.T) {
	finished := false

	a := New("gated", Hooks{
		PreValidate: func(a *Action) {
			a.Validation().AddRule(verdict.IsTrue("never", "nope", false))
		},
		Finish: func(*Action) { finished = true },
	})

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !finished {
		t.Error("Finish must run even when execution was skipped")
	}
}

func TestActionIsSingleUse(t *testing.T) {
	a := New("once", Hooks{})

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("first Execute() failed: %v", err)
	}
	if err := a.Execute(context.Background()); err == nil {
		t.Fatal("second Execute() should fail")
	}
	if a.Result() != Success {
		t.Errorf("Result = %v, want Success fixed from the first run", a.Result())
	}
}

func TestDelegateFailureReachesReporter(t *testing.T) {
	rep := &recordingReporter{}

	a := New("reported", Hooks{
		Perform: func(context.Context, *Action) error {
			return errors.New("downstream timeout")
		},
	}, WithReporter(rep))

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if len(rep.events) != 1 || rep.events[0] != "reported: downstream timeout" {
		t.Errorf("reporter events = %v", rep.events)
	}
}

type recordingReporter struct {
	events []string
}

func (r *recordingReporter) Record(source string, _ verdict.Severity, message string) {
	r.events = append(r.events, source+": "+message)
}
