// Package action runs business commands behind a validation gate. An
// Action owns a fresh verdict.Context, walks a fixed phase sequence, and
// performs its effect only when validation passed. Deep template-method
// hierarchies are flattened into one pipeline struct configured with hook
// functions.
package action

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/verdict-engine/verdict"
)

// Result is the terminal outcome of an executed action.
type Result int

const (
	// Unknown means the action has not finished executing.
	Unknown Result = iota
	// Success means validation passed and the effect completed.
	Success
	// Fail means validation failed or the effect errored.
	Fail
)

func (r Result) String() string {
	switch r {
	case Unknown:
		return "unknown"
	case Success:
		return "success"
	case Fail:
		return "fail"
	default:
		return "invalid"
	}
}

// Hooks are the overridable phases of the pipeline, in execution order.
// Every hook defaults to a no-op. Perform is the only hook permitted to do
// I/O; it receives the caller's context and delegates to the external
// collaborator. The surrounding phases are synchronous orchestration.
type Hooks struct {
	// Start runs first, before anything else.
	Start func(*Action)
	// Audit runs after Start, before validation.
	Audit func(*Action)
	// PreValidate is where a concrete action registers its rules:
	// a.Validation().AddRule(...).
	PreValidate func(*Action)
	// PostValidate runs after rules were rendered and violations (if any)
	// were distilled into messages.
	PostValidate func(*Action)
	// PreExecute runs just before the execution gate.
	PreExecute func(*Action)
	// Perform is the effect. It executes only if validation passed; its
	// error is captured, not raised.
	Perform func(context.Context, *Action) error
	// PostExecute runs after the gate regardless of whether Perform ran.
	PostExecute func(*Action)
	// ValidateResult runs after the built-in result derivation.
	ValidateResult func(*Action)
	// Finish is unconditional cleanup; it always runs, even when earlier
	// phases cleared the execution gate or validation was aborted.
	Finish func(*Action)
}

// Action is a single-use gated command. Create one per business operation,
// execute it once, read the result surface, discard it.
type Action struct {
	id         uuid.UUID
	name       string
	validation *verdict.Context
	allow      bool
	result     Result
	messages   []string
	execErr    error
	hooks      Hooks
	reporter   verdict.Reporter
	executed   bool
}

// Option configures an Action at construction time.
type Option func(*Action)

// WithReporter forwards validation and lifecycle events to the sink.
func WithReporter(r verdict.Reporter) Option {
	return func(a *Action) { a.reporter = r }
}

// New builds an action with a fresh, exclusively-owned validation context.
func New(name string, hooks Hooks, opts ...Option) *Action {
	a := &Action{
		id:       uuid.New(),
		name:     name,
		allow:    true,
		result:   Unknown,
		hooks:    hooks,
		reporter: verdict.NopReporter{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.validation = verdict.NewContext(verdict.WithReporter(a.reporter))
	return a
}

// ID returns the action's identity.
func (a *Action) ID() uuid.UUID { return a.id }

// Name returns the action's name.
func (a *Action) Name() string { return a.name }

// Validation returns the action's owned context. Register rules on it from
// the PreValidate hook.
func (a *Action) Validation() *verdict.Context { return a.validation }

// AllowExecution reports whether the effect may still run. It starts true
// and is cleared when validation fails.
func (a *Action) AllowExecution() bool { return a.allow }

// Result returns the terminal outcome; Unknown until Execute completes.
func (a *Action) Result() Result { return a.result }

// Messages returns the ordered user-facing messages distilled from
// displayable violations.
func (a *Action) Messages() []string { return a.messages }

// Err returns the execution error captured from Perform, if any.
func (a *Action) Err() error { return a.execErr }

// Execute runs the pipeline phases strictly in order:
//
//	start, audit, preValidate, evaluateRules, postValidate,
//	preExecute, performAction, postExecute, validateActionResult, finish.
//
// Violations never abort the pipeline; it completes normally with a Fail
// result. Execute returns an error only when a rule configuration defect
// aborts the validation run, or when the action was already executed.
// Finish runs even on an aborted run.
func (a *Action) Execute(ctx context.Context) error {
	if a.executed {
		return fmt.Errorf("action %s already executed", a.name)
	}
	a.executed = true

	a.call(a.hooks.Start)
	a.call(a.hooks.Audit)
	a.call(a.hooks.PreValidate)

	if _, err := a.validation.Render(); err != nil {
		a.result = Fail
		a.call(a.hooks.Finish)
		return fmt.Errorf("action %s: %w", a.name, err)
	}

	a.postValidate()
	a.call(a.hooks.PostValidate)
	a.call(a.hooks.PreExecute)

	if a.allow && a.hooks.Perform != nil {
		if err := a.hooks.Perform(ctx, a); err != nil {
			a.execErr = err
			a.reporter.Record(a.name, verdict.SeverityException, err.Error())
		}
	}

	a.call(a.hooks.PostExecute)
	a.validateResult()
	a.call(a.hooks.ValidateResult)
	a.call(a.hooks.Finish)
	return nil
}

// postValidate distills the verdict: every displayable violation becomes a
// user-facing message, and any violation at all, displayable or not,
// closes the execution gate.
func (a *Action) postValidate() {
	if !a.validation.HasViolations() {
		return
	}
	for _, v := range a.validation.Violations() {
		a.messages = append(a.messages, v.Message)
	}
	a.allow = false
}

// validateResult fixes the terminal outcome. Violations force Fail;
// otherwise the result derives from the collaborator's reported outcome.
func (a *Action) validateResult() {
	switch {
	case a.validation.HasViolations():
		a.result = Fail
	case a.execErr != nil:
		a.result = Fail
	default:
		a.result = Success
	}
}

func (a *Action) call(hook func(*Action)) {
	if hook != nil {
		hook(a)
	}
}
