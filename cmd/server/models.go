package main

import (
	"github.com/verdict-engine/verdict"
	"github.com/verdict-engine/verdict/ruleset"
)

// API request and response models.

// ValidateRequest asks for a verdict on a target document.
type ValidateRequest struct {
	RulesetID string         `json:"rulesetId"`
	Target    map[string]any `json:"target"`
}

// SubmitRequest runs the gated submission action for a target document.
type SubmitRequest struct {
	RulesetID string         `json:"rulesetId"`
	Target    map[string]any `json:"target"`
}

// RulesetRequest creates or replaces a ruleset definition. ID is optional
// on create; a UUID is assigned when omitted.
type RulesetRequest struct {
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Active      bool              `json:"active"`
	Rules       []ruleset.RuleDef `json:"rules"`
}

// RuleResultView is one top-level rule outcome in a verdict response.
type RuleResultView struct {
	Rule        string `json:"rule"`
	Valid       bool   `json:"valid"`
	Message     string `json:"message,omitempty"`
	Severity    string `json:"severity"`
	Displayable bool   `json:"displayable"`
}

// VerdictResponse is the validation surface returned to callers.
type VerdictResponse struct {
	RulesetID      string           `json:"rulesetId"`
	State          string           `json:"state"`
	Valid          bool             `json:"valid"`
	Results        []RuleResultView `json:"results"`
	Violations     []string         `json:"violations,omitempty"`
	EvaluationTime string           `json:"evaluationTime"`
}

// SubmissionResponse is the action-result surface returned to callers.
type SubmissionResponse struct {
	ActionID     string   `json:"actionId"`
	Result       string   `json:"result"`
	Messages     []string `json:"messages,omitempty"`
	SubmissionID string   `json:"submissionId,omitempty"`
}

func resultViews(results []*verdict.Result) []RuleResultView {
	views := make([]RuleResultView, 0, len(results))
	for _, res := range results {
		views = append(views, RuleResultView{
			Rule:        res.Rule.Name(),
			Valid:       res.Valid,
			Message:     res.Message,
			Severity:    res.Rule.Severity().String(),
			Displayable: res.Rule.Displayable(),
		})
	}
	return views
}

func violationMessages(vc *verdict.Context) []string {
	violations := vc.Violations()
	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		messages = append(messages, v.Message)
	}
	return messages
}
