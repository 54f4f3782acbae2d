package gate

import "github.com/querygate/querygate/internal/sqlscan"

// Status is the terminal classification of one validation pass.
type Status string

const (
	// StatusValidated means the SQL passed every check and is safe to hand back.
	StatusValidated Status = "validated"
	// StatusDraft means the SQL is usable but incomplete: placeholders remain,
	// the schema was missing, or identifiers could not be verified.
	StatusDraft Status = "draft"
	// StatusReviewRequired means the statement modifies data and a human must
	// confirm it before execution.
	StatusReviewRequired Status = "review_required"
	// StatusError means a fatal policy violation; the SQL must not be executed.
	StatusError Status = "error"
)

// Result is the wire-level artifact of a validation pass.
type Result struct {
	SQL          string                `json:"sql"`
	Status       Status                `json:"status"`
	Placeholders []sqlscan.Placeholder `json:"placeholders"`
	Warnings     []string              `json:"warnings"`
	PolicyErrors []string              `json:"policy_errors"`
	Assumptions  []string              `json:"assumptions"`
}

// Resolve folds a gate outcome and the agents' stated assumptions into the
// final result. Status precedence, strongest first: error, draft,
// review_required, validated. Draft outranks review_required so that a
// modifying statement with unresolved placeholders is reported as incomplete
// rather than merely pending review.
//
// All slice fields are non-nil so they encode as JSON arrays, never null.
func Resolve(outcome Outcome, assumptions []string) Result {
	result := Result{
		SQL:          outcome.SQL,
		Placeholders: make([]sqlscan.Placeholder, 0, len(outcome.Placeholders)),
		Warnings:     make([]string, 0, len(outcome.Warnings)),
		PolicyErrors: make([]string, 0),
		Assumptions:  make([]string, 0, len(assumptions)),
	}
	result.Placeholders = append(result.Placeholders, outcome.Placeholders...)
	result.Warnings = append(result.Warnings, outcome.Warnings...)
	result.Assumptions = append(result.Assumptions, assumptions...)

	for _, finding := range outcome.Findings {
		switch finding.Kind {
		case FindingMultiStatement, FindingDangerousOperation:
			result.PolicyErrors = append(result.PolicyErrors, finding.Detail)
		}
	}

	switch {
	case len(result.PolicyErrors) > 0:
		result.Status = StatusError
	case len(outcome.Placeholders) > 0,
		outcome.HasFinding(FindingMissingSchema),
		outcome.HasFinding(FindingUnknownIdentifier):
		result.Status = StatusDraft
	case outcome.HasFinding(FindingModifyingStatement):
		result.Status = StatusReviewRequired
	default:
		result.Status = StatusValidated
	}
	return result
}
