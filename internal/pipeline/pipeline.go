// Package pipeline orchestrates one question through the stages: schema
// parsing, planning, SQL writing, and the policy gate. The agent stages are
// best-effort and never abort a request; only malformed input (bad schema
// metadata, unsupported dialect, empty question) surfaces as an error.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/querygate/querygate/internal/agent"
	"github.com/querygate/querygate/internal/gate"
	"github.com/querygate/querygate/internal/observability"
	"github.com/querygate/querygate/internal/schema"
	"github.com/querygate/querygate/internal/sqlscan"
)

const DefaultDialect = "postgres"

var supportedDialects = map[string]bool{
	"postgres": true,
	"mysql":    true,
	"sqlite":   true,
}

var (
	ErrEmptyQuestion      = errors.New("question must not be empty")
	ErrEmptySQL           = errors.New("sql must not be empty")
	ErrAgentsUnavailable  = errors.New("generation agents are not configured")
	ErrUnsupportedDialect = errors.New("unsupported dialect")
)

// NormalizeDialect lowercases and defaults the requested dialect. Dialect
// only steers the writer's prompt; the gate treats all dialects alike.
func NormalizeDialect(dialect string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(dialect))
	if normalized == "" {
		return DefaultDialect, nil
	}
	if !supportedDialects[normalized] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}
	return normalized, nil
}

// Request is one natural language question with optional schema metadata.
type Request struct {
	Question       string
	Dialect        string
	SchemaMetadata json.RawMessage
}

// Response is the wire-level outcome of a pipeline or validation run.
type Response struct {
	SQL                 string                `json:"sql"`
	Status              gate.Status           `json:"status"`
	Placeholders        []sqlscan.Placeholder `json:"placeholders"`
	Warnings            []string              `json:"warnings"`
	ClarifyingQuestions []string              `json:"clarifying_questions"`
	Assumptions         []string              `json:"assumptions"`
	PolicyErrors        []string              `json:"policy_errors"`
}

type Pipeline struct {
	planner *agent.Planner
	writer  *agent.Writer
	gate    *gate.Gate
	logger  *slog.Logger
}

// New assembles a pipeline. planner and writer may be nil when no model
// provider is configured; Run then fails with ErrAgentsUnavailable while
// Validate keeps working.
func New(planner *agent.Planner, writer *agent.Writer, g *gate.Gate, logger *slog.Logger) *Pipeline {
	return &Pipeline{planner: planner, writer: writer, gate: g, logger: logger}
}

// Run executes the full question-to-SQL pipeline.
func (p *Pipeline) Run(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{}, ErrEmptyQuestion
	}
	dialect, err := NormalizeDialect(req.Dialect)
	if err != nil {
		return Response{}, err
	}
	if p.planner == nil || p.writer == nil {
		return Response{}, ErrAgentsUnavailable
	}

	model, err := schema.Parse(req.SchemaMetadata)
	if err != nil {
		return Response{}, err
	}
	schemaWarnings := schema.Validate(model)

	plannerStart := time.Now()
	plan := p.planner.Plan(ctx, question, model, dialect)
	observability.ObserveAgentStage("planner", time.Since(plannerStart))

	writerStart := time.Now()
	draft := p.writer.Write(ctx, question, model, plan, dialect)
	observability.ObserveAgentStage("writer", time.Since(writerStart))

	outcome := p.gate.Evaluate(draft.SQL, model, dialect)
	result := gate.Resolve(outcome, plan.Assumptions)
	response := buildResponse(result, plan.ClarifyingQuestions, schemaWarnings)

	observability.ObserveQuery(string(response.Status), outcome.Findings, time.Since(start))
	p.logger.Info("pipeline completed",
		"status", response.Status,
		"dialect", dialect,
		"schema_present", model != nil,
		"placeholders", len(response.Placeholders),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return response, nil
}

// Validate runs only the deterministic stages over caller-supplied SQL.
func (p *Pipeline) Validate(ctx context.Context, sql string, schemaMetadata json.RawMessage, dialect string) (Response, error) {
	start := time.Now()

	sql = strings.TrimSpace(sql)
	if sql == "" {
		return Response{}, ErrEmptySQL
	}
	normalized, err := NormalizeDialect(dialect)
	if err != nil {
		return Response{}, err
	}
	model, err := schema.Parse(schemaMetadata)
	if err != nil {
		return Response{}, err
	}
	schemaWarnings := schema.Validate(model)

	outcome := p.gate.Evaluate(sql, model, normalized)
	result := gate.Resolve(outcome, nil)
	response := buildResponse(result, nil, schemaWarnings)

	observability.ObserveValidation(string(response.Status), time.Since(start))
	p.logger.Info("validation completed",
		"status", response.Status,
		"schema_present", model != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return response, nil
}

// buildResponse merges the gate result with the planner's questions and the
// schema's advisory warnings. A draft with unresolved placeholders gains a
// schema request unless the planner already asked for one.
func buildResponse(result gate.Result, questions []string, schemaWarnings []string) Response {
	allQuestions := make([]string, 0, len(questions)+1)
	allQuestions = append(allQuestions, questions...)
	if result.Status == gate.StatusDraft && len(result.Placeholders) > 0 && !mentionsSchema(allQuestions) {
		allQuestions = append(allQuestions, "Please provide your database schema to remove placeholders.")
	}

	warnings := make([]string, 0, len(schemaWarnings)+len(result.Warnings))
	warnings = append(warnings, schemaWarnings...)
	warnings = append(warnings, result.Warnings...)

	return Response{
		SQL:                 result.SQL,
		Status:              result.Status,
		Placeholders:        result.Placeholders,
		Warnings:            warnings,
		ClarifyingQuestions: allQuestions,
		Assumptions:         result.Assumptions,
		PolicyErrors:        result.PolicyErrors,
	}
}

func mentionsSchema(questions []string) bool {
	for _, question := range questions {
		if strings.Contains(strings.ToLower(question), "schema") {
			return true
		}
	}
	return false
}
