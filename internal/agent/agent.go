// Package agent holds the two generation agents: the planner, which assesses
// whether a question is answerable against the supplied schema, and the
// writer, which produces candidate SQL. Both talk to a chat-completion model
// through the LLMClient interface and degrade to safe fallback outputs when
// the model is unreachable or returns something unparseable. Nothing in this
// package trusts model output; the policy gate re-checks everything.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/querygate/querygate/internal/schema"
	"github.com/querygate/querygate/internal/sqlscan"
)

// LLMClient issues a single chat completion with a system and a user prompt.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// PlannerOutput is the planner's structured assessment of one question.
type PlannerOutput struct {
	SchemaSufficient    bool     `json:"schema_sufficient"`
	ClarifyingQuestions []string `json:"clarifying_questions"`
	Assumptions         []string `json:"assumptions"`
}

// WriterOutput is the writer's candidate SQL with its declared placeholders.
// The policy gate re-derives placeholders from the SQL itself; the declared
// list is informational only.
type WriterOutput struct {
	SQL          string                `json:"sql"`
	Placeholders []sqlscan.Placeholder `json:"placeholders"`
}

const plannerSystemPrompt = `You analyze natural language questions about databases before SQL is written.
Assess whether the provided schema is sufficient to answer the question, list clarifying questions for anything ambiguous, and document assumptions you would make to proceed.
Respond with a single JSON object: {"schema_sufficient": bool, "clarifying_questions": [string], "assumptions": [string]}.
No markdown, no prose outside the JSON.`

const writerSystemPrompt = `You convert natural language questions into a single SQL statement.
Use only tables and columns from the provided schema. When the schema is missing or lacks an identifier, use angle-bracket placeholders such as <TABLE> or <DATE_COLUMN> instead of guessing.
Never emit more than one statement and never emit DDL or permission statements.
Respond with a single JSON object: {"sql": string, "placeholders": [{"token": string, "meaning": string}]}.
No markdown, no prose outside the JSON.`

// Planner assesses questions before SQL generation.
type Planner struct {
	client LLMClient
	logger *slog.Logger
}

func NewPlanner(client LLMClient, logger *slog.Logger) *Planner {
	return &Planner{client: client, logger: logger}
}

// Plan asks the model whether the question is answerable. It never returns an
// error: a failed or unparseable completion yields a conservative output that
// marks the schema insufficient and asks the user to retry.
func (p *Planner) Plan(ctx context.Context, question string, model *schema.Schema, dialect string) PlannerOutput {
	content, err := p.client.Complete(ctx, plannerSystemPrompt, plannerUserPrompt(question, model, dialect))
	if err != nil {
		p.logger.Warn("planner completion failed", "error", err)
		return PlannerOutput{
			ClarifyingQuestions: []string{"An error occurred during planning. Please try again."},
		}
	}
	return parsePlannerOutput(p.logger, content)
}

func plannerUserPrompt(question string, model *schema.Schema, dialect string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", question)
	fmt.Fprintf(&b, "Dialect: %s\n\n", dialect)
	b.WriteString("Schema:\n")
	if model == nil || model.IsEmpty() {
		b.WriteString("(No schema provided)")
	} else {
		b.WriteString(model.PromptString())
	}
	return b.String()
}

func parsePlannerOutput(logger *slog.Logger, content string) PlannerOutput {
	var out PlannerOutput
	if err := json.Unmarshal([]byte(stripFence(content)), &out); err != nil {
		logger.Warn("planner returned non-JSON output", "error", err)
		return PlannerOutput{
			ClarifyingQuestions: []string{"Could not parse planning response. Please provide more details."},
		}
	}
	return out
}

// Writer generates candidate SQL for a planned question.
type Writer struct {
	client LLMClient
	logger *slog.Logger
}

func NewWriter(client LLMClient, logger *slog.Logger) *Writer {
	return &Writer{client: client, logger: logger}
}

// fallbackOutput is returned when no usable SQL can be obtained; the
// placeholders make the gap explicit instead of inventing identifiers.
func fallbackOutput() WriterOutput {
	return WriterOutput{
		SQL: "SELECT * FROM <TABLE> WHERE <CONDITION>",
		Placeholders: []sqlscan.Placeholder{
			{Token: "<TABLE>", Meaning: "Target table"},
			{Token: "<CONDITION>", Meaning: "Filter condition"},
		},
	}
}

// Write asks the model for candidate SQL. Like Plan it never returns an
// error; failures produce the placeholder fallback statement.
func (w *Writer) Write(ctx context.Context, question string, model *schema.Schema, plan PlannerOutput, dialect string) WriterOutput {
	content, err := w.client.Complete(ctx, writerSystemPrompt, writerUserPrompt(question, model, plan, dialect))
	if err != nil {
		w.logger.Warn("writer completion failed", "error", err)
		return fallbackOutput()
	}
	return parseWriterOutput(content)
}

func writerUserPrompt(question string, model *schema.Schema, plan PlannerOutput, dialect string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", question)
	fmt.Fprintf(&b, "Dialect: %s\n\n", dialect)
	b.WriteString("Schema:\n")
	if model == nil || model.IsEmpty() {
		b.WriteString("(No schema provided - use placeholders)")
	} else {
		b.WriteString(model.CompactString())
	}
	if len(plan.Assumptions) > 0 {
		b.WriteString("\n\nAssumptions to apply:")
		for _, assumption := range plan.Assumptions {
			fmt.Fprintf(&b, "\n- %s", assumption)
		}
	}
	return b.String()
}

// parseWriterOutput accepts the requested JSON shape, but models sometimes
// answer with bare SQL anyway; a response that leads with a statement keyword
// is taken as-is with its placeholders rescanned.
func parseWriterOutput(content string) WriterOutput {
	cleaned := stripFence(content)
	if cleaned == "" {
		return fallbackOutput()
	}

	var out WriterOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		if strings.TrimSpace(out.SQL) == "" {
			return fallbackOutput()
		}
		out.SQL = strings.TrimSpace(out.SQL)
		return out
	}

	if looksLikeSQL(cleaned) {
		return WriterOutput{SQL: cleaned, Placeholders: sqlscan.ExtractPlaceholders(cleaned)}
	}
	return fallbackOutput()
}

func looksLikeSQL(s string) bool {
	upper := strings.ToUpper(s)
	for _, prefix := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "WITH"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

// stripFence unwraps a markdown code fence, tolerating json and sql info
// strings, and leaves unfenced content untouched.
func stripFence(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```sql")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
