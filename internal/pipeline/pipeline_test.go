package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/querygate/querygate/internal/agent"
	"github.com/querygate/querygate/internal/gate"
	"github.com/querygate/querygate/internal/schema"
)

type scriptedLLM struct {
	bySystem map[string]string
	err      error
}

func (s *scriptedLLM) Complete(_ context.Context, systemPrompt, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for marker, response := range s.bySystem {
		if strings.Contains(systemPrompt, marker) {
			return response, nil
		}
	}
	return "", errors.New("no scripted response")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestPipeline wires planner and writer to one scripted model client. The
// planner and writer system prompts are distinguishable by their opening
// sentences.
func newTestPipeline(llm agent.LLMClient) *Pipeline {
	logger := testLogger()
	return New(
		agent.NewPlanner(llm, logger),
		agent.NewWriter(llm, logger),
		gate.New(gate.Config{}),
		logger,
	)
}

const accountsMetadata = `{"tables": [{"name": "accounts", "columns": [{"name": "id"}, {"name": "status"}]}]}`

func TestRunProducesValidatedResponse(t *testing.T) {
	llm := &scriptedLLM{bySystem: map[string]string{
		"You analyze": `{"schema_sufficient": true, "clarifying_questions": [], "assumptions": ["Active means status = 'active'"]}`,
		"You convert": `{"sql": "SELECT id FROM accounts WHERE status = 'active' LIMIT 10", "placeholders": []}`,
	}}
	resp, err := newTestPipeline(llm).Run(context.Background(), Request{
		Question:       "How many active accounts?",
		SchemaMetadata: json.RawMessage(accountsMetadata),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Status != gate.StatusValidated {
		t.Fatalf("status = %q, warnings = %v", resp.Status, resp.Warnings)
	}
	if resp.SQL != "SELECT id FROM accounts WHERE status = 'active' LIMIT 10" {
		t.Fatalf("SQL = %q", resp.SQL)
	}
	if len(resp.Assumptions) != 1 {
		t.Fatalf("assumptions = %v", resp.Assumptions)
	}
}

func TestRunAppendsSchemaRequestForPlaceholderDrafts(t *testing.T) {
	llm := &scriptedLLM{bySystem: map[string]string{
		"You analyze": `{"schema_sufficient": false, "clarifying_questions": ["Which date range?"], "assumptions": []}`,
		"You convert": `{"sql": "SELECT * FROM <ORDERS_TABLE> WHERE <DATE_COLUMN> > <START_DATE>", "placeholders": []}`,
	}}
	resp, err := newTestPipeline(llm).Run(context.Background(), Request{Question: "Show recent orders"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Status != gate.StatusDraft {
		t.Fatalf("status = %q", resp.Status)
	}
	if len(resp.Placeholders) != 3 {
		t.Fatalf("placeholders = %v", resp.Placeholders)
	}
	want := "Please provide your database schema to remove placeholders."
	if resp.ClarifyingQuestions[len(resp.ClarifyingQuestions)-1] != want {
		t.Fatalf("questions = %v", resp.ClarifyingQuestions)
	}
}

func TestRunDoesNotDuplicateSchemaRequest(t *testing.T) {
	llm := &scriptedLLM{bySystem: map[string]string{
		"You analyze": `{"schema_sufficient": false, "clarifying_questions": ["Can you share your schema?"], "assumptions": []}`,
		"You convert": `{"sql": "SELECT * FROM <TABLE>", "placeholders": []}`,
	}}
	resp, err := newTestPipeline(llm).Run(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(resp.ClarifyingQuestions) != 1 {
		t.Fatalf("questions = %v", resp.ClarifyingQuestions)
	}
}

func TestRunAgentFailureStillYieldsDraft(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("model unavailable")}
	resp, err := newTestPipeline(llm).Run(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Status != gate.StatusDraft {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.SQL == "" {
		t.Fatal("fallback SQL expected")
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	llm := &scriptedLLM{bySystem: map[string]string{}}
	p := newTestPipeline(llm)

	if _, err := p.Run(context.Background(), Request{Question: "  "}); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("empty question error = %v", err)
	}
	if _, err := p.Run(context.Background(), Request{Question: "q", Dialect: "oracle"}); !errors.Is(err, ErrUnsupportedDialect) {
		t.Fatalf("dialect error = %v", err)
	}

	_, err := p.Run(context.Background(), Request{Question: "q", SchemaMetadata: json.RawMessage(`{"tables": "no"}`)})
	var parseErr *schema.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("schema error = %v, want *schema.ParseError", err)
	}
}

func TestRunWithoutAgents(t *testing.T) {
	p := New(nil, nil, gate.New(gate.Config{}), testLogger())
	if _, err := p.Run(context.Background(), Request{Question: "q"}); !errors.Is(err, ErrAgentsUnavailable) {
		t.Fatalf("error = %v, want ErrAgentsUnavailable", err)
	}
}

func TestValidateWorksWithoutAgents(t *testing.T) {
	p := New(nil, nil, gate.New(gate.Config{}), testLogger())

	resp, err := p.Validate(context.Background(), "SELECT 1; DROP TABLE users;", nil, "")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if resp.Status != gate.StatusError {
		t.Fatalf("status = %q", resp.Status)
	}
	if len(resp.PolicyErrors) == 0 {
		t.Fatal("expected policy errors")
	}
}

func TestValidateMergesSchemaWarnings(t *testing.T) {
	p := New(nil, nil, gate.New(gate.Config{}), testLogger())
	metadata := json.RawMessage(`{"tables": [{"name": "accounts"}]}`)

	resp, err := p.Validate(context.Background(), "SELECT id FROM accounts LIMIT 5", metadata, "postgres")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	foundSchemaWarning := false
	for _, warning := range resp.Warnings {
		if strings.Contains(warning, "has no columns defined") {
			foundSchemaWarning = true
		}
	}
	if !foundSchemaWarning {
		t.Fatalf("schema warnings not merged: %v", resp.Warnings)
	}
}

func TestValidateRejectsEmptySQL(t *testing.T) {
	p := New(nil, nil, gate.New(gate.Config{}), testLogger())
	if _, err := p.Validate(context.Background(), "   ", nil, ""); !errors.Is(err, ErrEmptySQL) {
		t.Fatalf("error = %v, want ErrEmptySQL", err)
	}
}

func TestNormalizeDialect(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "postgres", false},
		{"Postgres", "postgres", false},
		{"MYSQL", "mysql", false},
		{"sqlite", "sqlite", false},
		{"oracle", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeDialect(tc.in)
		if tc.wantErr != (err != nil) {
			t.Errorf("NormalizeDialect(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeDialect(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
