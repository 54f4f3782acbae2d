// querygate-check validates a single SQL statement from the command line
// using the same deterministic policy gate as the API, without touching any
// model provider.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/querygate/querygate/internal/gate"
	"github.com/querygate/querygate/internal/pipeline"
)

var (
	schemaPath  string
	dialect     string
	maxRowLimit int
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:   "querygate-check [sql]",
	Short: "Validate a SQL statement against safety policies and an optional schema",
	Long: `querygate-check runs the deterministic policy gate over one SQL statement:
it rejects multi-statement input and dangerous operations, enforces a row
limit on unbounded SELECTs, reports unresolved placeholders, and checks
table and column references against a JSON schema description when one is
provided.

The statement is read from the arguments, or from stdin when none are given.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "Path to JSON schema metadata")
	rootCmd.Flags().StringVarP(&dialect, "dialect", "d", "", "SQL dialect (postgres, mysql, sqlite)")
	rootCmd.Flags().IntVarP(&maxRowLimit, "limit", "l", gate.DefaultMaxRowLimit, "Row limit enforced on unbounded SELECT statements")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the raw validation result as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(2)
	}
}

func run(cmd *cobra.Command, args []string) error {
	sql := strings.TrimSpace(strings.Join(args, " "))
	if sql == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		sql = strings.TrimSpace(string(raw))
	}
	if sql == "" {
		return fmt.Errorf("no SQL given: pass a statement as an argument or on stdin")
	}

	var schemaMetadata json.RawMessage
	if schemaPath != "" {
		raw, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("read schema file: %w", err)
		}
		schemaMetadata = raw
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.New(nil, nil, gate.New(gate.Config{MaxRowLimit: maxRowLimit}), logger)
	result, err := p.Validate(cmd.Context(), sql, schemaMetadata, dialect)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		printReport(os.Stdout, result)
	}

	if result.Status == gate.StatusError {
		os.Exit(1)
	}
	return nil
}

func printReport(out io.Writer, result pipeline.Response) {
	fmt.Fprintf(out, "Status: %s\n", statusColor(result.Status).Sprint(result.Status))
	fmt.Fprintf(out, "SQL:    %s\n", color.CyanString(result.SQL))

	for _, policyError := range result.PolicyErrors {
		fmt.Fprintf(out, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("✘"), policyError)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "%s %s\n", color.New(color.FgYellow, color.Bold).Sprint("!"), warning)
	}
	if len(result.Placeholders) > 0 {
		fmt.Fprintln(out, "Placeholders:")
		for _, placeholder := range result.Placeholders {
			fmt.Fprintf(out, "  %s  %s\n", color.MagentaString(placeholder.Token), placeholder.Meaning)
		}
	}
	if result.Status == gate.StatusValidated {
		fmt.Fprintln(out, color.GreenString("✔ statement passed all checks"))
	}
}

func statusColor(status gate.Status) *color.Color {
	switch status {
	case gate.StatusValidated:
		return color.New(color.FgGreen, color.Bold)
	case gate.StatusDraft:
		return color.New(color.FgYellow, color.Bold)
	case gate.StatusReviewRequired:
		return color.New(color.FgBlue, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}
