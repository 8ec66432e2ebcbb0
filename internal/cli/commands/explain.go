package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sql2nl/internal/cli/output"
	"github.com/leapstack-labs/sql2nl/internal/translate"
	"github.com/leapstack-labs/sql2nl/pkg/explain"
)

// ExplainOptions holds options for the explain command.
type ExplainOptions struct {
	Input    string
	Model    string
	UseModel bool
	Features bool
}

func (o *ExplainOptions) request(sql string) translate.Request {
	return translate.Request{SQL: sql, Model: o.Model, UseModel: o.UseModel}
}

// NewExplainCommand creates the explain command.
func NewExplainCommand() *cobra.Command {
	opts := &ExplainOptions{}

	cmd := &cobra.Command{
		Use:   "explain [SQL...]",
		Short: "Explain a Redshift SQL query in plain English",
		Long: `Explain a Redshift SQL query in plain English.

SQL is taken from the arguments, from --input, or from piped stdin. With no
SQL and an interactive terminal, explain starts a REPL.

By default the heuristic explainer is used. --model or --use-model try the
configured model endpoint first and fall back to the heuristic explanation
when it fails.`,
		Example: `  # Explain a query
  sql2nl explain "SELECT * FROM public.users LIMIT 5;"

  # Explain a file and show detected features
  sql2nl explain -i query.sql --features

  # Pipe SQL in and emit JSON
  cat query.sql | sql2nl explain -o json

  # Try a model first
  sql2nl explain --model t5-redshift "SELECT * FROM stl_query"

  # Interactive mode
  sql2nl explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Model name to try before the heuristic explainer")
	cmd.Flags().BoolVar(&opts.UseModel, "use-model", false, "Try the configured default model first")
	cmd.Flags().BoolVar(&opts.Features, "features", false, "Show detected query features")

	return cmd
}

func runExplain(cmd *cobra.Command, args []string, opts *ExplainOptions) error {
	cc := NewCommandContext(cmd)
	tr := cc.NewTranslator()

	var sql, source string
	switch {
	case len(args) > 0:
		sql = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sql, source = string(content), opts.Input
	case !isTerminal(cmd.InOrStdin()):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sql = string(content)
	default:
		return runExplainREPL(cmd, cc, tr, opts)
	}

	return explainOne(cmd.Context(), cc, tr, opts, source, sql)
}

func explainOne(ctx context.Context, cc *CommandContext, tr *translate.Translator, opts *ExplainOptions, source, sql string) error {
	res := tr.Translate(ctx, opts.request(sql))
	cc.Logger.Debug("explained query", "source", source, "mode", res.Mode, "bytes", len(sql))

	e := output.Explanation{
		Source:      source,
		SQL:         sql,
		Explanation: res.Explanation,
		Mode:        string(res.Mode),
		Warning:     res.Warning,
	}
	if opts.Features {
		f := explain.Analyze(sql).Features
		e.Features = &f
	}
	return cc.Renderer.Explanation(e)
}
