package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sql2nl/internal/eval"
	"github.com/leapstack-labs/sql2nl/internal/translate"
)

// EvalOptions holds options for the eval command.
type EvalOptions struct {
	Pairs    string
	Preds    string
	Model    string
	UseModel bool
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	opts := &EvalOptions{}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score explanations with ROUGE and BLEU",
		Long: `Score explanations against reference texts.

--pairs reads JSONL records {"sql", "nl"}, explains each query and scores the
result against "nl". --preds reads JSONL records {"nl_pred", "nl_true"} and
scores existing predictions.

Reports ROUGE-1, ROUGE-2 and ROUGE-L F-measures averaged over examples, and
corpus BLEU on a 0-100 scale.`,
		Example: `  # Score the heuristic explainer
  sql2nl eval --pairs data/test.jsonl

  # Score predictions produced elsewhere
  sql2nl eval --preds preds.jsonl -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEval(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Pairs, "pairs", "", "JSONL file of {sql, nl} records")
	cmd.Flags().StringVar(&opts.Preds, "preds", "", "JSONL file of {nl_pred, nl_true} records")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Model name to try before the heuristic explainer (with --pairs)")
	cmd.Flags().BoolVar(&opts.UseModel, "use-model", false, "Try the configured default model first (with --pairs)")
	cmd.MarkFlagsMutuallyExclusive("pairs", "preds")
	cmd.MarkFlagsOneRequired("pairs", "preds")

	return cmd
}

func runEval(cmd *cobra.Command, opts *EvalOptions) error {
	cc := NewCommandContext(cmd)

	var (
		scores eval.Scores
		err    error
	)
	switch {
	case opts.Pairs != "":
		pairs, lerr := eval.LoadPairsFile(opts.Pairs)
		if lerr != nil {
			return lerr
		}
		tr := cc.NewTranslator()
		fallbacks := 0
		scores, err = eval.EvaluatePairs(pairs, func(sql string) string {
			res := tr.Translate(cmd.Context(), translate.Request{SQL: sql, Model: opts.Model, UseModel: opts.UseModel})
			if res.Fallback() {
				fallbacks++
			}
			return res.Explanation
		})
		if fallbacks > 0 {
			cc.Renderer.Warn(fmt.Sprintf("%d of %d examples fell back to the heuristic explainer", fallbacks, len(pairs)))
		}

	case opts.Preds != "":
		preds, lerr := eval.LoadPredictionsFile(opts.Preds)
		if lerr != nil {
			return lerr
		}
		scores, err = eval.EvaluatePredictions(preds)

	default:
		return errors.New("one of --pairs or --preds is required")
	}
	if err != nil {
		return err
	}

	cc.Logger.Debug("evaluation finished", "examples", scores.Count)
	return cc.Renderer.Scores(scores)
}
