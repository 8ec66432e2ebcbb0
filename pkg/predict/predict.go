// Package predict provides the model-inference path for SQL explanations.
//
// A Predictor asks a trained text-generation model to explain a query. Model
// inference is slow and fallible; callers are expected to bound every call
// with a context deadline and to fall back to the heuristic explainer in
// pkg/explain when it fails.
package predict

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured is returned when no inference endpoint is available.
	ErrNotConfigured = errors.New("model inference is not configured")

	// ErrEmptyPrediction is returned when the model produced no text.
	ErrEmptyPrediction = errors.New("model returned an empty explanation")
)

// Predictor produces a natural-language explanation of a SQL query.
type Predictor interface {
	Predict(ctx context.Context, sql string) (string, error)
}

// PredictorFunc adapts an ordinary function to the Predictor interface.
type PredictorFunc func(ctx context.Context, sql string) (string, error)

// Predict calls f(ctx, sql).
func (f PredictorFunc) Predict(ctx context.Context, sql string) (string, error) {
	return f(ctx, sql)
}

// Resolver looks up the predictor for a named model. An empty name selects
// the default model.
type Resolver interface {
	Resolve(model string) (Predictor, error)
}

// instructionTemplate is the prompt the explanation models were fine-tuned on.
const instructionTemplate = "You are a technical writer. Convert the following Amazon Redshift SQL query " +
	"into a concise, plain-English explanation for an analyst. " +
	"Mention any Redshift-specific features (QUALIFY, Spectrum external tables, DISTKEY/SORTKEY, system tables) if present. " +
	"Be accurate and keep it under 2 sentences.\n\n" +
	"SQL:\n%s\n\nExplanation:"

// InstructionPrompt wraps sql in the model's instruction prompt.
func InstructionPrompt(sql string) string {
	return fmt.Sprintf(instructionTemplate, strings.TrimSpace(sql))
}
