// Package translate chooses between model inference and the heuristic
// explainer for a single query.
package translate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sql2nl/pkg/explain"
	"github.com/leapstack-labs/sql2nl/pkg/predict"
)

// Mode records which path produced an explanation.
type Mode string

const (
	// ModeLLM means the trained model produced the explanation.
	ModeLLM Mode = "llm"
	// ModeBaseline means the heuristic explainer produced the explanation.
	ModeBaseline Mode = "baseline"
)

// Request is one query to translate.
type Request struct {
	SQL string
	// Model names the model to try. The model path is attempted only when
	// Model is set or UseModel is true.
	Model    string
	UseModel bool
}

func (r Request) wantsModel() bool {
	return r.Model != "" || r.UseModel
}

// Result is either a model explanation, or a baseline explanation plus the
// reason the model could not be used.
type Result struct {
	Explanation string `json:"explanation" yaml:"explanation"`
	Mode        Mode   `json:"mode" yaml:"mode"`
	Warning     string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// Fallback reports whether the model was requested but not used.
func (r Result) Fallback() bool {
	return r.Mode == ModeBaseline && r.Warning != ""
}

// Config configures a Translator.
type Config struct {
	// Resolver supplies model predictors. Nil means no model is configured.
	Resolver predict.Resolver
	Logger   *slog.Logger
}

// Translator produces explanations, preferring the model when asked to and
// always falling back to the heuristic explainer.
type Translator struct {
	resolver predict.Resolver
	logger   *slog.Logger
}

// New creates a Translator.
func New(cfg Config) *Translator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Translator{
		resolver: cfg.Resolver,
		logger:   logger,
	}
}

// ModelConfigured reports whether a model resolver is available.
func (t *Translator) ModelConfigured() bool {
	return t.resolver != nil
}

// Translate explains req.SQL. It never fails: any model error is logged and
// reported in Result.Warning alongside the heuristic explanation.
func (t *Translator) Translate(ctx context.Context, req Request) Result {
	if !req.wantsModel() {
		return baseline(req.SQL, "")
	}

	text, err := t.predict(ctx, req)
	if err != nil {
		t.logger.Warn("model inference failed, using heuristic explanation",
			"model", req.Model,
			"timeout", predict.IsTimeout(err),
			"error", err,
		)
		return baseline(req.SQL, err.Error())
	}

	t.logger.Debug("model explanation produced", "model", req.Model)
	return Result{Explanation: text, Mode: ModeLLM}
}

func (t *Translator) predict(ctx context.Context, req Request) (text string, err error) {
	if t.resolver == nil {
		return "", predict.ErrNotConfigured
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("model inference panicked: %v", r)
		}
	}()

	p, err := t.resolver.Resolve(req.Model)
	if err != nil {
		return "", fmt.Errorf("failed to load model %q: %w", req.Model, err)
	}
	return p.Predict(ctx, req.SQL)
}

func baseline(sql, warning string) Result {
	return Result{
		Explanation: explain.Explain(sql),
		Mode:        ModeBaseline,
		Warning:     warning,
	}
}
