package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/sql2nl/internal/cli/config"
	"github.com/leapstack-labs/sql2nl/internal/cli/output"
	"github.com/leapstack-labs/sql2nl/internal/translate"
	"github.com/leapstack-labs/sql2nl/pkg/predict"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the config and logger the
// root command stored in cmd's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}
}

// NewTranslator creates a translator backed by the configured model
// endpoint, or a heuristic-only translator when none is configured.
func (c *CommandContext) NewTranslator() *translate.Translator {
	var resolver predict.Resolver
	if c.Cfg.ModelConfigured() {
		p, err := predict.NewHTTPPredictor(c.Cfg.PredictConfig(c.Logger))
		if err != nil {
			c.Logger.Warn("model endpoint unusable, using heuristic explanations only", "error", err)
		} else {
			resolver = p
		}
	}
	return translate.New(translate.Config{Resolver: resolver, Logger: c.Logger})
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
