package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sql2nl/internal/watch"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	ExplainOptions
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch PATH",
		Short: "Explain SQL files as they change",
		Long: `Watch a .sql file, or a directory of them, and print a fresh explanation
each time a file is written or created. Rapid successive writes to the same
file are reported once.`,
		Example: `  sql2nl watch models/
  sql2nl watch query.sql --features`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "Quiet period before a change is reported")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Model name to try before the heuristic explainer")
	cmd.Flags().BoolVar(&opts.UseModel, "use-model", false, "Try the configured default model first")
	cmd.Flags().BoolVar(&opts.Features, "features", false, "Show detected query features")

	return cmd
}

func runWatch(cmd *cobra.Command, path string, opts *WatchOptions) error {
	cc := NewCommandContext(cmd)
	tr := cc.NewTranslator()

	w, err := watch.New(watch.Config{Path: path, Debounce: opts.Debounce, Logger: cc.Logger})
	if err != nil {
		return err
	}

	cc.Logger.Info("watching for SQL changes", "path", path)
	ctx := cmd.Context()
	return w.Run(ctx, func(file string) {
		content, err := os.ReadFile(file) //nolint:gosec // path reported by the watcher
		if err != nil {
			cc.Logger.Warn("failed to read changed file", "path", file, "error", err)
			return
		}
		if err := explainOne(ctx, cc, tr, &opts.ExplainOptions, file, string(content)); err != nil {
			cc.Logger.Error("failed to render explanation", "path", file, "error", err)
		}
	})
}
