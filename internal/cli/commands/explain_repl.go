package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sql2nl/internal/translate"
)

const (
	replPrompt     = "sql2nl> "
	replContPrompt = "   ...> "
)

func runExplainREPL(cmd *cobra.Command, cc *CommandContext, tr *translate.Translator, opts *ExplainOptions) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile(),
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "sql2nl explain REPL")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "End statements with ';'. Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	s := &replSession{
		ctx:  cmd.Context(),
		out:  cmd.OutOrStdout(),
		errw: cmd.ErrOrStderr(),
		cc:   cc,
		tr:   tr,
		opts: *opts,
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if err != nil {
			break
		}

		if s.handleLine(line) {
			break
		}
		if s.buf.Len() > 0 {
			rl.SetPrompt(replContPrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
	return nil
}

// replSession accumulates input lines into statements and explains each
// statement once it is terminated by a semicolon.
type replSession struct {
	ctx  context.Context
	out  io.Writer
	errw io.Writer
	cc   *CommandContext
	tr   *translate.Translator
	opts ExplainOptions
	buf  strings.Builder
}

// handleLine processes one line of input and reports whether the session should end.
func (s *replSession) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if s.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return s.handleDotCommand(line)
	}

	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString("\n")
		return false
	}

	sql := s.buf.String()
	s.buf.Reset()
	if err := explainOne(s.ctx, s.cc, s.tr, &s.opts, "", sql); err != nil {
		_, _ = fmt.Fprintf(s.errw, "Error: %v\n", err)
	}
	_, _ = fmt.Fprintln(s.out)
	return false
}

func (s *replSession) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".features":
		s.opts.Features = !s.opts.Features
		_, _ = fmt.Fprintf(s.out, "features: %s\n", onOff(s.opts.Features))

	case ".model":
		if len(parts) < 2 {
			s.opts.Model = ""
			s.opts.UseModel = false
			_, _ = fmt.Fprintln(s.out, "model: off")
			return false
		}
		s.opts.Model = parts[1]
		_, _ = fmt.Fprintf(s.out, "model: %s\n", s.opts.Model)
		if !s.tr.ModelConfigured() {
			s.cc.Renderer.Warn("no model endpoint is configured; explanations will use the heuristic explainer")
		}

	default:
		_, _ = fmt.Fprintf(s.errw, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .features       Toggle the feature table
  .model [name]   Try the named model first; no name turns the model off
  .quit / .exit   Exit the REPL

Tips:
  - Statements may span lines and must end with a semicolon (;)
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func newREPLCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".features"),
		readline.PcItem(".model"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

// historyFile returns the REPL history path under the user cache directory,
// or "" when there is none.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "sql2nl")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
