// Package output renders command results in the configured output format.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sql2nl/internal/eval"
	"github.com/leapstack-labs/sql2nl/pkg/explain"
)

// Mode is an output format.
type Mode string

// Output modes.
const (
	ModeText     Mode = "text"
	ModeJSON     Mode = "json"
	ModeYAML     Mode = "yaml"
	ModeMarkdown Mode = "markdown"
)

// Explanation is one rendered explain result.
type Explanation struct {
	Source      string              `json:"source,omitempty" yaml:"source,omitempty"`
	SQL         string              `json:"sql" yaml:"sql"`
	Explanation string              `json:"explanation" yaml:"explanation"`
	Mode        string              `json:"mode" yaml:"mode"`
	Warning     string              `json:"warning,omitempty" yaml:"warning,omitempty"`
	Features    *explain.FeatureSet `json:"features,omitempty" yaml:"features,omitempty"`
}

// Renderer writes results to out and diagnostics to errOut.
type Renderer struct {
	out       io.Writer
	errOut    io.Writer
	mode      Mode
	warnStyle lipgloss.Style
}

// NewRenderer creates a renderer. Unknown modes render as text.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	switch mode {
	case ModeJSON, ModeYAML, ModeMarkdown:
	default:
		mode = ModeText
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		// Colors only when errOut is a terminal.
		warnStyle: lipgloss.NewRenderer(errOut).NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	}
}

// Mode returns the renderer's output mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// Explanation renders one explain result.
func (r *Renderer) Explanation(e Explanation) error {
	switch r.mode {
	case ModeJSON:
		return r.json(e)
	case ModeYAML:
		return r.yaml(e)
	case ModeMarkdown:
		r.warn(e.Warning)
		if e.Source != "" {
			_, _ = fmt.Fprintf(r.out, "### %s\n\n", e.Source)
		}
		_, _ = fmt.Fprintf(r.out, "```sql\n%s\n```\n\n%s\n", strings.TrimSpace(e.SQL), e.Explanation)
		if e.Features != nil {
			_, _ = fmt.Fprintln(r.out)
			t := featureTable(*e.Features)
			t.SetOutputMirror(r.out)
			t.RenderMarkdown()
		}
		return nil
	default:
		r.warn(e.Warning)
		if e.Source != "" {
			_, _ = fmt.Fprintf(r.out, "%s: ", e.Source)
		}
		_, _ = fmt.Fprintln(r.out, e.Explanation)
		if e.Features != nil {
			t := featureTable(*e.Features)
			t.SetOutputMirror(r.out)
			t.SetStyle(table.StyleLight)
			t.Render()
		}
		return nil
	}
}

// Scores renders evaluation scores.
func (r *Renderer) Scores(s eval.Scores) error {
	switch r.mode {
	case ModeJSON:
		return r.json(s)
	case ModeYAML:
		return r.yaml(s)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Metric", "Score"})
	t.AppendRows([]table.Row{
		{"examples", s.Count},
		{"rouge1", formatScore(s.Rouge1)},
		{"rouge2", formatScore(s.Rouge2)},
		{"rougeL", formatScore(s.RougeL)},
		{"bleu", formatScore(s.BLEU)},
	})
	if r.mode == ModeMarkdown {
		t.RenderMarkdown()
		return nil
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

// Warn writes a highlighted diagnostic line.
func (r *Renderer) Warn(msg string) {
	r.warn(msg)
}

func (r *Renderer) warn(msg string) {
	if msg == "" {
		return
	}
	_, _ = fmt.Fprintln(r.errOut, r.warnStyle.Render("warning: "+msg))
}

func (r *Renderer) json(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) yaml(v any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func featureTable(f explain.FeatureSet) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Feature", "Value"})

	tables := "-"
	if len(f.Tables) > 0 {
		tables = strings.Join(f.Tables, ", ")
	}
	columns := "-"
	if f.ProjectedColumns != nil {
		columns = *f.ProjectedColumns
	}
	limit := "-"
	if f.LimitValue != nil {
		limit = f.LimitValue.String()
	}

	t.AppendRows([]table.Row{
		{"tables", tables},
		{"columns", columns},
		{"where", yesNo(f.HasWhere)},
		{"group by", yesNo(f.HasGroupBy)},
		{"order by", yesNo(f.HasOrderBy)},
		{"window", yesNo(f.HasWindowFunction)},
		{"qualify", yesNo(f.HasQualify)},
		{"spectrum", yesNo(f.HasSpectrum)},
		{"system tables", yesNo(f.HasSystemTables)},
		{"limit", limit},
	})
	return t
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
