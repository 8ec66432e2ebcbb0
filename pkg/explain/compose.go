package explain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sentinel explanations.
const (
	EmptyExplanation   = "Empty SQL."
	GenericExplanation = "Describes a Redshift SQL query."
)

const (
	maxColumnsLen  = 120
	truncColumnsAt = 117
)

// Fragment keys, one per detectable feature.
const (
	KeyTables       = "tables"
	KeyColumns      = "columns"
	KeyWhere        = "where"
	KeyGroupBy      = "group_by"
	KeyWindow       = "window"
	KeyQualify      = "qualify"
	KeyOrderBy      = "order_by"
	KeyLimit        = "limit"
	KeySpectrum     = "spectrum"
	KeySystemTables = "system_tables"
)

// Fragment is one rendered sentence describing a single feature.
type Fragment struct {
	Key  string `json:"key" yaml:"key"`
	Text string `json:"text" yaml:"text"`
}

// Fragments renders f as sentences in a fixed order. The order never depends
// on where a construct appears in the query: window functions always precede
// QUALIFY, and so on.
func Fragments(f FeatureSet) []Fragment {
	out := make([]Fragment, 0, 10)
	add := func(key, text string) {
		out = append(out, Fragment{Key: key, Text: text})
	}

	if len(f.Tables) > 0 {
		add(KeyTables, fmt.Sprintf("Reads from %s.", strings.Join(f.Tables, ", ")))
	} else {
		add(KeyTables, "Reads from an unspecified table or source.")
	}

	if f.ProjectedColumns != nil {
		cols := strings.TrimSpace(*f.ProjectedColumns)
		if cols == "*" {
			add(KeyColumns, "Selects all columns.")
		} else {
			add(KeyColumns, fmt.Sprintf("Selects: %s.", truncateColumns(*f.ProjectedColumns)))
		}
	}

	if f.HasWhere {
		add(KeyWhere, "Filters rows with a WHERE clause.")
	}
	if f.HasGroupBy {
		add(KeyGroupBy, "Aggregates using GROUP BY.")
	}
	if f.HasWindowFunction {
		add(KeyWindow, "Computes window functions (OVER ...).")
	}
	if f.HasQualify {
		add(KeyQualify, "Applies QUALIFY to filter by window results (Redshift).")
	}
	if f.HasOrderBy {
		add(KeyOrderBy, "Orders the result with ORDER BY.")
	}
	if f.LimitValue != nil {
		add(KeyLimit, fmt.Sprintf("Limits output to %s rows.", f.LimitValue))
	}
	if f.HasSpectrum {
		add(KeySpectrum, "References Redshift Spectrum (external data).")
	}
	if f.HasSystemTables {
		add(KeySystemTables, "Queries Redshift system tables (SVV_/STL_/PG_).")
	}

	return out
}

// Compose renders f into the final explanation text. Empty input always
// yields EmptyExplanation regardless of f.
func Compose(f FeatureSet, isEmptyInput bool) string {
	if isEmptyInput {
		return EmptyExplanation
	}
	return joinFragments(Fragments(f))
}

// joinFragments keeps the first fragment as the lead sentence and appends the
// rest after a single space.
func joinFragments(frags []Fragment) string {
	switch len(frags) {
	case 0:
		return GenericExplanation
	case 1:
		return frags[0].Text
	}

	rest := make([]string, 0, len(frags)-1)
	for _, f := range frags[1:] {
		rest = append(rest, f.Text)
	}
	return frags[0].Text + " " + strings.Join(rest, " ")
}

// truncateColumns shortens a column list longer than maxColumnsLen characters
// to truncColumnsAt characters plus an ellipsis. Lengths count runes.
func truncateColumns(cols string) string {
	if utf8.RuneCountInString(cols) <= maxColumnsLen {
		return cols
	}
	return string([]rune(cols)[:truncColumnsAt]) + "..."
}
