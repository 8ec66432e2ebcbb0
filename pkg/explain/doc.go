// Package explain turns a Redshift SQL query into a short plain-English explanation.
//
// The explainer is heuristic: it does not parse SQL into a tree. A query flows through
// three stages that hold no state between calls:
//
//   - Normalize: collapses whitespace runs into single spaces and trims the ends.
//   - Extract: scans the query for tables, the projected column list, clause keywords
//     and Redshift-specific constructs (QUALIFY, Spectrum, system tables).
//   - Compose: renders the detected features as ordered sentence fragments.
//
// Malformed or non-SQL input never fails; it simply yields fewer features.
//
// # Basic Usage
//
//	text := explain.Explain("SELECT * FROM public.users LIMIT 5;")
//	// Reads from public.users. Selects all columns. Limits output to 5 rows.
//
// For structured output use Analyze, which also returns the feature set and the
// individual fragments:
//
//	a := explain.Analyze(sql)
//	for _, f := range a.Fragments {
//	    fmt.Printf("%s: %s\n", f.Key, f.Text)
//	}
//
// All functions are safe for concurrent use.
package explain
