package explain

import "strings"

// NormalizedQuery is a query whose whitespace runs have been collapsed to a
// single ASCII space, with no leading or trailing whitespace.
type NormalizedQuery string

// Normalize collapses every run of whitespace (including tabs and newlines)
// into a single space and trims both ends. It never fails; whitespace-only
// input normalizes to the empty string.
func Normalize(query string) NormalizedQuery {
	return NormalizedQuery(strings.Join(strings.Fields(query), " "))
}

// IsEmpty reports whether nothing but whitespace was present in the input.
func (q NormalizedQuery) IsEmpty() bool {
	return q == ""
}

func (q NormalizedQuery) String() string {
	return string(q)
}
