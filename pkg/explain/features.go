package explain

import (
	"math/big"
	"regexp"
	"sort"
	"strings"
)

// FeatureSet holds the structural facts detected in a query.
// Every field is derived from the query text alone.
type FeatureSet struct {
	// Tables lists distinct FROM/JOIN targets in first-seen order, as written
	// in the query minus surrounding double quotes.
	Tables []string `json:"tables" yaml:"tables"`

	// ProjectedColumns is the whitespace-normalized text between SELECT and
	// FROM, or nil when no such span exists.
	ProjectedColumns *string `json:"projected_columns,omitempty" yaml:"projected_columns,omitempty"`

	HasWhere          bool `json:"has_where" yaml:"has_where"`
	HasGroupBy        bool `json:"has_group_by" yaml:"has_group_by"`
	HasOrderBy        bool `json:"has_order_by" yaml:"has_order_by"`
	HasWindowFunction bool `json:"has_window_function" yaml:"has_window_function"`
	HasQualify        bool `json:"has_qualify" yaml:"has_qualify"`
	HasSpectrum       bool `json:"has_spectrum" yaml:"has_spectrum"`
	HasSystemTables   bool `json:"has_system_tables" yaml:"has_system_tables"`

	// LimitValue is the row count of the first LIMIT clause, or nil. It holds
	// the digits exactly as written, so counts of any size survive.
	LimitValue *big.Int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// space matches every rune unicode.IsSpace accepts; RE2's \s is ASCII only.
const space = `[\s\v\p{Z}\x{85}]`

var (
	fromTargetRe = regexp.MustCompile(`(?i)\bfrom` + space + `+([a-z0-9_."]+)`)
	joinTargetRe = regexp.MustCompile(`(?i)\bjoin` + space + `+([a-z0-9_."]+)`)
	selectListRe = regexp.MustCompile(`(?is)select` + space + `+(.*?)` + space + `+from\b`)
	limitRe      = regexp.MustCompile(`(?i)\blimit\s+(\d+)`)
)

// systemTablePrefixes are the Redshift catalog prefixes (SVV_*, STL_*, PG_*).
var systemTablePrefixes = []string{"svv_", "stl_", "pg_"}

// systemPrefixRe is a cheap pre-check; word lexing only runs when it matches.
var systemPrefixRe = regexp.MustCompile(`(?i)(svv|stl|pg)_`)

// flagDetector sets one boolean feature when its predicate holds for the
// normalized query. Detectors are independent of each other.
type flagDetector struct {
	name   string
	detect func(q NormalizedQuery, ws func() []string) bool
	set    func(f *FeatureSet)
}

func matches(re *regexp.Regexp) func(NormalizedQuery, func() []string) bool {
	return func(q NormalizedQuery, _ func() []string) bool {
		return re.MatchString(string(q))
	}
}

var flagDetectors = []flagDetector{
	{
		name:   "where",
		detect: matches(regexp.MustCompile(`(?i)\bwhere\b`)),
		set:    func(f *FeatureSet) { f.HasWhere = true },
	},
	{
		name:   "group_by",
		detect: matches(regexp.MustCompile(`(?i)\bgroup\s+by\b`)),
		set:    func(f *FeatureSet) { f.HasGroupBy = true },
	},
	{
		name:   "order_by",
		detect: matches(regexp.MustCompile(`(?i)\border\s+by\b`)),
		set:    func(f *FeatureSet) { f.HasOrderBy = true },
	},
	{
		name:   "window",
		detect: matches(regexp.MustCompile(`(?i)\bover\s*\(`)),
		set:    func(f *FeatureSet) { f.HasWindowFunction = true },
	},
	{
		name:   "qualify",
		detect: matches(regexp.MustCompile(`(?i)\bqualify\b`)),
		set:    func(f *FeatureSet) { f.HasQualify = true },
	},
	{
		name:   "spectrum",
		detect: matches(regexp.MustCompile(`(?i)\bexternal\s+schema\b|\bspectrum\b`)),
		set:    func(f *FeatureSet) { f.HasSpectrum = true },
	},
	{
		name:   "system_tables",
		detect: hasSystemTables,
		set:    func(f *FeatureSet) { f.HasSystemTables = true },
	},
}

func hasSystemTables(q NormalizedQuery, ws func() []string) bool {
	if !systemPrefixRe.MatchString(string(q)) {
		return false
	}
	return hasWordPrefix(ws(), systemTablePrefixes...)
}

// Extract scans query for structural features. Tables and the projected
// column list are read from the original text so casing and quoting survive;
// clause flags and LIMIT are read from normalized.
func Extract(query string, normalized NormalizedQuery) FeatureSet {
	f := FeatureSet{
		Tables:           findTables(query),
		ProjectedColumns: findSelectList(query),
		LimitValue:       findLimit(normalized),
	}

	var cached []string
	lexed := false
	ws := func() []string {
		if !lexed {
			cached = words(normalized)
			lexed = true
		}
		return cached
	}

	for _, d := range flagDetectors {
		if d.detect(normalized, ws) {
			d.set(&f)
		}
	}
	return f
}

type tableMatch struct {
	offset int
	name   string
}

// findTables collects FROM and JOIN targets in textual order, deduplicated
// by exact string.
func findTables(query string) []string {
	var found []tableMatch
	for _, re := range []*regexp.Regexp{fromTargetRe, joinTargetRe} {
		for _, m := range re.FindAllStringSubmatchIndex(query, -1) {
			name := strings.Trim(query[m[2]:m[3]], `"`)
			if name == "" {
				continue
			}
			found = append(found, tableMatch{offset: m[2], name: name})
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].offset < found[j].offset
	})

	tables := make([]string, 0, len(found))
	seen := make(map[string]struct{}, len(found))
	for _, t := range found {
		if _, ok := seen[t.name]; ok {
			continue
		}
		seen[t.name] = struct{}{}
		tables = append(tables, t.name)
	}
	return tables
}

func findSelectList(query string) *string {
	m := selectListRe.FindStringSubmatch(query)
	if m == nil {
		return nil
	}
	cols := string(Normalize(m[1]))
	if cols == "" {
		return nil
	}
	return &cols
}

func findLimit(q NormalizedQuery) *big.Int {
	m := limitRe.FindStringSubmatch(string(q))
	if m == nil {
		return nil
	}
	n, ok := new(big.Int).SetString(m[1], 10)
	if !ok {
		return nil
	}
	return n
}
