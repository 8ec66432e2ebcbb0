package explain

// Analysis is the full result of explaining one query.
type Analysis struct {
	Normalized  NormalizedQuery `json:"normalized" yaml:"normalized"`
	Features    FeatureSet      `json:"features" yaml:"features"`
	Fragments   []Fragment      `json:"fragments" yaml:"fragments"`
	Explanation string          `json:"explanation" yaml:"explanation"`
}

// Empty reports whether the analyzed query contained only whitespace.
func (a Analysis) Empty() bool {
	return a.Normalized.IsEmpty()
}

// Analyze runs the normalize, extract and compose stages over sql.
// It accepts any string and never fails.
func Analyze(sql string) Analysis {
	normalized := Normalize(sql)
	if normalized.IsEmpty() {
		return Analysis{
			Normalized:  normalized,
			Features:    FeatureSet{Tables: []string{}},
			Fragments:   []Fragment{},
			Explanation: EmptyExplanation,
		}
	}

	features := Extract(sql, normalized)
	frags := Fragments(features)
	return Analysis{
		Normalized:  normalized,
		Features:    features,
		Fragments:   frags,
		Explanation: joinFragments(frags),
	}
}

// Explain returns a one-to-two sentence explanation of sql.
func Explain(sql string) string {
	return Analyze(sql).Explanation
}
