// Package eval scores explanations against reference texts with ROUGE and BLEU.
package eval

import (
	"fmt"
)

// Scores summarizes a scored dataset. ROUGE values are mean F-measures in
// [0, 1]; BLEU is a corpus score in [0, 100].
type Scores struct {
	Count  int     `json:"count" yaml:"count"`
	Rouge1 float64 `json:"rouge1" yaml:"rouge1"`
	Rouge2 float64 `json:"rouge2" yaml:"rouge2"`
	RougeL float64 `json:"rougeL" yaml:"rougeL"`
	BLEU   float64 `json:"bleu" yaml:"bleu"`
}

// Evaluate scores preds against refs pairwise.
func Evaluate(preds, refs []string) (Scores, error) {
	if len(preds) != len(refs) {
		return Scores{}, fmt.Errorf("got %d predictions for %d references", len(preds), len(refs))
	}
	if len(preds) == 0 {
		return Scores{}, nil
	}

	predToks := make([][]string, len(preds))
	refToks := make([][]string, len(refs))
	var s Scores
	for i := range preds {
		predToks[i] = tokenize(preds[i])
		refToks[i] = tokenize(refs[i])

		s.Rouge1 += rougeN(predToks[i], refToks[i], 1)
		s.Rouge2 += rougeN(predToks[i], refToks[i], 2)
		s.RougeL += rougeL(predToks[i], refToks[i])
	}

	n := float64(len(preds))
	s.Count = len(preds)
	s.Rouge1 /= n
	s.Rouge2 /= n
	s.RougeL /= n
	s.BLEU = corpusBLEU(predToks, refToks)
	return s, nil
}

// ExplainFunc explains one SQL query.
type ExplainFunc func(sql string) string

// EvaluatePairs explains every pair's SQL with fn and scores the results
// against the pair's reference explanation.
func EvaluatePairs(pairs []Pair, fn ExplainFunc) (Scores, error) {
	preds := make([]string, len(pairs))
	refs := make([]string, len(pairs))
	for i, p := range pairs {
		preds[i] = fn(p.SQL)
		refs[i] = p.NL
	}
	return Evaluate(preds, refs)
}

// EvaluatePredictions scores already generated predictions.
func EvaluatePredictions(preds []Prediction) (Scores, error) {
	p := make([]string, len(preds))
	r := make([]string, len(preds))
	for i, pr := range preds {
		p[i] = pr.Predicted
		r[i] = pr.Reference
	}
	return Evaluate(p, r)
}
