package eval

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// bleuOrder is the highest n-gram order used by BLEU.
const bleuOrder = 4

// tokenize case-folds s and splits it on anything that is not a letter or digit.
func tokenize(s string) []string {
	folded := cases.Fold().String(s)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func ngrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

// overlap returns the clipped n-gram matches and the n-gram totals of pred and ref.
func overlap(pred, ref []string, n int) (matches, predTotal, refTotal int) {
	p := ngrams(pred, n)
	r := ngrams(ref, n)
	for g, c := range p {
		predTotal += c
		if rc, ok := r[g]; ok {
			matches += min(c, rc)
		}
	}
	for _, c := range r {
		refTotal += c
	}
	return matches, predTotal, refTotal
}

func fMeasure(hits, predTotal, refTotal int) float64 {
	if hits == 0 || predTotal == 0 || refTotal == 0 {
		return 0
	}
	p := float64(hits) / float64(predTotal)
	r := float64(hits) / float64(refTotal)
	return 2 * p * r / (p + r)
}

// rougeN is the ROUGE-N F-measure of pred against ref.
func rougeN(pred, ref []string, n int) float64 {
	m, pt, rt := overlap(pred, ref, n)
	return fMeasure(m, pt, rt)
}

// rougeL is the longest-common-subsequence F-measure of pred against ref.
func rougeL(pred, ref []string) float64 {
	return fMeasure(lcsLength(pred, ref), len(pred), len(ref))
}

func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// corpusBLEU computes BLEU-4 over the whole corpus on a 0-100 scale. Orders
// above one use add-one smoothing so short sentences do not zero the score.
func corpusBLEU(preds, refs [][]string) float64 {
	var matches, totals [bleuOrder]int
	var predLen, refLen int

	for i := range preds {
		predLen += len(preds[i])
		refLen += len(refs[i])
		for n := 1; n <= bleuOrder; n++ {
			m, pt, _ := overlap(preds[i], refs[i], n)
			matches[n-1] += m
			totals[n-1] += pt
		}
	}

	if predLen == 0 || matches[0] == 0 {
		return 0
	}

	var logSum float64
	for n := 0; n < bleuOrder; n++ {
		num, den := float64(matches[n]), float64(totals[n])
		if n > 0 {
			num++
			den++
		}
		logSum += math.Log(num / den)
	}

	bp := 1.0
	if predLen < refLen {
		bp = math.Exp(1 - float64(refLen)/float64(predLen))
	}
	return 100 * bp * math.Exp(logSum/bleuOrder)
}
