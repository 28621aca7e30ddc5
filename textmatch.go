package quizsystem

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizeAnswer applies NFKC, case folding, drops punctuation and
// collapses whitespace.
func normalizeAnswer(s string) string {
	// Caser is stateful, so each call gets its own
	s = cases.Fold().String(norm.NFKC.String(s))
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r):
			// skip
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, r)
		}
	}
	return string(out)
}

// canonicalChoices turns "C, a" and "A,C" into the same sorted form
func canonicalChoices(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '、' || unicode.IsSpace(r)
	})
	for i, f := range fields {
		fields[i] = normalizeAnswer(f)
	}
	sort.Strings(fields)
	return strings.Join(fields, ",")
}

// answerSimilarity returns 1 for equivalent answers and approaches 0 as the
// edit distance grows relative to the longer answer.
func answerSimilarity(reference, answer string) float64 {
	a := normalizeAnswer(reference)
	b := normalizeAnswer(answer)
	if a == b {
		return 1
	}
	if canonicalChoices(reference) == canonicalChoices(answer) {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	d := levenshtein(a, b)
	return 1 - float64(d)/float64(longest)
}

// levenshtein computes edit distance (insertion, deletion, substitution cost 1).
func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			dp[j] = min(dp[j]+1, dp[j-1]+1, prev+cost)
			prev = tmp
		}
	}
	return dp[m]
}
