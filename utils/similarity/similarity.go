package similarity

import (
	"strings"
	"unicode"
)

// Score calculates the similarity between two titles as a value between
// 0.0 (completely different) and 1.0 (identical). It combines a token-set
// overlap measure with a Levenshtein ratio and returns the larger of the two,
// so word reordering ("Der Herr der Ringe" vs "Herr der Ringe, Der") and small
// spelling variants both score high.
func Score(s1, s2 string) float64 {
	n1 := Normalize(s1)
	n2 := Normalize(s2)

	if n1 == n2 {
		return 1.0
	}
	if n1 == "" || n2 == "" {
		return 0.0
	}

	token := tokenSetScore(n1, n2)
	lev := levenshteinRatio(n1, n2)
	if token > lev {
		return token
	}
	return lev
}

// Normalize lowercases a title and strips everything except letters, digits
// and single spaces. Dots, dashes, underscores and colons become spaces and
// "&" becomes "and" so release-name spellings compare equal.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.' || r == '-' || r == '_' || r == ':':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSetScore is the Jaccard overlap of the two titles' distinct token sets.
func tokenSetScore(n1, n2 string) float64 {
	t1 := strings.Fields(n1)
	t2 := strings.Fields(n2)
	if len(t1) == 0 || len(t2) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(t1))
	for _, tok := range t1 {
		set[tok] = struct{}{}
	}
	union := make(map[string]struct{}, len(t1)+len(t2))
	for _, tok := range t1 {
		union[tok] = struct{}{}
	}
	shared := make(map[string]struct{})
	for _, tok := range t2 {
		if _, ok := set[tok]; ok {
			shared[tok] = struct{}{}
		}
		union[tok] = struct{}{}
	}
	return float64(len(shared)) / float64(len(union))
}

func levenshteinRatio(n1, n2 string) float64 {
	dist := levenshtein(n1, n2)
	maxLen := len(n1)
	if len(n2) > maxLen {
		maxLen = len(n2)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

func levenshtein(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
