package evolution

import (
	"sort"
	"strings"
	"unicode"
)

// keywordSet is the in-memory representation of a pattern's keyword
// signature. It is serialized as a sorted list at the persistence boundary
// only (see persistence.go).
type keywordSet map[string]struct{}

func newKeywordSet(words ...string) keywordSet {
	s := make(keywordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func (s keywordSet) add(other keywordSet) {
	for w := range other {
		s[w] = struct{}{}
	}
}

func (s keywordSet) sorted() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// jaccard is |a ∩ b| / |a ∪ b|; zero when either set is empty.
func jaccard(a, b keywordSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	if intersection == 0 {
		return 0
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Particles and filler words dropped before keyword comparison.
var stopwords = map[string]struct{}{
	"을": {}, "를": {}, "이": {}, "가": {}, "은": {}, "는": {},
	"에": {}, "의": {}, "로": {}, "해": {}, "해줘": {}, "알려줘": {},
	"방법": {}, "뭐": {},
}

// extractKeywords tokenizes a query, lower-cases it, and drops stopwords
// and single-rune tokens.
func extractKeywords(query string) keywordSet {
	s := make(keywordSet)
	tokens := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, tok := range tokens {
		if len([]rune(tok)) <= 1 {
			continue
		}
		if _, drop := stopwords[tok]; drop {
			continue
		}
		s[tok] = struct{}{}
	}
	return s
}
