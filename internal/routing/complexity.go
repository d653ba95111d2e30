package routing

import (
	"regexp"
	"strings"
	"unicode"
)

// =============================================================================
// COMPLEXITY ANALYZER
// =============================================================================
// Scores a query's structural complexity and detects parallel/collaborative
// intent. Pure function over the query text: deterministic, no side effects.

// Keyword categories contributing to the complexity score. Korean and
// English cues are matched the same way (substring on the lowered query).
var complexityIndicators = []struct {
	category string
	keywords []string
}{
	{"implementation", []string{"구현", "implement", "만들어", "작성", "build", "create", "개발", "develop", "코드"}},
	{"parallel", []string{"그리고", "하고", "and", "또한", "동시에", "병렬로"}},
	{"collaboration", []string{"검토", "review", "확인", "validate", "후에", "다음에", "then"}},
	{"design", []string{"설계", "design", "아키텍처", "architecture", "구조"}},
}

// Phrasings that mark a pure "what is X" question.
var simplePatterns = []*regexp.Regexp{
	regexp.MustCompile(`뭐야\??$`),
	regexp.MustCompile(`뭔가요\??$`),
	regexp.MustCompile(`what is`),
	regexp.MustCompile(`알려줘$`),
	regexp.MustCompile(`설명해줘$`),
	regexp.MustCompile(`explain`),
	regexp.MustCompile(`tell me`),
}

// Chained-clause connectives. Two or more occurrences mean three or more
// chained tasks, which reads as parallelizable work.
var parallelConnectives = []string{"하고", "그리고", " and "}

const (
	categoryWeight      = 0.15
	implementationBonus = 0.2
	parallelBonus       = 0.3
	collaborativeBonus  = 0.3
	simpleScoreCeiling  = 0.25
)

// ComplexityAnalyzer scores query complexity from fixed keyword tables.
type ComplexityAnalyzer struct{}

// NewComplexityAnalyzer creates a new analyzer.
func NewComplexityAnalyzer() *ComplexityAnalyzer {
	return &ComplexityAnalyzer{}
}

// Analyze computes the complexity profile of a query.
func (ca *ComplexityAnalyzer) Analyze(query string) ComplexityAnalysis {
	lower := strings.ToLower(query)

	isSimple := false
	for _, pattern := range simplePatterns {
		if pattern.MatchString(lower) {
			isSimple = true
			break
		}
	}

	indicators := make(map[string]int, len(complexityIndicators))
	score := 0.0
	for _, cat := range complexityIndicators {
		count := 0
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		indicators[cat.category] = count
		score += float64(count) * categoryWeight
	}

	connectives := 0
	for _, c := range parallelConnectives {
		connectives += strings.Count(lower, c)
	}
	isParallel := connectives >= 2

	// Pure review requests without a design component are not collaborative.
	isCollaborative := indicators["collaboration"] >= 1 && indicators["design"] > 0

	if indicators["implementation"] > 0 {
		score += implementationBonus
	}
	if isParallel {
		score += parallelBonus
	}
	if isCollaborative {
		score += collaborativeBonus
	}

	// A "what is X" question never reads as complex, even with stray keywords.
	if isSimple && !isParallel && !isCollaborative {
		score = min(score, simpleScoreCeiling)
	}
	score = min(score, 1.0)

	return ComplexityAnalysis{
		Score:           score,
		IsParallel:      isParallel,
		IsCollaborative: isCollaborative,
		Indicators:      indicators,
	}
}

// tokenize splits text into lowered word tokens, including non-ASCII words.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
