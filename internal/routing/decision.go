// Package routing implements the hybrid routing core: complexity analysis,
// keyword-based document matching, and execution-mode decisions with an
// optional LLM-backed fallback for low-confidence queries.
package routing

// ExecutionMode is one of the four execution strategies a query can be
// routed to.
type ExecutionMode string

const (
	ModeSkillOnly  ExecutionMode = "skill_only"  // single-document answer
	ModeSkillAgent ExecutionMode = "skill_agent" // document + one persona
	ModeParallel   ExecutionMode = "parallel"    // independent personas fan out
	ModeMultiAgent ExecutionMode = "multi_agent" // sequential persona collaboration
)

// ParseMode validates a mode string coming from an external reply.
func ParseMode(s string) (ExecutionMode, bool) {
	switch ExecutionMode(s) {
	case ModeSkillOnly, ModeSkillAgent, ModeParallel, ModeMultiAgent:
		return ExecutionMode(s), true
	}
	return "", false
}

// ComplexityAnalysis is the structural complexity profile of a single query.
// Produced fresh per query and never persisted.
type ComplexityAnalysis struct {
	Score           float64        `json:"score"`
	IsParallel      bool           `json:"is_parallel"`
	IsCollaborative bool           `json:"is_collaborative"`
	Indicators      map[string]int `json:"indicators"`
}

// RoutingDecision is the router's answer for one query. Documents and
// Personas are deduplicated and order-stable (first match wins).
type RoutingDecision struct {
	Mode       ExecutionMode       `json:"mode"`
	Documents  []string            `json:"documents"`
	Personas   []string            `json:"personas"`
	Reason     string              `json:"reason"`
	Confidence float64             `json:"confidence"`
	Complexity *ComplexityAnalysis `json:"complexity,omitempty"`
}

// Hint is a learned-pattern routing suggestion supplied by the evolution
// engine. A zero-confidence hint means no pattern applied.
type Hint struct {
	Confidence float64  `json:"confidence"`
	Documents  []string `json:"documents"`
	Mode       string   `json:"mode"`
	Personas   []string `json:"personas"`
	PatternKey string   `json:"pattern_key,omitempty"`
}

// HintSource supplies learned routing hints to the router's fast path.
type HintSource interface {
	RoutingHints(query string) Hint
}

// dedupe returns ids with duplicates removed, first occurrence wins.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
