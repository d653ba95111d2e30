// Package evolution records execution feedback, maintains per-document
// success statistics, learns reusable routing patterns, and feeds routing
// hints back to the router.
//
// The engine assumes a single logical feedback writer (one active
// conversation). Read paths are safe to interleave with each other, but
// concurrent RecordFeedback calls from independent sessions must be
// serialized by the caller.
package evolution

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"haes/internal/routing"
)

// Learning thresholds.
const (
	successScore       = 4   // scores at or above count as success
	negativeScore      = 2   // scores at or below trigger a review suggestion
	learningThreshold  = 5   // samples needed before a pattern can form
	patternSuccessRate = 0.8 // minimum aggregate success rate to materialize
	hintMinScore       = 0.3 // minimum weighted similarity for a hint
	hintScale          = 1.5
	hintCap            = 0.95
	minPerformanceRuns = 3 // samples needed to appear in top-skill ranking
)

// ErrNoResult is returned when feedback arrives without an execution result.
var ErrNoResult = errors.New("evolution: feedback requires an execution result")

// ExecutionResult is the outcome shape the execution layer hands back for
// feedback recording.
type ExecutionResult struct {
	Query         string   `json:"query"`
	Mode          string   `json:"mode"`
	DocumentsUsed []string `json:"documents_used"`
	PersonasUsed  []string `json:"personas_used"`
}

// FeedbackRecord is one appended, immutable user rating.
type FeedbackRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Mode      string    `json:"mode"`
	Documents []string  `json:"documents"`
	Personas  []string  `json:"personas"`
	Comment   string    `json:"comment"`
	Score     int       `json:"score"`
}

// IsPositive reports whether the record counts as a success.
func (f FeedbackRecord) IsPositive() bool { return f.Score >= successScore }

// IsNegative reports whether the record counts as a failure.
func (f FeedbackRecord) IsNegative() bool { return f.Score <= negativeScore }

// DocumentStats accumulates routing outcomes per document.
type DocumentStats struct {
	Total   int            `json:"total"`
	Success int            `json:"success"`
	Scores  []int          `json:"scores"`
	Modes   map[string]int `json:"modes"`
}

// LearnedPattern is a reusable mapping from a keyword signature to a
// historically successful document/mode/persona combination.
type LearnedPattern struct {
	PatternKey    string
	Documents     []string
	Mode          string
	Personas      []string
	Keywords      keywordSet
	SampleCount   int
	SuccessRate   float64
	SuccessScores []int
	LearnedAt     time.Time
}

// pendingSample buffers a successful routing until enough evidence
// accumulates to judge the pattern.
type pendingSample struct {
	Query    string
	Keywords keywordSet
	Score    int
	Mode     string
	Personas []string
}

// ImprovementSuggestion is returned for low-scoring feedback.
type ImprovementSuggestion struct {
	Action     string   `json:"action"`
	Query      string   `json:"query"`
	Documents  []string `json:"documents"`
	Score      int      `json:"score"`
	Suggestion string   `json:"suggestion"`
}

// Engine is the feedback-driven learning core.
type Engine struct {
	path     string
	autoSave bool
	logger   *zap.Logger

	dirty    bool
	feedback []FeedbackRecord
	stats    map[string]*DocumentStats
	patterns []*LearnedPattern
	pending  map[string][]pendingSample

	now func() time.Time
}

// NewEngine creates an engine persisting to path. When autoSave is set,
// every feedback write persists immediately.
func NewEngine(path string, autoSave bool, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		path:     path,
		autoSave: autoSave,
		logger:   logger,
		stats:    make(map[string]*DocumentStats),
		pending:  make(map[string][]pendingSample),
		now:      time.Now,
	}
}

// RecordFeedback appends a feedback record, updates document statistics,
// and triggers pattern learning for successes. A low score returns a
// review suggestion; scores outside [1,5] or a nil result are caller
// errors.
func (e *Engine) RecordFeedback(result *ExecutionResult, comment string, score int) (*ImprovementSuggestion, error) {
	if result == nil {
		return nil, ErrNoResult
	}
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("evolution: score %d out of range [1,5]", score)
	}

	record := FeedbackRecord{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		Query:     result.Query,
		Mode:      result.Mode,
		Documents: append([]string{}, result.DocumentsUsed...),
		Personas:  append([]string{}, result.PersonasUsed...),
		Comment:   comment,
		Score:     score,
	}
	e.feedback = append(e.feedback, record)
	e.updateStats(record)

	if record.IsPositive() {
		e.learnSuccessPattern(record)
	}
	e.dirty = true
	if e.autoSave {
		e.Save()
	}

	e.logger.Debug("feedback recorded",
		zap.Int("score", score),
		zap.Strings("documents", record.Documents))

	if record.IsNegative() {
		return &ImprovementSuggestion{
			Action:     "review",
			Query:      record.Query,
			Documents:  record.Documents,
			Score:      record.Score,
			Suggestion: "Consider reviewing document content or routing logic",
		}, nil
	}
	return nil, nil
}

func (e *Engine) updateStats(record FeedbackRecord) {
	for _, id := range record.Documents {
		stats, ok := e.stats[id]
		if !ok {
			stats = &DocumentStats{Modes: make(map[string]int)}
			e.stats[id] = stats
		}
		stats.Total++
		stats.Scores = append(stats.Scores, record.Score)
		if record.IsPositive() {
			stats.Success++
		}
		stats.Modes[record.Mode]++
	}
}

// patternKey is the sorted, "|"-joined document id signature.
func patternKey(documents []string) string {
	ids := append([]string{}, documents...)
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// learnSuccessPattern merges the sample into an existing pattern, or
// buffers it until the pattern key has enough samples to be judged.
func (e *Engine) learnSuccessPattern(record FeedbackRecord) {
	key := patternKey(record.Documents)
	if key == "" {
		return
	}
	keywords := extractKeywords(record.Query)

	for _, pattern := range e.patterns {
		if pattern.PatternKey == key {
			pattern.SampleCount++
			pattern.Keywords.add(keywords)
			pattern.SuccessScores = append(pattern.SuccessScores, record.Score)
			return
		}
	}

	e.pending[key] = append(e.pending[key], pendingSample{
		Query:    record.Query,
		Keywords: keywords,
		Score:    record.Score,
		Mode:     record.Mode,
		Personas: record.Personas,
	})
	if len(e.pending[key]) >= learningThreshold {
		e.judgePendingPattern(key, record.Documents, record.Mode)
	}
}

// judgePendingPattern is the one-shot gate: once a key reaches the sample
// threshold its aggregate success rate is computed exactly once. Passing
// materializes a pattern; failing discards the buffered candidate.
func (e *Engine) judgePendingPattern(key string, documents []string, mode string) {
	samples := e.pending[key]
	delete(e.pending, key)

	keywords := make(keywordSet)
	var scores []int
	var personas []string
	seen := make(map[string]struct{})
	successes := 0
	for _, sample := range samples {
		keywords.add(sample.Keywords)
		scores = append(scores, sample.Score)
		if sample.Score >= successScore {
			successes++
		}
		for _, persona := range sample.Personas {
			if _, ok := seen[persona]; !ok {
				seen[persona] = struct{}{}
				personas = append(personas, persona)
			}
		}
	}

	successRate := float64(successes) / float64(len(scores))
	if successRate < patternSuccessRate {
		e.logger.Debug("pattern candidate discarded",
			zap.String("key", key),
			zap.Float64("success_rate", successRate))
		return
	}

	e.patterns = append(e.patterns, &LearnedPattern{
		PatternKey:    key,
		Documents:     append([]string{}, documents...),
		Mode:          mode,
		Personas:      personas,
		Keywords:      keywords,
		SampleCount:   len(samples),
		SuccessRate:   successRate,
		SuccessScores: scores,
		LearnedAt:     e.now(),
	})
	e.logger.Info("pattern learned",
		zap.String("key", key),
		zap.Float64("success_rate", successRate))
}

// RoutingHints matches the query's keyword signature against learned
// patterns and returns the best hint, or a zero-confidence hint when no
// pattern clears the similarity bar.
func (e *Engine) RoutingHints(query string) routing.Hint {
	if len(e.patterns) == 0 {
		return routing.Hint{}
	}

	queryKeywords := extractKeywords(query)
	var best *LearnedPattern
	bestScore := 0.0
	for _, pattern := range e.patterns {
		weighted := jaccard(queryKeywords, pattern.Keywords) * pattern.SuccessRate
		if weighted > bestScore {
			bestScore = weighted
			best = pattern
		}
	}

	if best == nil || bestScore <= hintMinScore {
		return routing.Hint{}
	}
	return routing.Hint{
		Confidence: min(bestScore*hintScale, hintCap),
		Documents:  append([]string{}, best.Documents...),
		Mode:       best.Mode,
		Personas:   append([]string{}, best.Personas...),
		PatternKey: best.PatternKey,
	}
}

// =============================================================================
// READ-ONLY AGGREGATES
// =============================================================================

// Performance is the per-document outcome summary.
type Performance struct {
	Total        int            `json:"total"`
	Success      int            `json:"success"`
	AverageScore float64        `json:"average_score"`
	SuccessRate  float64        `json:"success_rate"`
	Modes        map[string]int `json:"modes,omitempty"`
}

// SkillPerformance returns the outcome summary for one document.
func (e *Engine) SkillPerformance(id string) Performance {
	stats, ok := e.stats[id]
	if !ok {
		return Performance{}
	}
	sum := 0
	for _, s := range stats.Scores {
		sum += s
	}
	perf := Performance{
		Total:   stats.Total,
		Success: stats.Success,
		Modes:   stats.Modes,
	}
	if len(stats.Scores) > 0 {
		perf.AverageScore = float64(sum) / float64(len(stats.Scores))
	}
	if stats.Total > 0 {
		perf.SuccessRate = float64(stats.Success) / float64(stats.Total)
	}
	return perf
}

// SkillRank is one entry of the top-performing ranking.
type SkillRank struct {
	ID          string  `json:"id"`
	SuccessRate float64 `json:"success_rate"`
	Total       int     `json:"total"`
}

// TopPerformingSkills ranks documents with at least three samples by
// success rate, best first.
func (e *Engine) TopPerformingSkills(n int) []SkillRank {
	var ranks []SkillRank
	for id, stats := range e.stats {
		if stats.Total >= minPerformanceRuns {
			ranks = append(ranks, SkillRank{
				ID:          id,
				SuccessRate: float64(stats.Success) / float64(stats.Total),
				Total:       stats.Total,
			})
		}
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].SuccessRate != ranks[j].SuccessRate {
			return ranks[i].SuccessRate > ranks[j].SuccessRate
		}
		return ranks[i].ID < ranks[j].ID
	})
	if n >= 0 && len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}

// EngineStats is the whole-engine summary.
type EngineStats struct {
	TotalFeedback    int     `json:"total_feedback"`
	Positive         int     `json:"positive"`
	Negative         int     `json:"negative"`
	AverageScore     float64 `json:"average_score"`
	LearnedPatterns  int     `json:"learned_patterns"`
	DocumentsTracked int     `json:"documents_tracked"`
}

// Stats summarizes the engine's accumulated state.
func (e *Engine) Stats() EngineStats {
	stats := EngineStats{
		TotalFeedback:    len(e.feedback),
		LearnedPatterns:  len(e.patterns),
		DocumentsTracked: len(e.stats),
	}
	sum := 0
	for _, f := range e.feedback {
		sum += f.Score
		if f.IsPositive() {
			stats.Positive++
		}
		if f.IsNegative() {
			stats.Negative++
		}
	}
	if len(e.feedback) > 0 {
		stats.AverageScore = float64(sum) / float64(len(e.feedback))
	}
	return stats
}

// Feedback returns a copy of the full feedback log.
func (e *Engine) Feedback() []FeedbackRecord {
	return append([]FeedbackRecord{}, e.feedback...)
}

// FeedbackByDocument filters the log to records that used the document.
func (e *Engine) FeedbackByDocument(id string) []FeedbackRecord {
	var out []FeedbackRecord
	for _, f := range e.feedback {
		for _, doc := range f.Documents {
			if doc == id {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// PositiveFeedback returns records scored 4 or above.
func (e *Engine) PositiveFeedback() []FeedbackRecord {
	var out []FeedbackRecord
	for _, f := range e.feedback {
		if f.IsPositive() {
			out = append(out, f)
		}
	}
	return out
}

// NegativeFeedback returns records scored 2 or below.
func (e *Engine) NegativeFeedback() []FeedbackRecord {
	var out []FeedbackRecord
	for _, f := range e.feedback {
		if f.IsNegative() {
			out = append(out, f)
		}
	}
	return out
}

// RecentFeedback returns the newest n records, oldest first.
func (e *Engine) RecentFeedback(n int) []FeedbackRecord {
	if n <= 0 || n >= len(e.feedback) {
		return e.Feedback()
	}
	return append([]FeedbackRecord{}, e.feedback[len(e.feedback)-n:]...)
}

// Patterns returns a copy of the learned patterns.
func (e *Engine) Patterns() []*LearnedPattern {
	return append([]*LearnedPattern{}, e.patterns...)
}

// Dirty reports whether there are unsaved mutations.
func (e *Engine) Dirty() bool { return e.dirty }

// Clear drops all in-memory state. Persisted snapshots are untouched.
func (e *Engine) Clear() {
	e.feedback = nil
	e.stats = make(map[string]*DocumentStats)
	e.patterns = nil
	e.pending = make(map[string][]pendingSample)
	e.dirty = true
	e.logger.Info("evolution state cleared")
}
