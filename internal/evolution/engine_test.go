package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// EVOLUTION ENGINE TESTS
// =============================================================================

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(t.TempDir()+"/evolution.json", false, nil)
}

func result(query string, docs ...string) *ExecutionResult {
	return &ExecutionResult{
		Query:         query,
		Mode:          "skill_agent",
		DocumentsUsed: docs,
		PersonasUsed:  []string{"ml-engineer"},
	}
}

func TestRecordFeedback_Validation(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.RecordFeedback(nil, "", 5)
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = engine.RecordFeedback(result("q", "doc"), "", 0)
	assert.Error(t, err)

	_, err = engine.RecordFeedback(result("q", "doc"), "", 6)
	assert.Error(t, err)
}

func TestRecordFeedback_UpdatesStats(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.RecordFeedback(result("파인튜닝 질문", "03-fine-tuning"), "good", 5)
	require.NoError(t, err)
	_, err = engine.RecordFeedback(result("파인튜닝 질문", "03-fine-tuning"), "bad", 2)
	require.NoError(t, err)

	perf := engine.SkillPerformance("03-fine-tuning")
	assert.Equal(t, 2, perf.Total)
	assert.Equal(t, 1, perf.Success)
	assert.InDelta(t, 3.5, perf.AverageScore, 1e-9)
	assert.InDelta(t, 0.5, perf.SuccessRate, 1e-9)
	assert.Equal(t, 2, perf.Modes["skill_agent"])
}

func TestRecordFeedback_LowScoreSuggestsReview(t *testing.T) {
	engine := newTestEngine(t)

	suggestion, err := engine.RecordFeedback(result("라우팅 실패", "15-rag"), "엉뚱한 문서", 1)
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.Equal(t, "review", suggestion.Action)
	assert.Equal(t, []string{"15-rag"}, suggestion.Documents)

	suggestion, err = engine.RecordFeedback(result("괜찮음", "15-rag"), "", 3)
	require.NoError(t, err)
	assert.Nil(t, suggestion)
}

func TestPatternLearning_RequiresFiveSuccesses(t *testing.T) {
	engine := newTestEngine(t)

	for i := 0; i < 4; i++ {
		_, err := engine.RecordFeedback(result("lora 파인튜닝 학습 진행", "03-fine-tuning"), "", 5)
		require.NoError(t, err)
	}
	assert.Empty(t, engine.Patterns(), "four successes must not form a pattern")

	_, err := engine.RecordFeedback(result("lora 파인튜닝 학습 진행", "03-fine-tuning"), "", 5)
	require.NoError(t, err)

	patterns := engine.Patterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, "03-fine-tuning", patterns[0].PatternKey)
	assert.Equal(t, 5, patterns[0].SampleCount)
	assert.InDelta(t, 1.0, patterns[0].SuccessRate, 1e-9)
	assert.Contains(t, patterns[0].Keywords, "파인튜닝")
}

func TestPatternLearning_NegativeScoresDoNotCount(t *testing.T) {
	engine := newTestEngine(t)

	for i := 0; i < 4; i++ {
		engine.RecordFeedback(result("lora 파인튜닝 진행", "03-fine-tuning"), "", 5)
	}
	// A failure on the same documents is recorded but never buffered.
	engine.RecordFeedback(result("lora 파인튜닝 진행", "03-fine-tuning"), "", 2)

	assert.Empty(t, engine.Patterns())
}

func TestPatternLearning_KeyIsOrderInsensitive(t *testing.T) {
	engine := newTestEngine(t)

	for i := 0; i < 3; i++ {
		engine.RecordFeedback(result("rag 검색 파이프라인 구축", "15-rag", "05-data-processing"), "", 5)
	}
	for i := 0; i < 2; i++ {
		engine.RecordFeedback(result("rag 검색 파이프라인 구축", "05-data-processing", "15-rag"), "", 4)
	}

	patterns := engine.Patterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, "05-data-processing|15-rag", patterns[0].PatternKey)
}

func TestPatternLearning_ExistingPatternAccumulates(t *testing.T) {
	engine := newTestEngine(t)

	for i := 0; i < 5; i++ {
		engine.RecordFeedback(result("lora 파인튜닝 진행", "03-fine-tuning"), "", 5)
	}
	require.Len(t, engine.Patterns(), 1)

	// Further successes merge into the pattern instead of re-buffering.
	engine.RecordFeedback(result("qlora 파인튜닝 설정", "03-fine-tuning"), "", 4)

	patterns := engine.Patterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, 6, patterns[0].SampleCount)
	assert.Contains(t, patterns[0].Keywords, "qlora")
	assert.InDelta(t, 1.0, patterns[0].SuccessRate, 1e-9, "merge must not recompute the rate")
}

func TestJudgePendingPattern_DiscardsBelowGate(t *testing.T) {
	engine := newTestEngine(t)

	key := "03-fine-tuning"
	for _, score := range []int{5, 2, 2, 2, 2} {
		engine.pending[key] = append(engine.pending[key], pendingSample{
			Query:    "파인튜닝",
			Keywords: newKeywordSet("파인튜닝"),
			Score:    score,
			Mode:     "skill_agent",
		})
	}
	engine.judgePendingPattern(key, []string{"03-fine-tuning"}, "skill_agent")

	assert.Empty(t, engine.Patterns(), "20% success rate must not materialize")
	assert.NotContains(t, engine.pending, key, "candidate is judged exactly once")
}

func TestRoutingHints_MatchesLearnedPattern(t *testing.T) {
	engine := newTestEngine(t)

	for i := 0; i < 5; i++ {
		engine.RecordFeedback(result("lora 파인튜닝 학습 진행", "03-fine-tuning"), "", 5)
	}

	hint := engine.RoutingHints("lora 파인튜닝 학습 진행")
	assert.InDelta(t, 0.95, hint.Confidence, 1e-9, "perfect overlap caps at 0.95")
	assert.Equal(t, []string{"03-fine-tuning"}, hint.Documents)
	assert.Equal(t, "skill_agent", hint.Mode)
	assert.Equal(t, "03-fine-tuning", hint.PatternKey)
}

func TestRoutingHints_NoPatternOrWeakOverlap(t *testing.T) {
	engine := newTestEngine(t)

	hint := engine.RoutingHints("아무 질문")
	assert.Zero(t, hint.Confidence)

	for i := 0; i < 5; i++ {
		engine.RecordFeedback(result("lora 파인튜닝 학습 진행", "03-fine-tuning"), "", 5)
	}
	hint = engine.RoutingHints("쿠버네티스 배포 롤백 어떻게")
	assert.Zero(t, hint.Confidence, "disjoint keywords should produce no hint")
}

func TestTopPerformingSkills_RequiresThreeSamples(t *testing.T) {
	engine := newTestEngine(t)

	for i := 0; i < 3; i++ {
		engine.RecordFeedback(result("질문", "03-fine-tuning"), "", 5)
	}
	for i := 0; i < 2; i++ {
		engine.RecordFeedback(result("질문", "15-rag"), "", 5)
	}
	engine.RecordFeedback(result("질문", "10-optimization"), "", 2)
	engine.RecordFeedback(result("질문", "10-optimization"), "", 2)
	engine.RecordFeedback(result("질문", "10-optimization"), "", 5)

	top := engine.TopPerformingSkills(10)
	require.Len(t, top, 2, "documents below three samples are excluded")
	assert.Equal(t, "03-fine-tuning", top[0].ID)
	assert.InDelta(t, 1.0, top[0].SuccessRate, 1e-9)
	assert.Equal(t, "10-optimization", top[1].ID)

	assert.Len(t, engine.TopPerformingSkills(1), 1)
}

func TestStats_Aggregates(t *testing.T) {
	engine := newTestEngine(t)

	engine.RecordFeedback(result("a", "03-fine-tuning"), "", 5)
	engine.RecordFeedback(result("b", "15-rag"), "", 3)
	engine.RecordFeedback(result("c", "15-rag"), "", 1)

	stats := engine.Stats()
	assert.Equal(t, 3, stats.TotalFeedback)
	assert.Equal(t, 1, stats.Positive)
	assert.Equal(t, 1, stats.Negative)
	assert.InDelta(t, 3.0, stats.AverageScore, 1e-9)
	assert.Equal(t, 2, stats.DocumentsTracked)
}

func TestFeedbackFilters(t *testing.T) {
	engine := newTestEngine(t)

	engine.RecordFeedback(result("a", "03-fine-tuning"), "", 5)
	engine.RecordFeedback(result("b", "15-rag"), "", 2)
	engine.RecordFeedback(result("c", "03-fine-tuning", "15-rag"), "", 4)

	assert.Len(t, engine.PositiveFeedback(), 2)
	assert.Len(t, engine.NegativeFeedback(), 1)
	assert.Len(t, engine.FeedbackByDocument("15-rag"), 2)
	assert.Len(t, engine.FeedbackByDocument("unknown"), 0)

	recent := engine.RecentFeedback(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Query)
	assert.Equal(t, "c", recent[1].Query)
}

func TestClear_ResetsState(t *testing.T) {
	engine := newTestEngine(t)

	for i := 0; i < 5; i++ {
		engine.RecordFeedback(result("lora 파인튜닝 진행", "03-fine-tuning"), "", 5)
	}
	engine.Clear()

	assert.Zero(t, engine.Stats().TotalFeedback)
	assert.Empty(t, engine.Patterns())
	assert.Zero(t, engine.SkillPerformance("03-fine-tuning").Total)
}
