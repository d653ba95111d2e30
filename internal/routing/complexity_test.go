package routing

import (
	"testing"
)

// =============================================================================
// COMPLEXITY ANALYZER TESTS
// =============================================================================

func TestComplexityAnalyzer_SimpleQuestion(t *testing.T) {
	analyzer := NewComplexityAnalyzer()

	result := analyzer.Analyze("LoRA가 뭐야?")

	if result.Score != 0 {
		t.Errorf("expected score 0 for a lookup question, got %v", result.Score)
	}
	if result.IsParallel {
		t.Error("lookup question should not be parallel")
	}
	if result.IsCollaborative {
		t.Error("lookup question should not be collaborative")
	}
}

func TestComplexityAnalyzer_SimpleQuestionCeiling(t *testing.T) {
	analyzer := NewComplexityAnalyzer()

	// Implementation keywords push the raw score to 0.35, but the "what is"
	// phrasing caps it.
	result := analyzer.Analyze("모델 구현이 뭐야?")

	if result.Score > 0.25 {
		t.Errorf("simple question score should be capped at 0.25, got %v", result.Score)
	}
}

func TestComplexityAnalyzer_ParallelRequest(t *testing.T) {
	analyzer := NewComplexityAnalyzer()

	result := analyzer.Analyze("API 만들어줘 하고 테스트 작성 하고 문서화도 해")

	if !result.IsParallel {
		t.Fatal("two connectives should mark the request parallel")
	}
	if result.Score < 0.9 {
		t.Errorf("expected score >= 0.9 for chained implementation work, got %v", result.Score)
	}
	if result.Indicators["implementation"] != 2 {
		t.Errorf("expected 2 implementation indicators, got %d", result.Indicators["implementation"])
	}
}

func TestComplexityAnalyzer_CollaborativeRequest(t *testing.T) {
	analyzer := NewComplexityAnalyzer()

	result := analyzer.Analyze("시스템 설계하고 보안 검토해줘")

	if result.IsParallel {
		t.Error("a single connective should not read as parallel")
	}
	if !result.IsCollaborative {
		t.Fatal("design plus review should be collaborative")
	}
	if result.Score != 0.75 {
		t.Errorf("expected score 0.75, got %v", result.Score)
	}
}

func TestComplexityAnalyzer_ReviewWithoutDesign(t *testing.T) {
	analyzer := NewComplexityAnalyzer()

	// A pure review request has the collaboration cue but no design cue.
	result := analyzer.Analyze("이 코드 리뷰 review 부탁")

	if result.IsCollaborative {
		t.Error("review without design should not be collaborative")
	}
}

func TestComplexityAnalyzer_ScoreClamped(t *testing.T) {
	analyzer := NewComplexityAnalyzer()

	result := analyzer.Analyze(
		"구현 implement 만들어 작성 build create 개발 코드 그리고 하고 또한 동시에 설계 design 아키텍처 검토 review 확인")

	if result.Score != 1.0 {
		t.Errorf("score should clamp at 1.0, got %v", result.Score)
	}
}

func TestComplexityAnalyzer_EmptyQuery(t *testing.T) {
	analyzer := NewComplexityAnalyzer()

	result := analyzer.Analyze("")

	if result.Score != 0 {
		t.Errorf("empty query should score 0, got %v", result.Score)
	}
	if result.IsParallel || result.IsCollaborative {
		t.Error("empty query should carry no traits")
	}
}

func TestComplexityAnalyzer_Deterministic(t *testing.T) {
	analyzer := NewComplexityAnalyzer()
	query := "DPO로 학습하고 평가 벤치마크 돌려줘"

	first := analyzer.Analyze(query)
	for i := 0; i < 10; i++ {
		again := analyzer.Analyze(query)
		if again.Score != first.Score ||
			again.IsParallel != first.IsParallel ||
			again.IsCollaborative != first.IsCollaborative {
			t.Fatalf("analysis not deterministic: run %d gave %+v, want %+v", i, again, first)
		}
	}
}
