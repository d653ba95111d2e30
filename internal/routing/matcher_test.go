package routing

import "testing"

// =============================================================================
// KEYWORD MATCHER TESTS
// =============================================================================

func TestKeywordMatcher_ExactKeyword(t *testing.T) {
	m := NewKeywordMatcher()

	ids := m.MatchIDs("LoRA 파인튜닝 방법 알려줘", 3)

	if len(ids) == 0 {
		t.Fatal("expected at least one match")
	}
	if ids[0] != "03-fine-tuning" {
		t.Errorf("expected 03-fine-tuning first, got %s", ids[0])
	}
}

func TestKeywordMatcher_EnglishAndKoreanEquivalent(t *testing.T) {
	m := NewKeywordMatcher()

	korean := m.MatchIDs("양자화로 모델 경량화", 1)
	english := m.MatchIDs("quantization for model compression", 1)

	if len(korean) == 0 || len(english) == 0 {
		t.Fatal("both languages should match")
	}
	if korean[0] != "10-optimization" || english[0] != "10-optimization" {
		t.Errorf("expected 10-optimization for both, got %s / %s", korean[0], english[0])
	}
}

func TestKeywordMatcher_NoMatch(t *testing.T) {
	m := NewKeywordMatcher()

	if ids := m.MatchIDs("오늘 날씨 어때", 3); len(ids) != 0 {
		t.Errorf("expected no matches, got %v", ids)
	}
}

func TestKeywordMatcher_MaxResults(t *testing.T) {
	m := NewKeywordMatcher()

	matches := m.Match("model data evaluation inference prompt agent", 3)

	if len(matches) > 3 {
		t.Errorf("expected at most 3 results, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("results not sorted: %v before %v", matches[i-1], matches[i])
		}
	}
}

func TestKeywordMatcher_TieKeepsTableOrder(t *testing.T) {
	m := NewKeywordMatcher()

	// "vector" hits 15-rag exactly; no other doc shares it.
	ids := m.MatchIDs("vector", 5)
	if len(ids) == 0 || ids[0] != "15-rag" {
		t.Fatalf("expected 15-rag, got %v", ids)
	}
}

func TestKeywordMatcher_ReverseIndex(t *testing.T) {
	m := NewKeywordMatcher()

	docs := m.DocumentsForKeyword("LoRA")
	if len(docs) != 1 || docs[0] != "03-fine-tuning" {
		t.Errorf("reverse index lookup for lora failed: %v", docs)
	}

	if docs := m.DocumentsForKeyword("nonexistent-keyword"); len(docs) != 0 {
		t.Errorf("unknown keyword should map to nothing, got %v", docs)
	}
}

func TestKeywordMatcher_AllKeywordsCoversTable(t *testing.T) {
	m := NewKeywordMatcher()

	table := m.AllKeywords()
	if len(table) != 20 {
		t.Fatalf("expected 20 documents in the table, got %d", len(table))
	}
	for _, row := range table {
		if row.ID == "" || len(row.Keywords) == 0 {
			t.Errorf("malformed table row: %+v", row)
		}
	}
}
