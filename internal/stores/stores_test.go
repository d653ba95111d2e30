package stores

import (
	"context"
	"strings"
	"testing"
)

func testDocs() []Document {
	return []Document{
		{ID: "doc-a", Tags: []string{"배포", "deploy"}, Description: "서비스 배포 가이드"},
		{ID: "doc-b", Tags: []string{"테스트"}, Description: "테스트 작성 문서"},
		{ID: "doc-c", Tags: []string{"배포", "롤백"}, Description: "배포 롤백 절차"},
	}
}

func TestMemoryDocumentStore_Search(t *testing.T) {
	store := NewMemoryDocumentStore(testDocs())

	results := store.Search(context.Background(), "배포 롤백 방법", 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "doc-c" {
		t.Errorf("two tag hits should outrank one, got %s first", results[0].ID)
	}

	if got := store.Search(context.Background(), "관련없는 질의", 3); len(got) != 0 {
		t.Errorf("expected no results, got %v", got)
	}
	if got := store.Search(context.Background(), "", 3); got != nil {
		t.Errorf("empty query should return nothing, got %v", got)
	}
}

func TestMemoryDocumentStore_CompressedIndex(t *testing.T) {
	store := NewMemoryDocumentStore(testDocs())

	index := store.CompressedIndex()
	lines := strings.Split(strings.TrimSpace(index), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 index lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "doc-a|배포,deploy|") {
		t.Errorf("unexpected index line: %s", lines[0])
	}
}

func TestMemoryPersonaPool(t *testing.T) {
	pool := NewMemoryPersonaPool(DefaultPersonas())

	persona, ok := pool.Get("qa-expert")
	if !ok {
		t.Fatal("qa-expert should exist in the default roster")
	}
	if persona.SystemPrompt == "" {
		t.Error("personas need a system prompt")
	}

	if _, ok := pool.Get("nonexistent"); ok {
		t.Error("unknown id should miss")
	}

	ids := pool.IDs()
	if len(ids) != 9 {
		t.Fatalf("default roster should have 9 personas, got %d", len(ids))
	}
	if ids[0] != "backend-developer" {
		t.Errorf("registration order not preserved: %v", ids[:3])
	}

	// Add replaces in place without disturbing order.
	pool.Add(Persona{ID: "qa-expert", Name: "QA", SystemPrompt: "updated"})
	if got := len(pool.IDs()); got != 9 {
		t.Errorf("replacement should not grow the pool, got %d", got)
	}
	persona, _ = pool.Get("qa-expert")
	if persona.SystemPrompt != "updated" {
		t.Error("replacement did not take effect")
	}
}
