package routing

import (
	"sort"
	"strings"
)

// =============================================================================
// KEYWORD MATCHER
// =============================================================================
// Maps a query to ranked candidate document ids via a static keyword table.
// The table is ordered: ties in score resolve to the earlier entry.

// DocumentKeywords is one row of the static document → keywords table.
type DocumentKeywords struct {
	ID       string
	Keywords []string
}

// keywordTable covers the built-in knowledge corpus in both languages.
var keywordTable = []DocumentKeywords{
	{"01-model-architecture", []string{"transformer", "llama", "mamba", "ssm", "attention", "architecture", "모델", "아키텍처", "트랜스포머"}},
	{"02-tokenization", []string{"tokenizer", "bpe", "sentencepiece", "vocabulary", "토크나이저", "토큰"}},
	{"03-fine-tuning", []string{"fine-tuning", "finetune", "lora", "qlora", "peft", "axolotl", "adapter", "instruction", "sft", "파인튜닝", "미세조정", "학습"}},
	{"05-data-processing", []string{"data", "dataset", "dedup", "filtering", "ray", "preprocessing", "데이터", "전처리", "정제"}},
	{"06-post-training", []string{"dpo", "rlhf", "grpo", "ppo", "rloo", "preference", "reward", "포스트트레이닝", "강화학습", "선호도"}},
	{"07-safety-alignment", []string{"guardrails", "redteaming", "safety", "alignment", "jailbreak", "안전", "정렬", "가드레일"}},
	{"08-distributed-training", []string{"deepspeed", "fsdp", "ddp", "distributed", "multi-gpu", "multi-node", "분산학습", "분산", "멀티gpu"}},
	{"10-optimization", []string{"quantization", "pruning", "distillation", "compression", "4bit", "8bit", "양자화", "최적화", "경량화"}},
	{"11-evaluation", []string{"lm-eval", "benchmark", "evaluation", "metrics", "harness", "평가", "벤치마크", "성능측정"}},
	{"12-inference-serving", []string{"vllm", "tgi", "triton", "inference", "serving", "deploy", "추론", "서빙", "배포", "deployment"}},
	{"13-mlops", []string{"wandb", "mlflow", "experiment", "tracking", "logging", "mlops", "실험관리"}},
	{"14-agents", []string{"agent", "langchain", "crewai", "autogen", "tool", "function", "에이전트", "도구"}},
	{"15-rag", []string{"rag", "retrieval", "vector", "embedding", "chroma", "faiss", "pinecone", "검색", "벡터", "임베딩", "지식베이스"}},
	{"16-prompt-engineering", []string{"prompt", "dspy", "instructor", "structured", "few-shot", "프롬프트", "엔지니어링"}},
	{"17-observability", []string{"observability", "logging", "tracing", "monitoring", "langsmith", "관측성", "모니터링", "로깅"}},
	{"18-multimodal", []string{"multimodal", "clip", "whisper", "llava", "vision", "audio", "멀티모달", "비전", "음성"}},
	{"19-emerging-techniques", []string{"moe", "mixture", "ssm", "state-space", "emerging", "신기술", "최신기술"}},
	{"20-trading", []string{"trading", "ta-lib", "vectorbt", "backtest", "quant", "finance", "트레이딩", "퀀트", "금융", "주식"}},
	{"23-frontend-design-architect", []string{"frontend", "ui", "ux", "react", "design", "component", "프론트엔드", "디자인", "ui/ux"}},
	{"24-spec-driven-planner", []string{"spec", "specification", "planning", "task", "requirement", "스펙", "기획", "요구사항", "계획"}},
}

// Scoring weights: a full-keyword substring hit dominates token overlap.
const (
	exactMatchScore  = 10.0
	tokenMatchWeight = 3.0
)

// Match is one ranked keyword-match result.
type Match struct {
	ID    string
	Score float64
}

// KeywordMatcher ranks documents against a query using the static table.
type KeywordMatcher struct {
	table   []DocumentKeywords
	reverse map[string][]string // keyword → document ids
}

// NewKeywordMatcher builds the matcher and its reverse index.
func NewKeywordMatcher() *KeywordMatcher {
	m := &KeywordMatcher{
		table:   keywordTable,
		reverse: make(map[string][]string),
	}
	for _, row := range m.table {
		for _, kw := range row.Keywords {
			lower := strings.ToLower(kw)
			m.reverse[lower] = append(m.reverse[lower], row.ID)
		}
	}
	return m
}

// Match returns up to maxResults documents ranked by score, highest first.
// Documents that score zero are dropped. The sort is stable, so equal
// scores keep table order.
func (m *KeywordMatcher) Match(query string, maxResults int) []Match {
	lower := strings.ToLower(query)
	queryWords := make(map[string]struct{})
	for _, w := range tokenize(lower) {
		queryWords[w] = struct{}{}
	}

	var matches []Match
	for _, row := range m.table {
		score := 0.0
		for _, kw := range row.Keywords {
			kwLower := strings.ToLower(kw)
			if strings.Contains(lower, kwLower) {
				score += exactMatchScore
				continue
			}
			common := 0
			for _, w := range tokenize(kwLower) {
				if _, ok := queryWords[w]; ok {
					common++
				}
			}
			score += float64(common) * tokenMatchWeight
		}
		if score > 0 {
			matches = append(matches, Match{ID: row.ID, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if maxResults >= 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

// MatchIDs returns just the ranked document ids.
func (m *KeywordMatcher) MatchIDs(query string, maxResults int) []string {
	matches := m.Match(query, maxResults)
	ids := make([]string, len(matches))
	for i, match := range matches {
		ids[i] = match.ID
	}
	return ids
}

// DocumentsForKeyword returns the ids indexed under a keyword.
func (m *KeywordMatcher) DocumentsForKeyword(keyword string) []string {
	return m.reverse[strings.ToLower(keyword)]
}

// AllKeywords returns the full document → keywords table in table order.
func (m *KeywordMatcher) AllKeywords() []DocumentKeywords {
	out := make([]DocumentKeywords, len(m.table))
	copy(out, m.table)
	return out
}
