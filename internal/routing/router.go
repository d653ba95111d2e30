package routing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"haes/internal/stores"
)

// =============================================================================
// HYBRID ROUTER
// =============================================================================
// Keyword matching first (free, immediate), LLM routing second (only when
// confidence is low). A learned-pattern hint from the evolution engine can
// short-circuit both. Route never fails for a normal query; an absent
// collaborator simply disables its step.

// LLMRoutingThreshold is the confidence below which the LLM fallback fires.
const LLMRoutingThreshold = 0.5

// llmDecisionConfidence is the fixed trust level for an LLM-backed decision.
const llmDecisionConfidence = 0.8

// hintShortcutConfidence gates the learned-pattern fast path.
const hintShortcutConfidence = 0.8

// Router decides the execution mode for a query.
type Router struct {
	analyzer  *ComplexityAnalyzer
	matcher   *KeywordMatcher
	docs      stores.DocumentStore // optional similarity fallback
	llm       stores.LLMRouter     // optional low-confidence fallback
	hints     HintSource           // optional learned-pattern shortcut
	threshold float64
	logger    *zap.Logger
}

// NewRouter builds a router. docs, llm, and hints may each be nil, which
// disables the corresponding fallback or shortcut.
func NewRouter(docs stores.DocumentStore, llm stores.LLMRouter, hints HintSource, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		analyzer:  NewComplexityAnalyzer(),
		matcher:   NewKeywordMatcher(),
		docs:      docs,
		llm:       llm,
		hints:     hints,
		threshold: LLMRoutingThreshold,
		logger:    logger,
	}
}

// SetLLMThreshold overrides the confidence bar for the LLM fallback.
// Values outside [0,1] are ignored.
func (r *Router) SetLLMThreshold(threshold float64) {
	if threshold >= 0 && threshold <= 1 {
		r.threshold = threshold
	}
}

// Route produces a routing decision for the query. Strategies are tried in
// a fixed order; each either applies or passes to the next:
//
//  1. learned-pattern hint (evolution engine, confidence > 0.8)
//  2. keyword pipeline (complexity + document match + rule-based mode)
//  3. LLM fallback, replacing step 2's answer when it parses
func (r *Router) Route(ctx context.Context, query string) RoutingDecision {
	if hint, ok := r.learnedHint(query); ok {
		return hint
	}

	complexity := r.analyzer.Analyze(query)
	documents := r.matchDocuments(ctx, query)
	mode, personas, reason := r.decideMode(query, complexity)
	confidence := r.confidence(documents, complexity)

	decision := RoutingDecision{
		Mode:       mode,
		Documents:  dedupe(documents),
		Personas:   dedupe(personas),
		Reason:     reason,
		Confidence: confidence,
		Complexity: &complexity,
	}

	if confidence < r.threshold && r.llm != nil {
		r.logger.Info("low routing confidence, invoking LLM fallback",
			zap.Float64("confidence", confidence))
		if llmDecision, ok := r.llmRoute(ctx, query, decision); ok {
			return llmDecision
		}
	}

	return decision
}

// learnedHint checks the evolution engine for a high-confidence pattern.
func (r *Router) learnedHint(query string) (RoutingDecision, bool) {
	if r.hints == nil {
		return RoutingDecision{}, false
	}
	hint := r.hints.RoutingHints(query)
	if hint.Confidence <= hintShortcutConfidence {
		return RoutingDecision{}, false
	}
	mode, ok := ParseMode(hint.Mode)
	if !ok {
		mode = ModeSkillOnly
	}
	r.logger.Info("routing via learned pattern",
		zap.String("pattern", hint.PatternKey),
		zap.Float64("confidence", hint.Confidence))
	return RoutingDecision{
		Mode:       mode,
		Documents:  dedupe(hint.Documents),
		Personas:   dedupe(hint.Personas),
		Reason:     fmt.Sprintf("learned pattern %s (confidence %.2f)", hint.PatternKey, hint.Confidence),
		Confidence: hint.Confidence,
	}, true
}

// matchDocuments tries document sources in order: the static keyword table,
// then the document store's own similarity search.
func (r *Router) matchDocuments(ctx context.Context, query string) []string {
	ids := r.matcher.MatchIDs(query, 3)
	if len(ids) > 0 {
		return ids
	}
	if r.docs == nil {
		return nil
	}
	for _, doc := range r.docs.Search(ctx, query, 3) {
		ids = append(ids, doc.ID)
	}
	if len(ids) > 0 {
		r.logger.Debug("keyword table empty, used store similarity search",
			zap.Int("results", len(ids)))
	}
	return ids
}

// decideMode applies the mode priority ladder.
func (r *Router) decideMode(query string, complexity ComplexityAnalysis) (ExecutionMode, []string, string) {
	if complexity.IsParallel {
		personas := selectParallelPersonas(query)
		return ModeParallel, personas,
			fmt.Sprintf("detected %d independent tasks suitable for parallel execution", len(personas))
	}
	if complexity.IsCollaborative {
		return ModeMultiAgent, selectCollaborationPersonas(query),
			"sequential collaboration required"
	}
	if complexity.Score >= 0.3 {
		return ModeSkillAgent, selectPrimaryPersona(query),
			fmt.Sprintf("technical implementation work (complexity %.2f)", complexity.Score)
	}
	return ModeSkillOnly, nil,
		fmt.Sprintf("simple knowledge lookup (complexity %.2f)", complexity.Score)
}

// confidence starts at 0.5 and earns bonuses for corroborating signals.
func (r *Router) confidence(documents []string, complexity ComplexityAnalysis) float64 {
	confidence := 0.5
	if len(documents) > 0 {
		confidence += 0.2
	}
	for _, count := range complexity.Indicators {
		if count > 0 {
			confidence += 0.1
			break
		}
	}
	if complexity.IsParallel || complexity.IsCollaborative {
		confidence += 0.1
	}
	return min(confidence, 1.0)
}

// llmRoute asks the external LLM router. Any failure, transport or parse,
// is a soft pass back to the keyword decision.
func (r *Router) llmRoute(ctx context.Context, query string, fallback RoutingDecision) (RoutingDecision, bool) {
	index := ""
	if r.docs != nil {
		index = r.docs.CompressedIndex()
	}

	reply, err := r.llm.Route(ctx, query, index)
	if err != nil {
		r.logger.Warn("LLM routing failed, keeping keyword decision", zap.Error(err))
		return RoutingDecision{}, false
	}

	mode, ok := ParseMode(reply.Mode)
	if !ok {
		r.logger.Warn("LLM routing returned unknown mode, keeping keyword decision",
			zap.String("mode", reply.Mode))
		return RoutingDecision{}, false
	}

	documents := dedupe(reply.Documents)
	if len(documents) == 0 {
		documents = fallback.Documents
	}
	personas := dedupe(reply.Personas)
	if len(personas) == 0 {
		personas = fallback.Personas
	}

	return RoutingDecision{
		Mode:       mode,
		Documents:  documents,
		Personas:   personas,
		Reason:     "LLM routing: " + reply.Reason,
		Confidence: llmDecisionConfidence,
		Complexity: fallback.Complexity,
	}, true
}
