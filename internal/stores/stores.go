// Package stores defines the external collaborator contracts the routing
// core is built against: the knowledge document store, the persona pool,
// and the LLM routing fallback. The core only consumes these interfaces;
// how documents are parsed, embedded, or persisted is the collaborator's
// business.
package stores

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Document is a stored reference text, retrievable by keyword or similarity.
type Document struct {
	ID          string   `json:"id"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// Persona is a named system-prompt profile usable to answer or act on a task.
type Persona struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
}

// DocumentStore provides document lookup for the router's fallback path and
// the compact index handed to the LLM router as context.
type DocumentStore interface {
	// Search returns up to k documents ranked by relevance to the query.
	Search(ctx context.Context, query string, k int) []Document

	// CompressedIndex returns a flat "id|keywords|description" table.
	CompressedIndex() string
}

// PersonaStore resolves persona ids to their profiles.
type PersonaStore interface {
	Get(id string) (Persona, bool)
}

// LLMDecision is the structured reply expected from an LLM routing call.
// Any unparseable reply is treated as a soft failure by the caller.
type LLMDecision struct {
	Mode      string   `json:"mode"`
	Documents []string `json:"documents"`
	Personas  []string `json:"personas"`
	Reason    string   `json:"reason"`
}

// LLMRouter is the external LLM-backed routing collaborator. The core
// invokes it only when its own confidence is low.
type LLMRouter interface {
	Route(ctx context.Context, query, compressedIndex string) (LLMDecision, error)
}

// =============================================================================
// IN-MEMORY REFERENCE IMPLEMENTATIONS
// =============================================================================
// Thin fixtures backing the CLI and tests. Production deployments substitute
// their own vector/database-backed stores behind the same interfaces.

// MemoryDocumentStore is a token-overlap document store.
type MemoryDocumentStore struct {
	docs []Document
}

// NewMemoryDocumentStore builds a store over a fixed document set.
func NewMemoryDocumentStore(docs []Document) *MemoryDocumentStore {
	return &MemoryDocumentStore{docs: docs}
}

// Search scores each document by token overlap between the query and the
// document's tags and description. Ties keep document registration order.
func (s *MemoryDocumentStore) Search(ctx context.Context, query string, k int) []Document {
	words := tokenSet(query)
	if len(words) == 0 || k <= 0 {
		return nil
	}

	type scored struct {
		doc   Document
		score int
	}
	var ranked []scored
	for _, d := range s.docs {
		score := 0
		for _, tag := range d.Tags {
			if _, ok := words[strings.ToLower(tag)]; ok {
				score += 3
			}
		}
		for w := range tokenSet(d.Description) {
			if _, ok := words[w]; ok {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{doc: d, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]Document, len(ranked))
	for i, r := range ranked {
		out[i] = r.doc
	}
	return out
}

// CompressedIndex renders the flat id|keywords|description table used as
// LLM routing context.
func (s *MemoryDocumentStore) CompressedIndex() string {
	var b strings.Builder
	for _, d := range s.docs {
		fmt.Fprintf(&b, "%s|%s|%s\n", d.ID, strings.Join(d.Tags, ","), d.Description)
	}
	return b.String()
}

// MemoryPersonaPool holds personas in registration order.
type MemoryPersonaPool struct {
	order []string
	byID  map[string]Persona
}

// NewMemoryPersonaPool builds a pool from the given personas.
func NewMemoryPersonaPool(personas []Persona) *MemoryPersonaPool {
	p := &MemoryPersonaPool{byID: make(map[string]Persona, len(personas))}
	for _, persona := range personas {
		p.Add(persona)
	}
	return p
}

// Add registers or replaces a persona.
func (p *MemoryPersonaPool) Add(persona Persona) {
	if _, exists := p.byID[persona.ID]; !exists {
		p.order = append(p.order, persona.ID)
	}
	p.byID[persona.ID] = persona
}

// Get resolves a persona by id.
func (p *MemoryPersonaPool) Get(id string) (Persona, bool) {
	persona, ok := p.byID[id]
	return persona, ok
}

// IDs returns all persona ids in registration order.
func (p *MemoryPersonaPool) IDs() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// DefaultPersonas returns the built-in specialist roster.
func DefaultPersonas() []Persona {
	return []Persona{
		{ID: "backend-developer", Name: "Backend Developer", Description: "API, server, and database implementation", SystemPrompt: "You are a senior backend developer. Design and implement robust server-side systems."},
		{ID: "frontend-developer", Name: "Frontend Developer", Description: "UI components and client-side architecture", SystemPrompt: "You are a senior frontend developer. Build accessible, maintainable user interfaces."},
		{ID: "qa-expert", Name: "QA Expert", Description: "Test design, verification, and quality gates", SystemPrompt: "You are a QA expert. Write thorough tests and find edge cases before users do."},
		{ID: "tech-writer", Name: "Tech Writer", Description: "Documentation and developer guides", SystemPrompt: "You are a technical writer. Produce clear, accurate documentation."},
		{ID: "devops-engineer", Name: "DevOps Engineer", Description: "Deployment, CI/CD, and infrastructure", SystemPrompt: "You are a DevOps engineer. Automate delivery and keep systems observable."},
		{ID: "system-architect", Name: "System Architect", Description: "System design and architecture decisions", SystemPrompt: "You are a system architect. Weigh trade-offs and design for change."},
		{ID: "security-reviewer", Name: "Security Reviewer", Description: "Security review and threat analysis", SystemPrompt: "You are a security reviewer. Find vulnerabilities and insist on least privilege."},
		{ID: "ml-engineer", Name: "ML Engineer", Description: "Model training, tuning, and serving", SystemPrompt: "You are an ML engineer. Build reliable training and inference pipelines."},
		{ID: "data-analyst", Name: "Data Analyst", Description: "Data exploration and analysis", SystemPrompt: "You are a data analyst. Let the data speak, with rigor."},
	}
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}) {
		out[tok] = struct{}{}
	}
	return out
}
