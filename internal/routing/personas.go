package routing

import "strings"

// =============================================================================
// PERSONA SELECTION RULES
// =============================================================================
// Persona selection is keyword-driven per mode. Each mode has a small
// ordered rule table evaluated top to bottom so precedence is explicit.

// parallelPersonaRules map domain cues to specialists for parallel fan-out.
// All matching rules contribute, capped at four personas.
var parallelPersonaRules = []struct {
	persona  string
	keywords []string
}{
	{"backend-developer", []string{"api", "backend", "서버", "데이터베이스"}},
	{"frontend-developer", []string{"ui", "frontend", "프론트"}},
	{"qa-expert", []string{"test", "테스트", "qa", "검증"}},
	{"tech-writer", []string{"문서", "doc", "documentation"}},
	{"devops-engineer", []string{"배포", "deploy", "ci/cd"}},
}

// defaultParallelTrio is used when fewer than two domain cues matched.
var defaultParallelTrio = []string{"backend-developer", "qa-expert", "tech-writer"}

const maxParallelPersonas = 4

// collaborationPersonaRules pick an ordered specialist pair. The first rule
// whose cues all appear wins; order inside the pair is execution order.
var collaborationPersonaRules = []struct {
	requires []string
	personas []string
}{
	{[]string{"설계", "검토"}, []string{"system-architect", "security-reviewer"}},
	{[]string{"구현", "테스트"}, []string{"backend-developer", "qa-expert"}},
}

var defaultCollaborationPair = []string{"system-architect", "backend-developer"}

// primaryPersonaRules pick exactly one specialist for single-persona work.
var primaryPersonaRules = []struct {
	persona  string
	keywords []string
}{
	{"backend-developer", []string{"api", "backend", "서버", "서빙"}},
	{"frontend-developer", []string{"ui", "frontend", "프론트"}},
	{"ml-engineer", []string{"ml", "ai", "모델", "학습"}},
}

const defaultPersona = "backend-developer"

func selectParallelPersonas(query string) []string {
	lower := strings.ToLower(query)
	var personas []string
	for _, rule := range parallelPersonaRules {
		if containsAny(lower, rule.keywords) {
			personas = append(personas, rule.persona)
		}
	}
	if len(personas) < 2 {
		personas = append([]string{}, defaultParallelTrio...)
	}
	if len(personas) > maxParallelPersonas {
		personas = personas[:maxParallelPersonas]
	}
	return personas
}

func selectCollaborationPersonas(query string) []string {
	lower := strings.ToLower(query)
	for _, rule := range collaborationPersonaRules {
		if containsAll(lower, rule.requires) {
			return append([]string{}, rule.personas...)
		}
	}
	return append([]string{}, defaultCollaborationPair...)
}

func selectPrimaryPersona(query string) []string {
	lower := strings.ToLower(query)
	for _, rule := range primaryPersonaRules {
		if containsAny(lower, rule.keywords) {
			return []string{rule.persona}
		}
	}
	return []string{defaultPersona}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func containsAll(s string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(s, kw) {
			return false
		}
	}
	return true
}
