package planner

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// TASK PLANNER
// =============================================================================
// Splits a request on connective markers into task segments, categorizes
// and estimates each, assigns personas, and arranges everything into
// phase-gated execution order.

// Workflow selection thresholds over the complexity score.
const (
	thresholdSkillLookup = 0.2
	thresholdSingleTask  = 0.35
	thresholdMultiTask   = 0.5
	thresholdSpecDriven  = 0.7
)

// Connective markers that split a request into task segments.
var taskDelimiters = []string{"하고", "그리고", "그 다음", "그다음", "다음에", "그 후", "후에", " and ", ", "}

// categoryKeywords tags a segment by first keyword match, in table order.
var categoryKeywords = []struct {
	category TaskCategory
	keywords []string
}{
	{CategoryInvestigation, []string{"분석", "조사", "확인", "검토", "살펴", "analyze"}},
	{CategoryImplementation, []string{"구현", "만들", "작성", "개발", "build", "create"}},
	{CategoryRefactoring, []string{"리팩", "개선", "최적화", "수정", "refactor"}},
	{CategoryTesting, []string{"테스트", "검증", "확인", "test", "verify"}},
	{CategoryDocumentation, []string{"문서", "doc", "readme", "설명"}},
	{CategoryResearch, []string{"연구", "찾아", "search", "research"}},
	{CategoryDecision, []string{"선택", "결정", "decide", "choose"}},
}

// Base minutes per category; long segments get a 1.5x factor.
var categoryBaseMinutes = map[TaskCategory]int{
	CategoryInvestigation:  10,
	CategoryImplementation: 30,
	CategoryRefactoring:    20,
	CategoryTesting:        15,
	CategoryDocumentation:  15,
	CategoryResearch:       20,
	CategoryDecision:       5,
}

const (
	defaultTaskMinutes   = 15
	longSegmentRunes     = 100
	longSegmentFactor    = 1.5
	defaultPlanCacheSize = 128
)

// personaRole buckets categories into specialist roles.
type personaRole string

const (
	roleArchitect personaRole = "architect"
	roleBackend   personaRole = "backend"
	roleFrontend  personaRole = "frontend"
	roleData      personaRole = "data"
	roleDevops    personaRole = "devops"
	roleQA        personaRole = "qa"
	roleDocs      personaRole = "docs"
)

var categoryRoles = map[TaskCategory]personaRole{
	CategoryInvestigation:  roleArchitect,
	CategoryImplementation: roleBackend,
	CategoryRefactoring:    roleBackend,
	CategoryTesting:        roleQA,
	CategoryDocumentation:  roleDocs,
	CategoryResearch:       roleArchitect,
	CategoryDecision:       roleArchitect,
}

// roleOverrideRules are evaluated top to bottom against the whole query;
// the first hit overrides every task's category-derived role.
var roleOverrideRules = []struct {
	role     personaRole
	keywords []string
}{
	{roleFrontend, []string{"frontend", "ui", "프론트", "화면"}},
	{roleData, []string{"ml", "ai", "머신러닝", "모델"}},
	{roleDevops, []string{"deploy", "배포", "ci/cd", "인프라"}},
}

// rolePersonas maps each role to its preferred specialist.
var rolePersonas = map[personaRole]string{
	roleArchitect: "system-architect",
	roleBackend:   "backend-developer",
	roleFrontend:  "frontend-developer",
	roleData:      "data-analyst",
	roleDevops:    "devops-engineer",
	roleQA:        "qa-expert",
	roleDocs:      "tech-writer",
}

// Planner builds and caches execution plans.
type Planner struct {
	cache  *planCache
	logger *zap.Logger
	now    func() time.Time
}

// NewPlanner creates a planner with an LRU plan cache of the given
// capacity (<= 0 uses the default).
func NewPlanner(cacheSize int, logger *zap.Logger) *Planner {
	if cacheSize <= 0 {
		cacheSize = defaultPlanCacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		cache:  newPlanCache(cacheSize),
		logger: logger,
		now:    time.Now,
	}
}

// CreatePlan decomposes the query into a phase-ordered execution plan.
func (p *Planner) CreatePlan(query string, complexity float64, documents []string, isParallel, isCollaborative bool) (*ExecutionPlan, error) {
	workflow := selectWorkflow(complexity, isParallel, isCollaborative)
	tasks := p.extractTasks(query, documents)
	personas := p.assignPersonas(tasks, query)
	phases := buildPhases(tasks, workflow)
	wireDependencies(phases)

	if err := validatePlanDAG(phases); err != nil {
		return nil, fmt.Errorf("plan dependency graph: %w", err)
	}

	total := 0
	for _, t := range tasks {
		total += t.EstimatedMinutes
	}

	createdAt := p.now()
	plan := &ExecutionPlan{
		ID:                planID(query, createdAt),
		Query:             query,
		Workflow:          workflow,
		Phases:            phases,
		SelectedPersonas:  personas,
		SelectedDocuments: documents,
		ComplexityScore:   complexity,
		EstimatedMinutes:  total,
		CreatedAt:         createdAt,
	}
	p.cache.put(plan)

	p.logger.Info("plan created",
		zap.String("id", plan.ID),
		zap.String("workflow", string(workflow)),
		zap.Int("tasks", plan.TotalTasks()),
		zap.Int("estimated_minutes", total))

	return plan, nil
}

// Plan returns a cached plan by id.
func (p *Planner) Plan(id string) (*ExecutionPlan, bool) {
	return p.cache.get(id)
}

// CachedPlans returns the number of plans currently cached.
func (p *Planner) CachedPlans() int { return p.cache.len() }

// selectWorkflow maps complexity (plus parallel/collaborative overrides)
// to a workflow. Overrides apply only from mid complexity upward.
func selectWorkflow(complexity float64, isParallel, isCollaborative bool) WorkflowType {
	if isParallel && complexity >= thresholdMultiTask {
		return WorkflowParallel
	}
	if isCollaborative && complexity >= thresholdMultiTask {
		return WorkflowSequential
	}
	switch {
	case complexity >= thresholdSpecDriven:
		return WorkflowSpecDriven
	case complexity >= thresholdMultiTask:
		return WorkflowSequential
	case complexity >= thresholdSingleTask:
		return WorkflowSingleTask
	case complexity >= thresholdSkillLookup:
		return WorkflowSkillLookup
	default:
		return WorkflowSimpleQuery
	}
}

// extractTasks splits the query on connective markers and categorizes each
// segment. A query that yields no segments becomes a single task.
func (p *Planner) extractTasks(query string, documents []string) []*Task {
	segments := []string{query}
	for _, delim := range taskDelimiters {
		var next []string
		for _, segment := range segments {
			for _, part := range strings.Split(segment, delim) {
				part = strings.TrimSpace(part)
				if part != "" {
					next = append(next, part)
				}
			}
		}
		segments = next
	}

	var tasks []*Task
	for i, segment := range segments {
		category := detectCategory(segment)
		priority := 2
		if i == 0 {
			priority = 1
		}
		tasks = append(tasks, &Task{
			ID:               fmt.Sprintf("task-%d", i+1),
			Title:            truncateRunes(segment, 100),
			Description:      segment,
			Category:         category,
			Status:           StatusPending,
			DocumentIDs:      relatedDocuments(segment, documents),
			EstimatedMinutes: estimateMinutes(segment, category),
			Priority:         priority,
		})
	}

	if len(tasks) == 0 {
		tasks = append(tasks, &Task{
			ID:               "task-1",
			Title:            truncateRunes(query, 100),
			Description:      query,
			Category:         CategoryInvestigation,
			Status:           StatusPending,
			DocumentIDs:      documents,
			EstimatedMinutes: defaultTaskMinutes,
			Priority:         1,
		})
	}
	return tasks
}

// detectCategory tags a segment by first keyword match, defaulting to
// implementation.
func detectCategory(text string) TaskCategory {
	lower := strings.ToLower(text)
	for _, row := range categoryKeywords {
		for _, kw := range row.keywords {
			if strings.Contains(lower, kw) {
				return row.category
			}
		}
	}
	return CategoryImplementation
}

// relatedDocuments keeps the matched documents whose id fragments appear in
// the segment, falling back to the first match.
func relatedDocuments(segment string, documents []string) []string {
	lower := strings.ToLower(segment)
	var related []string
	for _, id := range documents {
		for _, fragment := range strings.Split(id, "-") {
			if fragment != "" && strings.Contains(lower, fragment) {
				related = append(related, id)
				break
			}
		}
	}
	if len(related) == 0 && len(documents) > 0 {
		related = documents[:1]
	}
	return related
}

// estimateMinutes applies the category base, scaled up for long segments.
func estimateMinutes(text string, category TaskCategory) int {
	base, ok := categoryBaseMinutes[category]
	if !ok {
		base = defaultTaskMinutes
	}
	if len([]rune(text)) > longSegmentRunes {
		base = int(float64(base) * longSegmentFactor)
	}
	return base
}

// assignPersonas gives each task a persona and returns the distinct
// personas in assignment order.
func (p *Planner) assignPersonas(tasks []*Task, query string) []string {
	lower := strings.ToLower(query)
	override, hasOverride := queryRoleOverride(lower)

	var assigned []string
	seen := make(map[string]struct{})
	for _, task := range tasks {
		role := categoryRoles[task.Category]
		if role == "" {
			role = roleBackend
		}
		if hasOverride {
			role = override
		}
		persona := rolePersonas[role]
		if persona == "" {
			persona = rolePersonas[roleBackend]
		}
		task.PersonaID = persona
		if _, ok := seen[persona]; !ok {
			seen[persona] = struct{}{}
			assigned = append(assigned, persona)
		}
	}
	return assigned
}

func queryRoleOverride(queryLower string) (personaRole, bool) {
	for _, rule := range roleOverrideRules {
		for _, kw := range rule.keywords {
			if strings.Contains(queryLower, kw) {
				return rule.role, true
			}
		}
	}
	return "", false
}

// buildPhases arranges tasks into phases per workflow. Sequential and
// spec-driven work gets the three-bucket split; everything else runs as a
// single phase.
func buildPhases(tasks []*Task, workflow WorkflowType) []*Phase {
	switch workflow {
	case WorkflowSimpleQuery:
		return []*Phase{{
			ID: "phase-1", Name: "Immediate Response",
			Description: "Answer the question directly", Tasks: tasks,
		}}
	case WorkflowParallel:
		return []*Phase{{
			ID: "phase-1", Name: "Parallel Execution",
			Description: "Run independent tasks concurrently", Tasks: tasks,
		}}
	case WorkflowSequential, WorkflowSpecDriven:
		return buildBucketedPhases(tasks)
	default:
		return []*Phase{{
			ID: "phase-1", Name: "Execution",
			Description: "Execute the tasks", Tasks: tasks,
		}}
	}
}

var phaseBuckets = []struct {
	name        string
	description string
	categories  []TaskCategory
}{
	{"Analysis", "Requirements analysis and investigation",
		[]TaskCategory{CategoryInvestigation, CategoryResearch, CategoryDecision}},
	{"Implementation", "Core feature implementation",
		[]TaskCategory{CategoryImplementation, CategoryRefactoring}},
	{"Verification", "Testing and documentation",
		[]TaskCategory{CategoryTesting, CategoryDocumentation}},
}

func buildBucketedPhases(tasks []*Task) []*Phase {
	placed := make(map[string]struct{})
	var phases []*Phase

	addPhase := func(name, description string, bucket []*Task) {
		if len(bucket) == 0 {
			return
		}
		phase := &Phase{
			ID:          fmt.Sprintf("phase-%d", len(phases)+1),
			Name:        name,
			Description: description,
			Tasks:       bucket,
		}
		if len(phases) > 0 {
			phase.Dependencies = []string{phases[len(phases)-1].ID}
		}
		phases = append(phases, phase)
		for _, t := range bucket {
			placed[t.ID] = struct{}{}
		}
	}

	for _, bucket := range phaseBuckets {
		var matched []*Task
		for _, t := range tasks {
			if _, done := placed[t.ID]; done {
				continue
			}
			for _, c := range bucket.categories {
				if t.Category == c {
					matched = append(matched, t)
					break
				}
			}
		}
		addPhase(bucket.name, bucket.description, matched)
	}

	var remaining []*Task
	for _, t := range tasks {
		if _, done := placed[t.ID]; !done {
			remaining = append(remaining, t)
		}
	}
	addPhase("Additional Work", "Remaining tasks", remaining)

	if len(phases) == 0 {
		phases = []*Phase{{
			ID: "phase-1", Name: "Execution",
			Description: "Execute the tasks", Tasks: tasks,
		}}
	}
	return phases
}

// wireDependencies applies coarse phase gating: every task in phase i>0
// without explicit blockers is blocked by all task ids of phase i-1.
func wireDependencies(phases []*Phase) {
	for i := 1; i < len(phases); i++ {
		prev := phases[i-1]
		if len(prev.Tasks) == 0 {
			continue
		}
		prevIDs := make([]string, len(prev.Tasks))
		for j, t := range prev.Tasks {
			prevIDs[j] = t.ID
		}
		for _, t := range phases[i].Tasks {
			if len(t.BlockedBy) == 0 {
				t.BlockedBy = append([]string{}, prevIDs...)
			}
		}
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
