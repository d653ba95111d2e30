// Package planner decomposes complex requests into dependency-ordered
// execution plans: phases of categorized tasks with persona assignments
// and effort estimates.
package planner

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// WorkflowType is one of the six planning strategies.
type WorkflowType string

const (
	WorkflowSimpleQuery WorkflowType = "simple_query" // immediate answer
	WorkflowSkillLookup WorkflowType = "skill_lookup" // document-backed answer
	WorkflowSingleTask  WorkflowType = "single_task"  // one persona, one task
	WorkflowSequential  WorkflowType = "sequential"   // persona chain
	WorkflowParallel    WorkflowType = "parallel"     // independent fan-out
	WorkflowSpecDriven  WorkflowType = "spec_driven"  // full multi-phase plan
)

// TaskStatus tracks a task through its lifecycle.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
	StatusFailed     TaskStatus = "failed"
)

// TaskCategory classifies what kind of work a task is.
type TaskCategory string

const (
	CategoryInvestigation  TaskCategory = "investigation"
	CategoryImplementation TaskCategory = "implementation"
	CategoryRefactoring    TaskCategory = "refactoring"
	CategoryTesting        TaskCategory = "testing"
	CategoryDocumentation  TaskCategory = "documentation"
	CategoryDecision       TaskCategory = "decision"
	CategoryResearch       TaskCategory = "research"
)

// Task is one executable unit of a plan. Status is mutated by the execution
// layer as work advances; BlockedBy is fixed once the plan is built.
type Task struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Category         TaskCategory `json:"category"`
	Status           TaskStatus   `json:"status"`
	PersonaID        string       `json:"persona_id,omitempty"`
	DocumentIDs      []string     `json:"document_ids"`
	BlockedBy        []string     `json:"blocked_by"`
	EstimatedMinutes int          `json:"estimated_minutes"`
	Priority         int          `json:"priority"` // 1=high, 2=normal, 3=low
}

// Phase groups tasks that can run once its dependencies complete.
type Phase struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Tasks        []*Task  `json:"tasks"`
	Dependencies []string `json:"dependencies"`
}

// TotalTasks returns the number of tasks in the phase.
func (p *Phase) TotalTasks() int { return len(p.Tasks) }

// CompletedTasks counts tasks marked completed.
func (p *Phase) CompletedTasks() int {
	n := 0
	for _, t := range p.Tasks {
		if t.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// Progress is the completed fraction of the phase, 0 when empty.
func (p *Phase) Progress() float64 {
	if len(p.Tasks) == 0 {
		return 0
	}
	return float64(p.CompletedTasks()) / float64(len(p.Tasks))
}

// ExecutionPlan is an immutable decomposition of one request; only task
// status mutates after creation.
type ExecutionPlan struct {
	ID                string       `json:"id"`
	Query             string       `json:"query"`
	Workflow          WorkflowType `json:"workflow"`
	Phases            []*Phase     `json:"phases"`
	SelectedPersonas  []string     `json:"selected_personas"`
	SelectedDocuments []string     `json:"selected_documents"`
	ComplexityScore   float64      `json:"complexity_score"`
	EstimatedMinutes  int          `json:"estimated_minutes"`
	CreatedAt         time.Time    `json:"created_at"`
}

// planID derives the deterministic plan id from the query prefix and the
// creation instant, so re-planning the same request at the same instant is
// idempotent.
func planID(query string, createdAt time.Time) string {
	prefix := []rune(query)
	if len(prefix) > 50 {
		prefix = prefix[:50]
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s", string(prefix), createdAt.Format(time.RFC3339Nano))))
	return "plan-" + hex.EncodeToString(sum[:])[:8]
}

// TotalTasks returns the task count across all phases.
func (p *ExecutionPlan) TotalTasks() int {
	n := 0
	for _, phase := range p.Phases {
		n += phase.TotalTasks()
	}
	return n
}

// CompletedTasks returns the completed count across all phases.
func (p *ExecutionPlan) CompletedTasks() int {
	n := 0
	for _, phase := range p.Phases {
		n += phase.CompletedTasks()
	}
	return n
}

// Progress is the completed fraction of the whole plan.
func (p *ExecutionPlan) Progress() float64 {
	total := p.TotalTasks()
	if total == 0 {
		return 0
	}
	return float64(p.CompletedTasks()) / float64(total)
}

// NextTasks returns every pending task whose blockers have all completed,
// sorted by (priority, estimated minutes). It reads but never mutates the
// plan, so external executors can poll it repeatedly.
func (p *ExecutionPlan) NextTasks() []*Task {
	completed := make(map[string]struct{})
	for _, phase := range p.Phases {
		for _, t := range phase.Tasks {
			if t.Status == StatusCompleted {
				completed[t.ID] = struct{}{}
			}
		}
	}

	var ready []*Task
	for _, phase := range p.Phases {
		for _, t := range phase.Tasks {
			if t.Status != StatusPending {
				continue
			}
			blocked := false
			for _, dep := range t.BlockedBy {
				if _, ok := completed[dep]; !ok {
					blocked = true
					break
				}
			}
			if !blocked {
				ready = append(ready, t)
			}
		}
	}

	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].Priority != ready[j].Priority {
			return ready[i].Priority < ready[j].Priority
		}
		return ready[i].EstimatedMinutes < ready[j].EstimatedMinutes
	})
	return ready
}
