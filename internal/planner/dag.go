package planner

import (
	"fmt"
	"strings"
)

// validatePlanDAG checks that the wired task blockers form an acyclic
// graph, using Kahn's algorithm. Phase gating can never introduce a cycle,
// so a failure here indicates corrupted wiring.
func validatePlanDAG(phases []*Phase) error {
	var ids []string
	blockedBy := make(map[string][]string)
	for _, phase := range phases {
		for _, t := range phase.Tasks {
			ids = append(ids, t.ID)
			blockedBy[t.ID] = t.BlockedBy
		}
	}
	if len(ids) == 0 {
		return nil
	}

	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	inDegree := make(map[string]int, len(ids))
	forward := make(map[string][]string)
	for id, deps := range blockedBy {
		for _, dep := range deps {
			if !known[dep] {
				return fmt.Errorf("task %s blocked by unknown task %s", id, dep)
			}
			inDegree[id]++
			forward[dep] = append(forward[dep], id)
		}
	}

	var queue []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted++
		for _, dependent := range forward[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if sorted != len(ids) {
		var stuck []string
		for _, id := range ids {
			if inDegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return fmt.Errorf("circular dependency among tasks: %s", strings.Join(stuck, ", "))
	}
	return nil
}
