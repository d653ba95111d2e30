package planner

import (
	"fmt"
	"strings"
)

var statusMarkers = map[TaskStatus]string{
	StatusCompleted:  "[x]",
	StatusInProgress: "[~]",
	StatusBlocked:    "[#]",
	StatusFailed:     "[!]",
	StatusPending:    "[ ]",
}

// ExecutionSummary renders a markdown progress report for a plan.
func ExecutionSummary(plan *ExecutionPlan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Execution Plan: %s\n\n", plan.ID)
	fmt.Fprintf(&b, "**Request**: %s\n", truncateRunes(plan.Query, 100))
	fmt.Fprintf(&b, "**Workflow**: %s\n", plan.Workflow)
	fmt.Fprintf(&b, "**Complexity**: %.2f\n", plan.ComplexityScore)
	fmt.Fprintf(&b, "**Estimated**: ~%d min\n", plan.EstimatedMinutes)
	fmt.Fprintf(&b, "**Progress**: %.0f%% (%d/%d)\n\n", plan.Progress()*100, plan.CompletedTasks(), plan.TotalTasks())
	b.WriteString("## Phases\n")

	for _, phase := range plan.Phases {
		fmt.Fprintf(&b, "\n### %s (%d/%d)\n", phase.Name, phase.CompletedTasks(), phase.TotalTasks())
		fmt.Fprintf(&b, "%s\n\n", phase.Description)
		for _, task := range phase.Tasks {
			marker, ok := statusMarkers[task.Status]
			if !ok {
				marker = "[ ]"
			}
			line := fmt.Sprintf("- %s %s", marker, task.Title)
			if task.PersonaID != "" {
				line += fmt.Sprintf(" [%s]", task.PersonaID)
			}
			b.WriteString(line + "\n")
		}
	}

	if len(plan.SelectedPersonas) > 0 {
		b.WriteString("\n## Personas\n")
		for _, persona := range plan.SelectedPersonas {
			fmt.Fprintf(&b, "- %s\n", persona)
		}
	}
	return b.String()
}
