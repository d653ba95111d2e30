package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"haes/internal/planner"
)

// planCmd routes a query and builds a phased execution plan for it.
var planCmd = &cobra.Command{
	Use:   "plan [query]",
	Short: "Route a request and build a phased execution plan",
	Long: `Runs the full routing pipeline, then splits the request into tasks,
assigns personas, arranges phases with dependencies, and prints the plan.

Example:
  haes plan "시스템 설계하고 보안 검토해줘"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	sys, err := newSystem()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	decision := sys.router.Route(cmd.Context(), query)

	var score float64
	var isParallel, isCollaborative bool
	if decision.Complexity != nil {
		score = decision.Complexity.Score
		isParallel = decision.Complexity.IsParallel
		isCollaborative = decision.Complexity.IsCollaborative
	}

	plan, err := sys.planner.CreatePlan(query, score, decision.Documents, isParallel, isCollaborative)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printDecision(sys, decision)
	fmt.Println()
	fmt.Print(planner.ExecutionSummary(plan))
	return nil
}
