package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"haes/internal/routing"
)

// routeCmd resolves a query to an execution mode without planning.
var routeCmd = &cobra.Command{
	Use:   "route [query]",
	Short: "Route a request to documents, personas and an execution mode",
	Long: `Analyzes the request's complexity, matches it against the document
keyword table, and decides the execution mode. Learned patterns from past
feedback short-circuit the analysis when they match strongly.

Example:
  haes route "API 만들어줘 하고 테스트도 작성해"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoute,
}

func runRoute(cmd *cobra.Command, args []string) error {
	sys, err := newSystem()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	decision := sys.router.Route(cmd.Context(), query)

	if jsonOutput {
		data, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printDecision(sys, decision)
	return nil
}

func printDecision(sys *system, decision routing.RoutingDecision) {
	fmt.Printf("Mode:       %s\n", decision.Mode)
	fmt.Printf("Confidence: %.2f\n", decision.Confidence)
	fmt.Printf("Reason:     %s\n", decision.Reason)
	if len(decision.Documents) > 0 {
		fmt.Printf("Documents:  %s\n", strings.Join(decision.Documents, ", "))
	}
	if len(decision.Personas) > 0 {
		labels := make([]string, len(decision.Personas))
		for i, id := range decision.Personas {
			labels[i] = id
			if persona, ok := sys.personas.Get(id); ok {
				labels[i] = fmt.Sprintf("%s (%s)", id, persona.Name)
			}
		}
		fmt.Printf("Personas:   %s\n", strings.Join(labels, ", "))
	}
	if decision.Complexity != nil {
		fmt.Printf("Complexity: %.2f", decision.Complexity.Score)
		var traits []string
		if decision.Complexity.IsParallel {
			traits = append(traits, "parallel")
		}
		if decision.Complexity.IsCollaborative {
			traits = append(traits, "collaborative")
		}
		if len(traits) > 0 {
			fmt.Printf(" (%s)", strings.Join(traits, ", "))
		}
		fmt.Println()
	}
}
