package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"haes/internal/evolution"
)

var (
	feedbackMode     string
	feedbackDocs     []string
	feedbackPersonas []string
	feedbackScore    int
	feedbackComment  string
)

// feedbackCmd records a rating for a past execution.
var feedbackCmd = &cobra.Command{
	Use:   "feedback [query]",
	Short: "Record a 1-5 rating for an executed request",
	Long: `Appends a feedback record for an execution, updates per-document
statistics, and feeds pattern learning. Repeated successes on the same
document combination become learned routing patterns.

Example:
  haes feedback "API 만들어줘" --docs api-design --mode skill_agent --score 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFeedback,
}

func runFeedback(cmd *cobra.Command, args []string) error {
	sys, err := newSystem()
	if err != nil {
		return err
	}

	result := &evolution.ExecutionResult{
		Query:         strings.Join(args, " "),
		Mode:          feedbackMode,
		DocumentsUsed: feedbackDocs,
		PersonasUsed:  feedbackPersonas,
	}

	suggestion, err := sys.engine.RecordFeedback(result, feedbackComment, feedbackScore)
	if err != nil {
		return err
	}
	if !sys.cfg.Evolution.AutoSave {
		sys.engine.Save()
	}

	stats := sys.engine.Stats()
	fmt.Printf("Recorded feedback (score %d). Total: %d, patterns: %d\n",
		feedbackScore, stats.TotalFeedback, stats.LearnedPatterns)
	if suggestion != nil {
		fmt.Printf("Suggestion: %s\n", suggestion.Suggestion)
	}
	return nil
}

// statsCmd reports engine aggregates or per-document performance.
var statsCmd = &cobra.Command{
	Use:   "stats [document-id]",
	Short: "Show feedback statistics, overall or for one document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	sys, err := newSystem()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		perf := sys.engine.SkillPerformance(args[0])
		if jsonOutput {
			data, err := json.MarshalIndent(perf, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		fmt.Printf("Document:      %s\n", args[0])
		fmt.Printf("Runs:          %d\n", perf.Total)
		fmt.Printf("Successes:     %d\n", perf.Success)
		fmt.Printf("Success rate:  %.0f%%\n", perf.SuccessRate*100)
		fmt.Printf("Average score: %.2f\n", perf.AverageScore)
		return nil
	}

	stats := sys.engine.Stats()
	if jsonOutput {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("Feedback:  %d (%d positive, %d negative)\n",
		stats.TotalFeedback, stats.Positive, stats.Negative)
	fmt.Printf("Average:   %.2f\n", stats.AverageScore)
	fmt.Printf("Patterns:  %d\n", stats.LearnedPatterns)
	fmt.Printf("Documents: %d\n", stats.DocumentsTracked)

	top := sys.engine.TopPerformingSkills(5)
	if len(top) > 0 {
		fmt.Println("\nTop documents:")
		for _, rank := range top {
			fmt.Printf("  %-22s %.0f%% (%d runs)\n", rank.ID, rank.SuccessRate*100, rank.Total)
		}
	}
	return nil
}

// backupCmd snapshots the evolution state to a timestamped file.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a timestamped backup of the learning state",
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := newSystem()
		if err != nil {
			return err
		}
		path, ok := sys.engine.Backup()
		if !ok {
			return fmt.Errorf("backup failed")
		}
		fmt.Println("Backup written:", path)
		return nil
	},
}

// restoreCmd replaces the learning state from a backup file.
var restoreCmd = &cobra.Command{
	Use:   "restore [backup-file]",
	Short: "Restore the learning state from a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := newSystem()
		if err != nil {
			return err
		}
		if !sys.engine.RestoreFromBackup(args[0]) {
			return fmt.Errorf("restore from %s failed", args[0])
		}
		stats := sys.engine.Stats()
		fmt.Printf("Restored %d feedback records, %d patterns\n",
			stats.TotalFeedback, stats.LearnedPatterns)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackMode, "mode", "skill_agent", "execution mode that was used")
	feedbackCmd.Flags().StringSliceVar(&feedbackDocs, "docs", nil, "document ids that were used")
	feedbackCmd.Flags().StringSliceVar(&feedbackPersonas, "personas", nil, "persona ids that were used")
	feedbackCmd.Flags().IntVar(&feedbackScore, "score", 3, "rating from 1 (bad) to 5 (great)")
	feedbackCmd.Flags().StringVar(&feedbackComment, "comment", "", "optional free-form comment")
}
