package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nbennett1978/vocab-trainer/internal/app"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a learner's streaks, stars and achievements",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetInt64("user")

		container, cleanup, err := app.Initialize()
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		stats, err := container.Stats.LearnerStats(cmd.Context(), userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Stars: %d\n", stats.TotalStars)
		fmt.Fprintf(out, "Streak: %d day(s), best %d\n", stats.CurrentStreak, stats.LongestStreak)
		if !stats.LastActiveDate.IsZero() {
			fmt.Fprintf(out, "Last active: %s\n", stats.LastActiveDate.Format("2006-01-02"))
		}

		achievements, err := container.Stats.Achievements(cmd.Context(), userID)
		if err != nil {
			return err
		}
		if len(achievements) > 0 {
			fmt.Fprintln(out, "Achievements:")
			for _, a := range achievements {
				fmt.Fprintf(out, "  %s (%s)\n", a.Type, a.EarnedAt.Format("2006-01-02"))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Int64("user", 1, "learner id")
}
