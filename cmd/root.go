package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vocab-trainer",
	Short: "Spaced-repetition vocabulary trainer for English and Turkish",
	Long: `vocab-trainer drills a learner's vocabulary in both directions using a
five-box Leitner system. Words climb a box per correct answer and fall back
to box one on a miss; higher boxes come up for review less often.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
