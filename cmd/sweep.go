package cmd

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"

	"github.com/nbennett1978/vocab-trainer/internal/app"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Abandon sessions idle past the configured timeout",
	Long: `sweep closes out sessions whose learner walked away, and reconciles
session rows left open by a crashed process. Abandoned sessions keep the word
progress already applied but contribute nothing to streaks or achievements.
By default the sweeper keeps running on an interval; use --once for a single
pass.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")
		interval, _ := cmd.Flags().GetDuration("interval")

		container, cleanup, err := app.Initialize()
		if err != nil {
			return err
		}
		defer cleanup()

		if once {
			container.Sessions.AbandonStale(cmd.Context())
			return nil
		}

		s := gocron.NewScheduler(time.UTC)
		if _, err := s.Every(interval).Do(func() {
			container.Sessions.AbandonStale(cmd.Context())
		}); err != nil {
			return err
		}
		container.Logger.WithField("interval", interval).Info("sweeper started")
		s.StartBlocking()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().Bool("once", false, "run a single sweep and exit")
	sweepCmd.Flags().Duration("interval", 10*time.Minute, "time between sweeps")
}
