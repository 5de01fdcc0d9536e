package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nbennett1978/vocab-trainer/internal/app"
	"github.com/nbennett1978/vocab-trainer/internal/entity"
	"github.com/nbennett1978/vocab-trainer/internal/usecase"
	"github.com/nbennett1978/vocab-trainer/pkg/answermatch"
)

var drillCmd = &cobra.Command{
	Use:   "drill",
	Short: "Run an interactive training session",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetInt64("user")
		typeFlag, _ := cmd.Flags().GetString("type")
		directionFlag, _ := cmd.Flags().GetString("direction")
		category, _ := cmd.Flags().GetString("category")

		sessionType, err := entity.ParseSessionType(typeFlag)
		if err != nil {
			return err
		}
		direction := entity.ParseDirection(directionFlag)
		if directionFlag != "" && directionFlag != "mixed" && !direction.Valid() {
			return fmt.Errorf("unknown direction %q (en_to_tr, tr_to_en or mixed)", directionFlag)
		}

		container, cleanup, err := app.Initialize()
		if err != nil {
			return err
		}
		defer cleanup()

		if sessionType == entity.SessionTypeCategory {
			if err := checkCategory(cmd, container, category); err != nil {
				return err
			}
		}

		return runDrill(cmd, container.Sessions, userID, sessionType, direction, category)
	},
}

func init() {
	rootCmd.AddCommand(drillCmd)
	drillCmd.Flags().Int64("user", 1, "learner id")
	drillCmd.Flags().String("type", "standard", "session type (standard, quick, weak_words, review_mastered, category)")
	drillCmd.Flags().String("direction", "mixed", "drill direction (en_to_tr, tr_to_en or mixed)")
	drillCmd.Flags().String("category", "", "category filter for category sessions")
}

// checkCategory rejects unknown categories up front so the learner sees the
// valid ones instead of an empty-session error.
func checkCategory(cmd *cobra.Command, container *app.Container, category string) error {
	categories, err := container.Words.Categories(cmd.Context())
	if err != nil {
		return err
	}
	for _, c := range categories {
		if c == category {
			return nil
		}
	}
	return fmt.Errorf("unknown category %q (available: %s)", category, strings.Join(categories, ", "))
}

func runDrill(cmd *cobra.Command, sessions *usecase.SessionUsecase, userID int64, sessionType entity.SessionType, direction entity.Direction, category string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	res, err := sessions.Start(ctx, userID, sessionType, direction, category)
	if err != nil {
		var noWords *entity.NoWordsError
		if errors.As(err, &noWords) {
			if noWords.AllMastered {
				fmt.Fprintln(out, "Nothing left to drill: every word is fully mastered. Well done!")
				return nil
			}
			fmt.Fprintln(out, "No words available for this session.")
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "Session started: %d words. Type /quit to finish early.\n\n", res.TotalWords)

	scanner := bufio.NewScanner(os.Stdin)
	current := res.First
	for current != nil {
		printPrompt(out, current)
		if !scanner.Scan() {
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "/quit" {
			break
		}

		sub, err := sessions.SubmitAnswer(ctx, userID, res.SessionID, answer)
		if err != nil {
			return err
		}
		printVerdict(out, sub)
		if sub.Completed {
			printSummary(out, sub.Summary)
			return nil
		}
		if !sub.AllowRetry {
			current = sub.Next
		}
	}

	summary, err := sessions.EndSession(ctx, userID, res.SessionID)
	if err != nil {
		return err
	}
	printSummary(out, summary)
	return nil
}

func printPrompt(out io.Writer, p *usecase.PresentedWord) {
	retry := ""
	if p.IsRetry {
		retry = " (retry)"
	}
	fmt.Fprintf(out, "[%d/%d]%s %s\n", p.Position, p.Total, retry, p.Prompt)
	if p.Example != "" {
		fmt.Fprintf(out, "      %s\n", p.Example)
	}
	fmt.Fprint(out, "> ")
}

func printVerdict(out io.Writer, sub *usecase.SubmitResult) {
	switch sub.Verdict {
	case answermatch.VerdictCorrect:
		fmt.Fprintf(out, "Correct! +%d star\n\n", sub.StarsEarned)
	case answermatch.VerdictAlmost:
		fmt.Fprintf(out, "%s (%d%% match)\n\n", sub.Message, sub.Accuracy)
	default:
		fmt.Fprintf(out, "Incorrect. The answer was: %s\n\n", sub.CorrectAnswer)
	}
}

func printSummary(out io.Writer, s *usecase.SessionSummary) {
	if s == nil {
		return
	}
	fmt.Fprintf(out, "Session complete: %d/%d correct (%d%%), %d stars.\n",
		s.WordsCorrect, s.WordsAsked, s.Accuracy, s.Stars)
	if s.CurrentStreak > 0 {
		fmt.Fprintf(out, "Streak: %d day(s), best %d.\n", s.CurrentStreak, s.LongestStreak)
	}
	for _, a := range s.NewAchievements {
		fmt.Fprintf(out, "Achievement unlocked: %s\n", a)
	}
}
