package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/nbennett1978/vocab-trainer/internal/infrastructure/config"
	"github.com/nbennett1978/vocab-trainer/internal/infrastructure/database"
)

// dbInitCmd applies the schema and optionally imports a word list.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Initialize the database schema and optionally import words",
	RunE: func(cmd *cobra.Command, args []string) error {
		wordsPath, _ := cmd.Flags().GetString("words")
		batch, _ := cmd.Flags().GetInt("batch")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		pool, cleanup, err := database.NewConnection(cfg)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer cleanup()

		if err := database.Migrate(cmd.Context(), pool); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema applied")

		if wordsPath == "" {
			return nil
		}
		n, err := importWords(cmd.Context(), pool, wordsPath, batch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d words\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().String("words", "", "JSON word list to import")
	dbInitCmd.Flags().Int("batch", 500, "batch insert size")
}

type wordImport struct {
	English         string `json:"english"`
	Turkish         string `json:"turkish"`
	Category        string `json:"category"`
	ExampleSentence string `json:"example_sentence"`
}

// importWords loads a JSON array of words and upserts them in batches, keyed
// by the (english, turkish) pair so reruns refresh instead of duplicating.
func importWords(ctx context.Context, pool *pgxpool.Pool, path string, batchSize int) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read word list: %w", err)
	}
	var words []wordImport
	if err := json.Unmarshal(data, &words); err != nil {
		return 0, fmt.Errorf("parse word list: %w", err)
	}

	total := 0
	for start := 0; start < len(words); start += batchSize {
		end := start + batchSize
		if end > len(words) {
			end = len(words)
		}
		if err := insertWordBatch(ctx, pool, words[start:end]); err != nil {
			return total, err
		}
		total += end - start
	}
	return total, nil
}

func insertWordBatch(ctx context.Context, pool *pgxpool.Pool, batch []wordImport) error {
	b := &pgx.Batch{}
	for _, w := range batch {
		if w.English == "" || w.Turkish == "" {
			continue
		}
		b.Queue(
			`INSERT INTO words (english, turkish, category, example_sentence)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (english, turkish) DO UPDATE SET
			   category = EXCLUDED.category,
			   example_sentence = EXCLUDED.example_sentence`,
			w.English, w.Turkish, w.Category, w.ExampleSentence)
	}
	br := pool.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert words: %w", err)
		}
	}
	return br.Close()
}
