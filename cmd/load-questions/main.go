package main

import (
	"context"
	"fmt"
	"os"

	"purple-sphinx/internal/catalog"
	"purple-sphinx/internal/config"
	"purple-sphinx/internal/db"
	"purple-sphinx/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	logging.Setup("info", true)
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	var (
		filePath    string
		databaseURL string
	)
	cmd := &cobra.Command{
		Use:           "load-questions",
		Short:         "Import questions from a CSV file into the catalog.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ApplyEnv(cmd.Flags()); err != nil {
				return err
			}
			if databaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}
			conn, err := db.Open(databaseURL)
			if err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			if err := db.Migrate(conn); err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}
			loaded, err := load(cmd.Context(), catalog.New(conn), filePath)
			if err != nil {
				return err
			}
			log.Info().Int("questions", loaded).Str("file", filePath).Msg("questions loaded")
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "questions.csv", "path to questions csv")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "postgres connection string (env: DATABASE_URL)")
	return cmd
}

// load saves every question in the file, stopping at the first invalid one.
func load(ctx context.Context, store *catalog.Store, path string) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	questions, err := catalog.ReadQuestions(file)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	for i, q := range questions {
		if _, err := store.SaveQuestion(ctx, q); err != nil {
			return i, fmt.Errorf("save question %q: %w", q.ID, err)
		}
	}
	return len(questions), nil
}
