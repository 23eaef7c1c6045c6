package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"tutorloop/internal/config"
	"tutorloop/internal/db"
	"tutorloop/internal/store"
)

var cardsUnreviewedOnly bool

var cardsCmd = &cobra.Command{
	Use:   "cards <user-id>",
	Short: "List a user's flashcards from the local database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "tutorloop.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		history, err := store.New(database).Load(context.Background(), args[0])
		if err != nil {
			return err
		}
		if history == nil || len(history.Flashcards) == 0 {
			fmt.Println("No flashcards yet.")
			return nil
		}

		for _, c := range history.Flashcards {
			if cardsUnreviewedOnly && c.ReviewCount > 0 {
				continue
			}
			fmt.Printf("%s  (%s, reviewed %d times)\n", c.ID, c.CreatedAt.Format("2006-01-02"), c.ReviewCount)
			fmt.Printf("  Q: %s\n", c.Front)
			fmt.Printf("  A: %s\n\n", c.Back)
		}
		return nil
	},
}

func init() {
	cardsCmd.Flags().BoolVar(&cardsUnreviewedOnly, "unreviewed", false, "only show cards never reviewed")
	rootCmd.AddCommand(cardsCmd)
}
