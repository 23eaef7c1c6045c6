package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tutorloop/internal/config"
	"tutorloop/internal/db"
	"tutorloop/internal/export"
	"tutorloop/internal/store"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <user-id>",
	Short: "Export a user's session as a markdown or HTML study sheet",
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
		if history == nil {
			return fmt.Errorf("no session recorded for user %s", args[0])
		}

		var data []byte
		switch exportFormat {
		case "html":
			if data, err = export.RenderHTML(history); err != nil {
				return err
			}
		case "md", "markdown":
			data = []byte(export.RenderMarkdown(history))
		default:
			return fmt.Errorf("unknown format %q: use md or html", exportFormat)
		}

		if exportOut == "" || exportOut == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", exportOut, err)
		}
		fmt.Printf("Study sheet written to %s\n", exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "md", "output format: md or html")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
