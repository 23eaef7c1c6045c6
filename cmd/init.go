package cmd

import (
	"github.com/spf13/cobra"

	"tutorloop/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tutorloop configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure tutorloop and generates a .tutorloop.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
