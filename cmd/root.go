package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tutorloop",
	Short: "Adaptive AI tutoring backend for programming learners",
	Long: `Tutorloop is an AI tutor that adapts to how confused a learner is.
It tracks confusion from sentiment and repetition, discloses debugging
hints one tier at a time, and curates flashcards from the errors a
learner actually makes.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".tutorloop.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
