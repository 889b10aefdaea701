package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "liquidbooks",
	Short: "LiquidBooks: a psychometric writing-voice engine and book drafting server",
	Long: `LiquidBooks turns psychometric questionnaire answers into a digital
writing twin, then uses that twin's voice to draft and publish books.

Run 'liquidbooks start' to launch the server, then use the other
commands to record answers, rebuild the twin, and manage books.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the liquidbooks version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("liquidbooks version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(answersCmd)
	rootCmd.AddCommand(twinCmd)
	rootCmd.AddCommand(voicePromptCmd)
	rootCmd.AddCommand(stylesCmd)
	rootCmd.AddCommand(samplesCmd)
	rootCmd.AddCommand(booksCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
