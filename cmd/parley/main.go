package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bowerhall/parley/internal/logger"
)

func init() {
	godotenv.Load()
}

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley - turn-based conversational skill engine",
	Long: `Parley routes chat messages to conversational skills, suspends them while
they wait for the user, and resumes them from a persisted session on the next turn.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newChatCmd(), newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
