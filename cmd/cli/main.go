package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iknowaspot/backend/internal/database"
	"github.com/iknowaspot/backend/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "spotctl",
	Short: "iknowaspot admin CLI",
	Long: `spotctl provides command-line access to iknowaspot maintenance tasks:
database seeding and social-graph repair.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Missing .env is fine, the system environment may carry everything
		_ = godotenv.Load()
		if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
			return err
		}
		if err := database.Initialize(); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return database.Migrate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		database.Close()
		logger.Close()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
