package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iknowaspot/backend/internal/database"
	"github.com/iknowaspot/backend/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:       "seed [dev|test|clean]",
	Short:     "Seed or clean the database",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"dev", "test", "clean"},
	RunE: func(cmd *cobra.Command, args []string) error {
		seeder := seed.NewSeeder(database.DB)

		switch args[0] {
		case "dev":
			if err := seeder.SeedDev(); err != nil {
				return err
			}
			fmt.Println("Development database seeded")
		case "test":
			if err := seeder.SeedTest(); err != nil {
				return err
			}
			fmt.Println("Test database seeded")
		case "clean":
			if err := seeder.Clean(); err != nil {
				return err
			}
			fmt.Println("Seed data removed")
		}
		return nil
	},
}
