package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iknowaspot/backend/internal/database"
	"github.com/iknowaspot/backend/internal/friends"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile-friendships",
	Short: "Repair one-sided friendship edges",
	Long: `Scans the friendships table for edges missing their mirror row and
recreates the missing direction. Friendships are symmetric; a one-sided
edge can only appear if a past write was interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		repaired, err := friends.NewService(database.DB).Reconcile(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Repaired %d one-sided friendships\n", repaired)
		return nil
	},
}
