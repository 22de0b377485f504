package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/coven/internal/storage/sqlite"
)

var migrateDown int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and exit",
	Long: `Apply pending schema migrations and exit.

With --down N the N most recent migrations are reverted after the schema is
brought up to date. The next server start applies them again.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if migrateDown > 0 {
			if err := store.RollbackMigrations(migrateDown); err != nil {
				return err
			}
		}

		version, dirty, err := store.SchemaVersion(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d (dirty=%v)\n", cfg.DBPath, version, dirty)
		return nil
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateDown, "down", 0, "number of migrations to revert")
	rootCmd.AddCommand(migrateCmd)
}
