package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robroyhobbs/burgerprice/internal/storage/migrations"
	"github.com/robroyhobbs/burgerprice/pkg/config"
	"github.com/robroyhobbs/burgerprice/pkg/database"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// migrateCmd applies the postgres schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Applies the embedded SQL migrations to DATABASE_URL.
Every file is idempotent, so re-running is safe.

Example:
  go run ./cmd/bpi migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	applied, err := migrations.RunPostgres(ctx, db.Pool)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	log.WithField("applied", len(applied)).Info("Migrations complete")
	if len(applied) == 0 {
		fmt.Println("✅ Schema is up to date")
		return nil
	}
	for _, name := range applied {
		fmt.Printf("  ✅ %s\n", name)
	}
	return nil
}
