package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

// backfillCmd collects past weeks for a single city
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Collect past weeks for one city",
	Long: `Collects the weeks before the current one for a single city,
oldest first. Weeks that already have a snapshot are skipped.

--subject accepts the city id or its slug.

Example:
  go run ./cmd/bpi backfill --subject boston-ma --weeks 4`,
	RunE: runBackfill,
}

var (
	backfillSubject string
	backfillWeeks   int
	backfillJSON    bool
)

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().StringVar(&backfillSubject, "subject", "", "city id or slug")
	backfillCmd.Flags().IntVar(&backfillWeeks, "weeks", 4, "number of past weeks (1-12)")
	backfillCmd.Flags().BoolVar(&backfillJSON, "json", false, "print the raw result as JSON")
	_ = backfillCmd.MarkFlagRequired("subject")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	subjectID := backfillSubject
	subj, err := a.store.GetSubjectBySlug(ctx, backfillSubject)
	switch {
	case err == nil:
		subjectID = subj.ID
	case !errors.Is(err, contracts.ErrNotFound):
		return fmt.Errorf("resolve subject: %w", err)
	}

	start := time.Now()
	result, err := a.collector.BackfillSubject(ctx, subjectID, backfillWeeks)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}

	if backfillJSON {
		return PrintJSON(result)
	}

	PrintJobHeader("City Backfill", map[string]string{
		"Subject": result.Subject,
		"Weeks":   fmt.Sprintf("%d", backfillWeeks),
	})
	PrintSubjectResults(result.Periods)
	fmt.Println()
	fmt.Printf("  Created: %d  Skipped: %d  Failed: %d\n", result.Created, result.Skipped, result.Failed)
	PrintJobCompletion(start)
	return nil
}
