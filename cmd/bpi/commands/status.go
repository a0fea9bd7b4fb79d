package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd reports store health and the latest weeks on record
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show data source and latest weeks",
	Long: `Shows the data source, cache state, tracked cities and the most
recent weeks with snapshots and newsletters.

Example:
  go run ./cmd/bpi status
  go run ./cmd/bpi status --weeks 8`,
	RunE: runStatus,
}

var statusWeeks int

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusWeeks, "weeks", 4, "recent weeks to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	store := "ok"
	if err := a.store.Ping(ctx); err != nil {
		store = "unreachable: " + err.Error()
	}
	cache := "disabled"
	if a.redis.Enabled() {
		cache = "enabled"
		if err := a.redis.Ping(ctx); err != nil {
			cache = "unreachable: " + err.Error()
		}
	}

	subjects, err := a.store.ListSubjects(ctx)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}

	PrintJobHeader("Burger Price Index Status", map[string]string{
		"Source": a.store.Name() + " (" + store + ")",
		"Cache":  cache,
		"Cities": fmt.Sprintf("%d", len(subjects)),
	})

	periods, err := a.store.ListPeriods(ctx, statusWeeks)
	if err != nil {
		return fmt.Errorf("list periods: %w", err)
	}
	if len(periods) == 0 {
		fmt.Println("  No snapshots yet")
		return nil
	}

	for _, p := range periods {
		snaps, err := a.store.ListByPeriod(ctx, p)
		if err != nil {
			return fmt.Errorf("list period %s: %w", p, err)
		}
		edition := "no"
		if ok, err := a.store.NewsletterExists(ctx, p); err == nil && ok {
			edition = "yes"
		}
		fmt.Printf("  %s  cities=%d/%d  newsletter=%s\n", p, len(snaps), len(subjects), edition)
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
	return nil
}
