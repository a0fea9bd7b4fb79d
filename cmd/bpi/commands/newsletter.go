package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/robroyhobbs/burgerprice/internal/collector"
)

// newsletterCmd groups newsletter maintenance
var newsletterCmd = &cobra.Command{
	Use:   "newsletter",
	Short: "Newsletter maintenance",
}

var newsletterBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate missing newsletter editions",
	Long: `Generates newsletters for the most recent weeks that have snapshot
data and no edition yet.

Example:
  go run ./cmd/bpi newsletter backfill
  go run ./cmd/bpi newsletter backfill --weeks 8`,
	RunE: runNewsletterBackfill,
}

var (
	newsletterWeeks int
	newsletterJSON  bool
)

func init() {
	rootCmd.AddCommand(newsletterCmd)
	newsletterCmd.AddCommand(newsletterBackfillCmd)

	newsletterBackfillCmd.Flags().IntVar(&newsletterWeeks, "weeks", collector.DefaultNewsletterWeeks, "number of recent weeks (1-52)")
	newsletterBackfillCmd.Flags().BoolVar(&newsletterJSON, "json", false, "print the raw result as JSON")
}

func runNewsletterBackfill(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	result, err := a.collector.BackfillNewsletters(ctx, newsletterWeeks)
	if err != nil {
		return fmt.Errorf("newsletter backfill: %w", err)
	}

	if newsletterJSON {
		return PrintJSON(result)
	}

	PrintJobHeader("Newsletter Backfill", map[string]string{
		"Weeks": fmt.Sprintf("%d", newsletterWeeks),
	})

	periods := make([]string, 0, len(result.Periods))
	for p := range result.Periods {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	for _, p := range periods {
		fmt.Printf("  %s  %s\n", p, result.Periods[p])
	}
	fmt.Println()
	fmt.Printf("  Generated: %d\n", result.Generated)
	PrintJobCompletion(start)
	return nil
}
