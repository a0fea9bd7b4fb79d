package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/robroyhobbs/burgerprice/internal/collector"
)

// collectCmd runs one collection synchronously
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run the weekly collection now",
	Long: `Researches every city for one week, stores the snapshots and
generates the market report, industry news and newsletter.

Cities that already have a snapshot for the week are skipped.

Example:
  go run ./cmd/bpi collect
  go run ./cmd/bpi collect --period 2026-02-09
  go run ./cmd/bpi collect --json`,
	RunE: runCollect,
}

var (
	collectPeriod string
	collectJSON   bool
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectPeriod, "period", "", "week start (YYYY-MM-DD), default current week")
	collectCmd.Flags().BoolVar(&collectJSON, "json", false, "print the raw result as JSON")
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	result, err := a.collector.Collect(ctx, collector.CollectOptions{Period: collectPeriod})
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	if collectJSON {
		return PrintJSON(result)
	}

	PrintJobHeader("Weekly Collection", map[string]string{
		"Period": result.Period,
		"Source": a.store.Name(),
	})
	PrintSubjectResults(result.Subjects)
	fmt.Println()
	fmt.Printf("  Fresh snapshots : %d\n", result.Fresh)
	fmt.Printf("  Market report   : %s\n", result.Report)
	fmt.Printf("  Industry news   : %s\n", result.News)
	fmt.Printf("  Newsletter      : %s\n", result.Newsletter)
	PrintJobCompletion(start)
	return nil
}
