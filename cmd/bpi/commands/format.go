package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/robroyhobbs/burgerprice/internal/collector"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// Every command prints with the same layout
// ═══════════════════════════════════════════════════════════

// PrintJobHeader prints a formatted job header
func PrintJobHeader(title string, fields map[string]string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("───────────────────────────────────────────────────────────")

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-10s: %s\n", k, fields[k])
	}

	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintSubjectResults prints one line per subject, sorted by slug
func PrintSubjectResults(results map[string]collector.SubjectResult) {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		r := results[k]
		line := fmt.Sprintf("  %s %-24s %-8s", statusIcon(r.Status), k, r.Status)
		if r.Score != nil {
			line += fmt.Sprintf(" score=%s", r.Score.StringFixed(2))
		}
		if r.ChangePct != nil {
			line += fmt.Sprintf(" change=%s%%", r.ChangePct.StringFixed(1))
		}
		if r.Reason != "" {
			line += fmt.Sprintf(" (%s)", r.Reason)
		}
		if r.Error != "" {
			line += fmt.Sprintf(" stage=%s error=%s", r.Stage, r.Error)
		}
		fmt.Println(line)
	}
}

// PrintJobCompletion prints the elapsed time
func PrintJobCompletion(start time.Time) {
	fmt.Println()
	fmt.Printf("✅ Completed in %.2fs\n", time.Since(start).Seconds())
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintJSON prints v as indented JSON
func PrintJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func statusIcon(s collector.Status) string {
	switch s {
	case collector.StatusCreated:
		return "✅"
	case collector.StatusSkipped:
		return "⏭ "
	default:
		return "❌"
	}
}
