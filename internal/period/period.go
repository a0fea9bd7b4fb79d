// Package period maps instants onto weekly reporting windows.
package period

import (
	"fmt"
	"time"
)

// Layout is the canonical string form of a period key.
const Layout = "2006-01-02"

// Length is the fixed window length.
const Length = 7 * 24 * time.Hour

// Start returns Monday 00:00 UTC of the ISO week containing t.
// A Sunday rolls back six days, never forward.
func Start(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
}

// Key returns the period key for the window containing t.
func Key(t time.Time) string {
	return Start(t).Format(Layout)
}

// Format renders an already-normalized period start as a key.
func Format(start time.Time) string {
	return start.UTC().Format(Layout)
}

// Back steps n whole windows back from an already-normalized start.
// It does not re-normalize, so it can never double-shift.
func Back(start time.Time, n int) time.Time {
	return start.AddDate(0, 0, -7*n)
}

// LastN returns the n periods before the one containing now, oldest first.
func LastN(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	current := Start(now)
	keys := make([]string, 0, n)
	for i := n; i >= 1; i-- {
		keys = append(keys, Format(Back(current, i)))
	}
	return keys
}

// Parse validates a period key and returns its start instant.
// The key must name a Monday.
func Parse(key string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period %q: %w", key, err)
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, fmt.Errorf("invalid period %q: not a Monday", key)
	}
	return t, nil
}
