// Package views derives the read-only aggregates shown on the index pages
// from stored snapshots. Everything here is pure.
package views

import (
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/wages"
)

// Entry is one subject with its snapshot history.
type Entry struct {
	Subject  contracts.Subject    `json:"subject"`
	Current  *contracts.Snapshot  `json:"current"`
	Previous *contracts.Snapshot  `json:"previous"`
	History  []contracts.Snapshot `json:"history"` // period ascending
}

// BuildEntries pairs every subject with its snapshots, in subject order.
func BuildEntries(subjects []contracts.Subject, snapshots []contracts.Snapshot) []Entry {
	bySubject := make(map[string][]contracts.Snapshot)
	for _, s := range snapshots {
		bySubject[s.SubjectID] = append(bySubject[s.SubjectID], s)
	}

	entries := make([]Entry, 0, len(subjects))
	for _, subj := range subjects {
		history := bySubject[subj.ID]
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Period < history[j].Period
		})

		e := Entry{Subject: subj, History: history}
		if n := len(history); n > 0 {
			e.Current = &history[n-1]
			if n > 1 {
				e.Previous = &history[n-2]
			}
		}
		if e.History == nil {
			e.History = []contracts.Snapshot{}
		}
		entries = append(entries, e)
	}
	return entries
}

// HistoryPoint is the national average for one period.
type HistoryPoint struct {
	Period  string          `json:"period"`
	Average decimal.Decimal `json:"avg_bpi"`
	Count   int             `json:"city_count"`
}

// NationalHistory averages every snapshot per period, oldest first.
func NationalHistory(snapshots []contracts.Snapshot) []HistoryPoint {
	type acc struct {
		total decimal.Decimal
		count int
	}
	byPeriod := make(map[string]*acc)
	for _, s := range snapshots {
		a, ok := byPeriod[s.Period]
		if !ok {
			a = &acc{total: decimal.Zero}
			byPeriod[s.Period] = a
		}
		a.total = a.total.Add(s.IndexScore)
		a.count++
	}

	points := make([]HistoryPoint, 0, len(byPeriod))
	for period, a := range byPeriod {
		points = append(points, HistoryPoint{
			Period:  period,
			Average: a.total.Div(decimal.NewFromInt(int64(a.count))).Round(2),
			Count:   a.count,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points
}

// RegionAverage is the mean current score of the subjects in one region.
type RegionAverage struct {
	Region  string          `json:"region"`
	Average decimal.Decimal `json:"avg_bpi"`
	Count   int             `json:"city_count"`
}

// RegionalAverages groups current scores by region, sorted by region.
// Subjects without a snapshot are ignored.
func RegionalAverages(entries []Entry) []RegionAverage {
	totals := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, e := range entries {
		if e.Current == nil {
			continue
		}
		r := e.Subject.Region
		totals[r] = totals[r].Add(e.Current.IndexScore)
		counts[r]++
	}

	out := make([]RegionAverage, 0, len(totals))
	for r, total := range totals {
		out = append(out, RegionAverage{
			Region:  r,
			Average: total.Div(decimal.NewFromInt(int64(counts[r]))).Round(2),
			Count:   counts[r],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

// Rank orders entries by current score, highest first. Entries without a
// snapshot go last; ties keep input order.
func Rank(entries []Entry) []Entry {
	ranked := append([]Entry(nil), entries...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Current, ranked[j].Current
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.IndexScore.GreaterThan(b.IndexScore)
		}
	})
	return ranked
}

// SpreadEntry is one burger at an end of the national price spread.
type SpreadEntry struct {
	City       string          `json:"city"`
	Region     string          `json:"region"`
	Restaurant string          `json:"restaurant"`
	Price      decimal.Decimal `json:"price"`
}

// SpreadView lists the cheapest and most expensive burgers nationally.
type SpreadView struct {
	Cheapest      []SpreadEntry `json:"cheapest"`
	MostExpensive []SpreadEntry `json:"most_expensive"`
}

const spreadSize = 3

// Spread takes the top 3 cheapest and most expensive current burgers.
// Zero-priced cheapest entries are excluded. Ties break by city name.
func Spread(entries []Entry) SpreadView {
	view := SpreadView{Cheapest: []SpreadEntry{}, MostExpensive: []SpreadEntry{}}
	for _, e := range entries {
		if e.Current == nil {
			continue
		}
		if e.Current.Cheapest.Price.IsPositive() {
			view.Cheapest = append(view.Cheapest, spreadEntry(e, e.Current.Cheapest))
		}
		view.MostExpensive = append(view.MostExpensive, spreadEntry(e, e.Current.MostExpensive))
	}

	sort.SliceStable(view.Cheapest, func(i, j int) bool {
		a, b := view.Cheapest[i], view.Cheapest[j]
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c < 0
		}
		return a.City < b.City
	})
	sort.SliceStable(view.MostExpensive, func(i, j int) bool {
		a, b := view.MostExpensive[i], view.MostExpensive[j]
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c > 0
		}
		return a.City < b.City
	})

	if len(view.Cheapest) > spreadSize {
		view.Cheapest = view.Cheapest[:spreadSize]
	}
	if len(view.MostExpensive) > spreadSize {
		view.MostExpensive = view.MostExpensive[:spreadSize]
	}
	return view
}

func spreadEntry(e Entry, pl contracts.PriceLabel) SpreadEntry {
	restaurant := strings.TrimSpace(pl.Label)
	if restaurant == "" {
		restaurant = "Unknown"
	}
	return SpreadEntry{
		City:       e.Subject.Name,
		Region:     e.Subject.Region,
		Restaurant: restaurant,
		Price:      pl.Price,
	}
}

// PowerEntry is how many index burgers one hour of minimum wage buys.
type PowerEntry struct {
	City           string          `json:"city"`
	Region         string          `json:"region"`
	Slug           string          `json:"slug"`
	MinWage        decimal.Decimal `json:"min_wage"`
	Score          decimal.Decimal `json:"avg_bpi"`
	BurgersPerHour decimal.Decimal `json:"burgers_per_hour"`
}

// PurchasingPower divides each subject's minimum wage by its current score,
// rounded to 2 places, highest first. Subjects with no wage entry or a
// non-positive score are excluded.
func PurchasingPower(entries []Entry, table wages.Table) []PowerEntry {
	out := []PowerEntry{}
	for _, e := range entries {
		if e.Current == nil || !e.Current.IndexScore.IsPositive() {
			continue
		}
		w, ok := table.Lookup(e.Subject.Slug)
		if !ok {
			continue
		}
		out = append(out, PowerEntry{
			City:           e.Subject.Name,
			Region:         e.Subject.Region,
			Slug:           e.Subject.Slug,
			MinWage:        w.MinWage,
			Score:          e.Current.IndexScore,
			BurgersPerHour: w.MinWage.Div(e.Current.IndexScore).Round(2),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BurgersPerHour.GreaterThan(out[j].BurgersPerHour)
	})
	return out
}

// SelectPair deterministically picks two distinct indices in [0, count) for
// a period label. The same label always yields the same pair. count < 2
// yields (0, 0).
func SelectPair(label string, count int) (int, int) {
	if count < 2 {
		return 0, 0
	}

	var h int32
	for _, c := range utf16.Encode([]rune(label)) {
		h = h*31 + int32(c)
	}
	hash := int64(h)
	if hash < 0 {
		hash = -hash
	}

	n := int64(count)
	first := hash % n
	second := (hash*7 + 13) % n
	if second == first {
		second = (first + 1) % n
	}
	return int(first), int(second)
}
