// Package wages holds the 2026 minimum wage table used for purchasing power.
package wages

import "github.com/shopspring/decimal"

// Source of a minimum wage figure.
type Source string

const (
	SourceCity    Source = "city"
	SourceState   Source = "state"
	SourceFederal Source = "federal"
)

// Entry is one city's hourly minimum wage.
type Entry struct {
	Slug    string          `json:"slug"`
	City    string          `json:"city"`
	Region  string          `json:"region"`
	MinWage decimal.Decimal `json:"min_wage"`
	Source  Source          `json:"source"`
	Note    string          `json:"note,omitempty"`
}

// Table maps subject slugs to wages. Rates as of February 2026.
type Table map[string]Entry

var federal = decimal.RequireFromString("7.25")

// Default returns the built-in wage table.
func Default() Table {
	entries := []Entry{
		{Slug: "new-york-ny", City: "New York", Region: "NY", MinWage: decimal.RequireFromString("17.00"), Source: SourceCity, Note: "NYC rate, upstate NY is $16.00"},
		{Slug: "los-angeles-ca", City: "Los Angeles", Region: "CA", MinWage: decimal.RequireFromString("17.87"), Source: SourceCity, Note: "CPI-adjusted annually"},
		{Slug: "chicago-il", City: "Chicago", Region: "IL", MinWage: decimal.RequireFromString("16.60"), Source: SourceCity, Note: "4+ employees"},
		{Slug: "san-francisco-ca", City: "San Francisco", Region: "CA", MinWage: decimal.RequireFromString("16.99"), Source: SourceCity, Note: "CPI-adjusted annually"},
		{Slug: "seattle-wa", City: "Seattle", Region: "WA", MinWage: decimal.RequireFromString("21.30"), Source: SourceCity, Note: "Highest city rate in the US"},
		{Slug: "boston-ma", City: "Boston", Region: "MA", MinWage: decimal.RequireFromString("15.00"), Source: SourceState},
		{Slug: "austin-tx", City: "Austin", Region: "TX", MinWage: federal, Source: SourceFederal, Note: "TX state preemption law"},
		{Slug: "nashville-tn", City: "Nashville", Region: "TN", MinWage: federal, Source: SourceFederal, Note: "TN state preemption law"},
		{Slug: "portland-or", City: "Portland", Region: "OR", MinWage: decimal.RequireFromString("15.45"), Source: SourceCity, Note: "Portland metro area rate"},
		{Slug: "new-orleans-la", City: "New Orleans", Region: "LA", MinWage: federal, Source: SourceFederal},
	}

	t := make(Table, len(entries))
	for _, e := range entries {
		t[e.Slug] = e
	}
	return t
}

// Lookup returns the wage for slug.
func (t Table) Lookup(slug string) (Entry, bool) {
	e, ok := t[slug]
	return e, ok
}
