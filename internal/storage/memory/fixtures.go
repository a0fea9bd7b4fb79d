package memory

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/index"
)

//go:embed fixtures/*.json
var fixtureFS embed.FS

type fixtureWeek struct {
	Subject string                  `json:"subject"`
	Period  string                  `json:"period"`
	Samples []contracts.PriceSample `json:"samples"`
}

type fixtureSpotlight struct {
	Subject     string          `json:"subject"`
	Period      string          `json:"period"`
	Restaurant  string          `json:"restaurant_name"`
	Burger      string          `json:"burger_name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

type fixtureFile struct {
	Subjects   []contracts.Subject `json:"subjects"`
	Weeks      []fixtureWeek       `json:"weeks"`
	Spotlights []fixtureSpotlight  `json:"spotlights"`
}

// NewFromFixtures builds a store from the embedded seed data. Snapshots are
// computed with calc so fixture scores follow the configured index rules.
func NewFromFixtures(calc *index.Calculator) (*Store, error) {
	raw, err := fixtureFS.ReadFile("fixtures/seed.json")
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}

	var f fixtureFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	s := New(f.Subjects)
	if err := s.seed(context.Background(), calc, f); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) seed(ctx context.Context, calc *index.Calculator, f fixtureFile) error {
	bySlug := make(map[string]contracts.Subject, len(f.Subjects))
	for _, subj := range f.Subjects {
		bySlug[subj.Slug] = subj
	}

	weeks := append([]fixtureWeek(nil), f.Weeks...)
	sort.SliceStable(weeks, func(i, j int) bool { return weeks[i].Period < weeks[j].Period })

	for _, w := range weeks {
		subj, ok := bySlug[w.Subject]
		if !ok {
			return fmt.Errorf("fixture week %s: unknown subject %q", w.Period, w.Subject)
		}

		result := calc.Compute(w.Samples)
		prev, err := s.GetPrevious(ctx, subj.ID, w.Period)
		if err != nil {
			return err
		}
		var prevScore *decimal.Decimal
		if prev != nil {
			prevScore = &prev.IndexScore
		}

		snap := &contracts.Snapshot{
			SubjectID:     subj.ID,
			Period:        w.Period,
			IndexScore:    result.Score,
			ChangePct:     index.Change(result.Score, prevScore),
			Cheapest:      result.Cheapest,
			MostExpensive: result.MostExpensive,
			AvgPrice:      result.AvgPrice,
			SampleCount:   result.Count,
			RawSamples:    w.Samples,
		}
		if err := s.Insert(ctx, snap); err != nil {
			return fmt.Errorf("seed snapshot %s/%s: %w", w.Subject, w.Period, err)
		}
	}

	for _, sp := range f.Spotlights {
		subj, ok := bySlug[sp.Subject]
		if !ok {
			return fmt.Errorf("fixture spotlight %s: unknown subject %q", sp.Period, sp.Subject)
		}
		if err := s.InsertSpotlight(ctx, &contracts.Spotlight{
			SubjectID:   subj.ID,
			Period:      sp.Period,
			Restaurant:  sp.Restaurant,
			Burger:      sp.Burger,
			Price:       sp.Price,
			Description: sp.Description,
		}); err != nil {
			return fmt.Errorf("seed spotlight %s/%s: %w", sp.Subject, sp.Period, err)
		}
	}
	return nil
}
