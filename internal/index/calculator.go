// Package index computes the Burger Price Index from raw price samples.
package index

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

// NotAvailable labels an extreme when there are no valid samples.
const NotAvailable = "N/A"

// Weights maps each category to its nominal share of the index.
type Weights map[contracts.Category]decimal.Decimal

// DefaultWeights returns fast_food 20%, casual 40%, premium 40%.
func DefaultWeights() Weights {
	return Weights{
		contracts.CategoryFastFood: decimal.RequireFromString("0.2"),
		contracts.CategoryCasual:   decimal.RequireFromString("0.4"),
		contracts.CategoryPremium:  decimal.RequireFromString("0.4"),
	}
}

// Config holds calculator configuration
type Config struct {
	MinPrice decimal.Decimal // inclusive
	MaxPrice decimal.Decimal // inclusive
	Weights  Weights
}

// DefaultConfig returns the production outlier range [$1, $50] and default weights.
func DefaultConfig() Config {
	return Config{
		MinPrice: decimal.NewFromInt(1),
		MaxPrice: decimal.NewFromInt(50),
		Weights:  DefaultWeights(),
	}
}

// weightTolerance bounds how far configured weights may drift from summing to 1.
var weightTolerance = decimal.RequireFromString("0.0001")

// Calculator turns price samples into an index value
// ⭐ SSOT: BPI arithmetic lives here only. Pure, no I/O.
type Calculator struct {
	cfg Config
}

// NewCalculator validates cfg and returns a Calculator.
func NewCalculator(cfg Config) (*Calculator, error) {
	if cfg.MinPrice.GreaterThan(cfg.MaxPrice) {
		return nil, fmt.Errorf("min price %s exceeds max price %s", cfg.MinPrice, cfg.MaxPrice)
	}

	sum := decimal.Zero
	for _, cat := range contracts.Categories {
		w, ok := cfg.Weights[cat]
		if !ok {
			return nil, fmt.Errorf("missing weight for category %s", cat)
		}
		if !w.IsPositive() {
			return nil, fmt.Errorf("weight for category %s must be positive, got %s", cat, w)
		}
		sum = sum.Add(w)
	}
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(weightTolerance) {
		return nil, fmt.Errorf("category weights must sum to 1, got %s", sum)
	}

	return &Calculator{cfg: cfg}, nil
}

// MustNewCalculator is NewCalculator for known-good configs.
func MustNewCalculator(cfg Config) *Calculator {
	c, err := NewCalculator(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Result is the output of one index computation.
type Result struct {
	Score         decimal.Decimal
	Cheapest      contracts.PriceLabel
	MostExpensive contracts.PriceLabel
	AvgPrice      decimal.Decimal
	Count         int
}

// InRange reports whether price falls inside the valid range.
func (c *Calculator) InRange(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(c.cfg.MinPrice) && price.LessThanOrEqual(c.cfg.MaxPrice)
}

// Valid returns the samples that survive outlier rejection, in input order.
func (c *Calculator) Valid(samples []contracts.PriceSample) []contracts.PriceSample {
	valid := make([]contracts.PriceSample, 0, len(samples))
	for _, s := range samples {
		if c.InRange(s.Price) {
			valid = append(valid, s)
		}
	}
	return valid
}

// Compute calculates the index, extremes and average for samples.
// It never fails: empty input yields a zero score and N/A extremes.
func (c *Calculator) Compute(samples []contracts.PriceSample) Result {
	valid := c.Valid(samples)

	result := Result{
		Score:         decimal.Zero,
		Cheapest:      contracts.PriceLabel{Price: decimal.Zero, Label: NotAvailable},
		MostExpensive: contracts.PriceLabel{Price: decimal.Zero, Label: NotAvailable},
		AvgPrice:      decimal.Zero,
		Count:         len(valid),
	}
	if len(valid) == 0 {
		return result
	}

	// Group by category
	groups := make(map[contracts.Category][]decimal.Decimal)
	present := make([]contracts.Category, 0, len(contracts.Categories))
	total := decimal.Zero
	for _, s := range valid {
		cat := s.Category
		if !cat.Valid() {
			cat = contracts.DefaultCategory
		}
		if _, seen := groups[cat]; !seen {
			present = append(present, cat)
		}
		groups[cat] = append(groups[cat], s.Price)
		total = total.Add(s.Price)
	}

	weights := EffectiveWeights(c.cfg.Weights, present)

	weighted := decimal.Zero
	for _, cat := range present {
		weighted = weighted.Add(mean(groups[cat]).Mul(weights[cat]))
	}

	result.Score = weighted.Round(2)
	result.AvgPrice = total.Div(decimal.NewFromInt(int64(len(valid)))).Round(2)
	result.Cheapest, result.MostExpensive = extremes(valid)

	return result
}

// EffectiveWeights redistributes nominal weights over the present categories
// so they sum to 1. With every category present the nominal weights are
// returned unchanged.
func EffectiveWeights(nominal Weights, present []contracts.Category) map[contracts.Category]decimal.Decimal {
	out := make(map[contracts.Category]decimal.Decimal, len(present))

	sum := decimal.Zero
	for _, cat := range present {
		sum = sum.Add(nominal[cat])
	}
	if !sum.IsPositive() {
		return out
	}

	for _, cat := range present {
		if sum.Equal(decimal.NewFromInt(1)) {
			out[cat] = nominal[cat]
			continue
		}
		out[cat] = nominal[cat].Div(sum)
	}
	return out
}

// Change returns the period-over-period percentage change rounded to one
// decimal, or nil when there is no usable previous value.
func Change(current decimal.Decimal, previous *decimal.Decimal) *decimal.Decimal {
	if previous == nil || previous.IsZero() {
		return nil
	}
	pct := current.Sub(*previous).Div(*previous).Mul(decimal.NewFromInt(100)).Round(1)
	return &pct
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values))))
}

// extremes picks the cheapest and most expensive sample. On ties the first
// occurrence in input order wins at both ends.
func extremes(valid []contracts.PriceSample) (contracts.PriceLabel, contracts.PriceLabel) {
	lo, hi := valid[0], valid[0]
	for _, s := range valid[1:] {
		if s.Price.LessThan(lo.Price) {
			lo = s
		}
		if s.Price.GreaterThan(hi.Price) {
			hi = s
		}
	}
	return contracts.PriceLabel{Price: lo.Price, Label: lo.Restaurant},
		contracts.PriceLabel{Price: hi.Price, Label: hi.Restaurant}
}
