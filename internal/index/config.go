package index

import (
	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/pkg/config"
)

// FromSettings converts environment settings into a calculator Config.
// Floats are rounded to 4 places so 0.2 stays 0.2.
func FromSettings(s config.IndexConfig) Config {
	return Config{
		MinPrice: decimal.NewFromFloat(s.MinPrice).Round(4),
		MaxPrice: decimal.NewFromFloat(s.MaxPrice).Round(4),
		Weights: Weights{
			contracts.CategoryFastFood: decimal.NewFromFloat(s.WeightFastFood).Round(4),
			contracts.CategoryCasual:   decimal.NewFromFloat(s.WeightCasual).Round(4),
			contracts.CategoryPremium:  decimal.NewFromFloat(s.WeightPremium).Round(4),
		},
	}
}
