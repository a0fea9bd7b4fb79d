package contracts

import "github.com/shopspring/decimal"

// Subject is a tracked city. Subjects are created out-of-band and are
// read-only to the pipeline.
type Subject struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
	Slug   string `json:"slug"`
}

// Category is the restaurant tier a price sample belongs to.
type Category string

const (
	CategoryFastFood Category = "fast_food"
	CategoryCasual   Category = "casual"
	CategoryPremium  Category = "premium"
)

// DefaultCategory is used when an upstream sample carries an unknown category.
const DefaultCategory = CategoryCasual

// Categories lists every category in a fixed order.
var Categories = []Category{CategoryFastFood, CategoryCasual, CategoryPremium}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFastFood, CategoryCasual, CategoryPremium:
		return true
	}
	return false
}

// PriceSample is one observed burger price.
type PriceSample struct {
	Restaurant string          `json:"restaurant"`
	Burger     string          `json:"burger"`
	Price      decimal.Decimal `json:"price"`
	Source     string          `json:"source"`
	Category   Category        `json:"category"`
	Website    *string         `json:"website"`
}

// CityRequest counts requests to start tracking a city. City and state are
// matched case-insensitively.
type CityRequest struct {
	City         string `json:"city"`
	State        string `json:"state"`
	RequestCount int    `json:"request_count"`
}
