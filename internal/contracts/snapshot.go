package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceLabel is a price together with the restaurant it came from.
type PriceLabel struct {
	Price decimal.Decimal `json:"price"`
	Label string          `json:"label"`
}

// Snapshot is the immutable BPI record for one subject in one period
// ⭐ SSOT: one row per (subject_id, period), never updated
type Snapshot struct {
	ID            string           `json:"id"`
	SubjectID     string           `json:"subject_id"`
	Period        string           `json:"period"`
	IndexScore    decimal.Decimal  `json:"index_score"`
	ChangePct     *decimal.Decimal `json:"change_pct"`
	Cheapest      PriceLabel       `json:"cheapest"`
	MostExpensive PriceLabel       `json:"most_expensive"`
	AvgPrice      decimal.Decimal  `json:"avg_price"`
	SampleCount   int              `json:"sample_count"`
	RawSamples    []PriceSample    `json:"raw_samples"`
	CreatedAt     time.Time        `json:"created_at"`
}
