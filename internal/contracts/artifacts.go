package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Spotlight is the "Burger of the Week" for one subject in one period.
type Spotlight struct {
	ID          string          `json:"id"`
	SubjectID   string          `json:"subject_id"`
	Period      string          `json:"period"`
	Restaurant  string          `json:"restaurant_name"`
	Burger      string          `json:"burger_name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// Impact values for market factors.
const (
	ImpactUp      = "up"
	ImpactDown    = "down"
	ImpactNeutral = "neutral"
)

// MarketFactor is one driver named in a market report.
type MarketFactor struct {
	Factor      string `json:"factor"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
}

// MarketReport is the weekly cross-city commentary. Keyed by period and
// regenerated freely.
type MarketReport struct {
	Period   string         `json:"period"`
	Headline string         `json:"headline"`
	Summary  string         `json:"summary"`
	Factors  []MarketFactor `json:"factors"`
}

// News impact values.
const (
	NewsBullish = "bullish"
	NewsBearish = "bearish"
	NewsNeutral = "neutral"
)

// NewsItem is one industry news brief for a period.
type NewsItem struct {
	ID       string    `json:"id"`
	Period   string    `json:"period"`
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Category string    `json:"category"`
	Source   *string   `json:"source"`
	Impact   string    `json:"impact"`
	Created  time.Time `json:"created_at"`
}

// TapeMover is one entry of the newsletter's movers section.
type TapeMover struct {
	City       string          `json:"city"`
	Direction  string          `json:"direction"`
	ChangePct  decimal.Decimal `json:"changePct"`
	Commentary string          `json:"commentary"`
}

// CitySpotlight is the newsletter's deep dive on one city.
type CitySpotlight struct {
	City      string `json:"city"`
	Narrative string `json:"narrative"`
}

// BurgerOfTheWeek is the newsletter's featured burger.
type BurgerOfTheWeek struct {
	Restaurant string          `json:"restaurant"`
	Burger     string          `json:"burger"`
	City       string          `json:"city"`
	Price      decimal.Decimal `json:"price"`
	Review     string          `json:"review"`
}

// SpreadPoint is one end of the newsletter's spread section.
type SpreadPoint struct {
	Restaurant string          `json:"restaurant"`
	City       string          `json:"city"`
	Price      decimal.Decimal `json:"price"`
}

// TheSpread contrasts the cheapest and most expensive burgers nationally.
type TheSpread struct {
	Cheapest      SpreadPoint `json:"cheapest"`
	MostExpensive SpreadPoint `json:"mostExpensive"`
	Commentary    string      `json:"commentary"`
}

// AnalystsCorner is the newsletter's closing column.
type AnalystsCorner struct {
	Title string `json:"title"`
	Essay string `json:"essay"`
}

// NewsletterContent holds every section of a newsletter edition.
type NewsletterContent struct {
	Headline        string          `json:"headline"`
	MarketOverview  string          `json:"marketOverview"`
	TheTape         []TapeMover     `json:"theTape"`
	CitySpotlight   CitySpotlight   `json:"citySpotlight"`
	BurgerOfTheWeek BurgerOfTheWeek `json:"burgerOfTheWeek"`
	TheSpread       TheSpread       `json:"theSpread"`
	AnalystsCorner  AnalystsCorner  `json:"analystsCorner"`
}

// Newsletter is one weekly edition.
type Newsletter struct {
	Period    string            `json:"period"`
	Headline  string            `json:"headline"`
	Sections  NewsletterContent `json:"sections"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewsletterSummary is an archive listing entry.
type NewsletterSummary struct {
	Period   string `json:"period"`
	Headline string `json:"headline"`
}
