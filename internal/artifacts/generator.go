// Package artifacts generates the weekly commentary derived from snapshots:
// market report, burger spotlight, industry news and the newsletter edition.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/external/deepseek"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// Completer produces a JSON completion for a prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CityIndex is one city's snapshot as seen by the generators.
type CityIndex struct {
	Name          string
	Region        string
	Score         decimal.Decimal
	Change        *decimal.Decimal
	Cheapest      contracts.PriceLabel
	MostExpensive contracts.PriceLabel
}

// SpotlightHint suggests a featured burger to the newsletter.
type SpotlightHint struct {
	City       string
	Restaurant string
	Burger     string
	Price      decimal.Decimal
}

// Generator builds secondary artifacts through the generative service
// ⭐ SSOT: artifact prompts and coercion live here only
type Generator struct {
	gen    Completer
	logger *logger.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(gen Completer, log *logger.Logger) *Generator {
	return &Generator{gen: gen, logger: log.WithComponent("artifacts")}
}

var errNoCities = fmt.Errorf("%w: no cities", contracts.ErrValidation)

func (g *Generator) complete(ctx context.Context, what, system, user string) (deepseek.Object, error) {
	raw, err := g.gen.Complete(ctx, system, user)
	if err != nil {
		if !errors.Is(err, contracts.ErrUpstream) {
			err = fmt.Errorf("%w: %v", contracts.ErrUpstream, err)
		}
		return nil, fmt.Errorf("generate %s: %w", what, err)
	}
	obj, err := deepseek.DecodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", what, err)
	}
	return obj, nil
}

// MarketReport writes the weekly cross-city report for period.
func (g *Generator) MarketReport(ctx context.Context, period string, cities []CityIndex) (*contracts.MarketReport, error) {
	if len(cities) == 0 {
		return nil, errNoCities
	}

	obj, err := g.complete(ctx, "market report", marketReportSystem, marketReportPrompt(cities))
	if err != nil {
		return nil, err
	}

	report := &contracts.MarketReport{
		Period:   period,
		Headline: obj.String("headline", "Market Update"),
		Summary:  obj.String("summary", "Report unavailable."),
		Factors:  []contracts.MarketFactor{},
	}
	factors, _ := obj.Objects("factors")
	for _, f := range factors {
		report.Factors = append(report.Factors, contracts.MarketFactor{
			Factor:      f.String("factor", "Unknown"),
			Impact:      deepseek.OneOf(f["impact"], contracts.ImpactNeutral, contracts.ImpactUp, contracts.ImpactDown, contracts.ImpactNeutral),
			Description: f.String("description", ""),
		})
	}
	return report, nil
}

// Spotlight picks the burger of the week for one subject from its samples.
func (g *Generator) Spotlight(ctx context.Context, subject contracts.Subject, period string, samples []contracts.PriceSample) (*contracts.Spotlight, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples for spotlight", contracts.ErrValidation)
	}

	obj, err := g.complete(ctx, "spotlight", spotlightSystem, spotlightPrompt(subject, samples))
	if err != nil {
		return nil, err
	}

	return &contracts.Spotlight{
		SubjectID:   subject.ID,
		Period:      period,
		Restaurant:  obj.String("restaurantName", "Unknown"),
		Burger:      obj.String("burgerName", "Burger"),
		Price:       obj.Number("price"),
		Description: obj.String("description", "This week's top pick."),
	}, nil
}

// IndustryNews writes the period's news briefs. A reply without stories is
// an upstream error so an existing batch is never replaced by nothing.
func (g *Generator) IndustryNews(ctx context.Context, period string, cities []CityIndex) ([]contracts.NewsItem, error) {
	if len(cities) == 0 {
		return nil, errNoCities
	}

	obj, err := g.complete(ctx, "industry news", newsSystem, newsPrompt(period, cities))
	if err != nil {
		return nil, err
	}

	stories, _ := obj.Objects("stories")
	if len(stories) == 0 {
		return nil, fmt.Errorf("generate industry news: %w: no stories", contracts.ErrUpstream)
	}
	items := make([]contracts.NewsItem, 0, len(stories))
	for _, s := range stories {
		var source *string
		if src := s.String("source", ""); src != "" {
			source = &src
		}
		items = append(items, contracts.NewsItem{
			Period:   period,
			Title:    s.String("title", "Industry Update"),
			Summary:  s.String("summary", ""),
			Category: s.String("category", "market"),
			Source:   source,
			Impact:   deepseek.OneOf(s["impact"], contracts.NewsNeutral, contracts.NewsBullish, contracts.NewsBearish, contracts.NewsNeutral),
		})
	}
	return items, nil
}

// Newsletter writes a full weekly edition. hint may be nil.
func (g *Generator) Newsletter(ctx context.Context, period string, cities []CityIndex, hint *SpotlightHint) (*contracts.NewsletterContent, error) {
	if len(cities) == 0 {
		return nil, errNoCities
	}

	in := newNewsletterInput(cities)
	obj, err := g.complete(ctx, "newsletter", newsletterSystem, newsletterPrompt(period, in, hint))
	if err != nil {
		return nil, err
	}

	content := &contracts.NewsletterContent{
		Headline:       obj.String("headline", "BPI Weekly Market Report"),
		MarketOverview: obj.String("marketOverview", "Market data under review."),
		TheTape:        []contracts.TapeMover{},
	}

	tape, _ := obj.Objects("theTape")
	for _, m := range tape {
		direction := "up"
		if d, _ := m["direction"].(string); d == "down" {
			direction = "down"
		}
		content.TheTape = append(content.TheTape, contracts.TapeMover{
			City:       m.String("city", "Unknown"),
			Direction:  direction,
			ChangePct:  m.Number("changePct"),
			Commentary: m.String("commentary", ""),
		})
	}

	spot := obj.Object("citySpotlight")
	content.CitySpotlight = contracts.CitySpotlight{
		City:      spot.String("city", in.sorted[0].Name),
		Narrative: spot.String("narrative", "Analysis pending."),
	}

	botw := obj.Object("burgerOfTheWeek")
	content.BurgerOfTheWeek = contracts.BurgerOfTheWeek{
		Restaurant: botw.String("restaurant", "TBD"),
		Burger:     botw.String("burger", "House Burger"),
		City:       botw.String("city", ""),
		Price:      botw.Number("price"),
		Review:     botw.String("review", "Under review."),
	}

	spread := obj.Object("theSpread")
	content.TheSpread = contracts.TheSpread{
		Cheapest:      spreadPoint(spread.Object("cheapest"), in.cheapest.Name, in.cheapest.Cheapest),
		MostExpensive: spreadPoint(spread.Object("mostExpensive"), in.priciest.Name, in.priciest.MostExpensive),
		Commentary:    spread.String("commentary", "Spread analysis pending."),
	}

	corner := obj.Object("analystsCorner")
	content.AnalystsCorner = contracts.AnalystsCorner{
		Title: corner.String("title", "Weekly Market Commentary"),
		Essay: corner.String("essay", "Commentary pending."),
	}

	return content, nil
}

func spreadPoint(o deepseek.Object, city string, fallback contracts.PriceLabel) contracts.SpreadPoint {
	price := o.Number("price")
	if price.IsZero() {
		price = fallback.Price
	}
	return contracts.SpreadPoint{
		Restaurant: o.String("restaurant", fallback.Label),
		City:       o.String("city", city),
		Price:      price,
	}
}

// newsletterInput holds the derived figures quoted in the newsletter prompt.
type newsletterInput struct {
	sorted   []CityIndex // score descending
	movers   []CityIndex // largest absolute change first, at most 5
	average  decimal.Decimal
	cheapest CityIndex // lowest cheapest price
	priciest CityIndex // highest most-expensive price
}

func newNewsletterInput(cities []CityIndex) newsletterInput {
	in := newsletterInput{
		sorted:   append([]CityIndex(nil), cities...),
		cheapest: cities[0],
		priciest: cities[0],
	}
	sort.SliceStable(in.sorted, func(i, j int) bool {
		return in.sorted[i].Score.GreaterThan(in.sorted[j].Score)
	})

	sum := decimal.Zero
	for _, c := range cities {
		sum = sum.Add(c.Score)
		if c.Change != nil {
			in.movers = append(in.movers, c)
		}
		if c.Cheapest.Price.LessThan(in.cheapest.Cheapest.Price) {
			in.cheapest = c
		}
		if c.MostExpensive.Price.GreaterThan(in.priciest.MostExpensive.Price) {
			in.priciest = c
		}
	}
	in.average = sum.Div(decimal.NewFromInt(int64(len(cities))))

	sort.SliceStable(in.movers, func(i, j int) bool {
		return in.movers[i].Change.Abs().GreaterThan(in.movers[j].Change.Abs())
	})
	if len(in.movers) > 5 {
		in.movers = in.movers[:5]
	}
	return in
}
