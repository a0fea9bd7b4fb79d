package artifacts

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

const marketReportSystem = `You are a financial analyst who exclusively covers the burger market. Write with the gravitas of a Wall Street analyst but about burgers. Mix real economic factors with humorous burger market analysis. Return ONLY valid JSON.`

const spotlightSystem = `You are a burger critic and market analyst. Return ONLY valid JSON.`

const newsSystem = `You are a financial news wire reporter covering the burger and food service industry. Write with the authority and style of Bloomberg or Reuters, but specifically about burgers, beef, and fast food. Mix real-world factors (USDA beef prices, supply chain, minimum wage, weather, seasonal demand, restaurant earnings) with the fun premise. Return ONLY valid JSON.`

const newsletterSystem = `You are a seasoned financial analyst who covers the burger market with complete sincerity. You write for the Burger Price Index (BPI) weekly newsletter: imagine Bloomberg Terminal meets financial journalism, but about burgers. Your tone is deadpan serious. You never break character. The humor comes from treating burgers with the gravitas of equities and commodities. Use financial jargon naturally: "rallied", "corrected", "support levels", "bearish divergence", "sector rotation", etc. Return ONLY valid JSON.`

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func changeText(c *decimal.Decimal) string {
	if c == nil {
		return "NEW"
	}
	sign := ""
	if c.IsPositive() {
		sign = "+"
	}
	return sign + c.StringFixed(1) + "%"
}

func marketReportPrompt(cities []CityIndex) string {
	var lines strings.Builder
	sum := decimal.Zero
	highest, lowest := cities[0], cities[0]
	for _, c := range cities {
		fmt.Fprintf(&lines, "- %s, %s BPI: %s (%s)\n", c.Name, c.Region, money(c.Score), changeText(c.Change))
		sum = sum.Add(c.Score)
		if c.Score.GreaterThan(highest.Score) {
			highest = c
		}
		if c.Score.LessThan(lowest.Score) {
			lowest = c
		}
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(cities))))

	return fmt.Sprintf(`Write a weekly market report for the Burger Price Index, now tracking %d US cities.

Data this week:
%s
National average BPI: %s
Most expensive: %s (%s)
Cheapest: %s (%s)

Return JSON with:
{
  "headline": "A punchy financial news headline about burgers (max 80 chars)",
  "summary": "2-3 paragraph market summary mixing real factors (beef prices, inflation, seasonality, local events, regional differences) with humorous burger market analysis. Straight-faced financial reporting tone. Reference specific cities and their rankings.",
  "factors": [
    {"factor": "Factor Name", "impact": "up|down|neutral", "description": "Brief explanation"}
  ]
}

Include exactly 3 market factors.`,
		len(cities), lines.String(), money(avg),
		highest.Name, money(highest.Score), lowest.Name, money(lowest.Score))
}

func spotlightPrompt(subject contracts.Subject, samples []contracts.PriceSample) string {
	var lines strings.Builder
	for _, s := range samples {
		fmt.Fprintf(&lines, "%s: %s (%s)\n", s.Restaurant, s.Burger, money(s.Price))
	}

	return fmt.Sprintf(`From these burger options in %s, %s, pick the "Burger of the Week":

%s
Pick the most interesting, best value, or most notable burger. Return JSON:
{
  "restaurantName": "Name",
  "burgerName": "Burger Name",
  "price": 12.99,
  "description": "2-3 sentence description of why this is the pick of the week. Mix food critic flair with financial analyst language."
}`, subject.Name, subject.Region, lines.String())
}

func newsPrompt(period string, cities []CityIndex) string {
	var lines strings.Builder
	for _, c := range cities {
		fmt.Fprintf(&lines, "- %s, %s BPI: %s\n", c.Name, c.Region, money(c.Score))
	}

	return fmt.Sprintf(`Generate 5 industry news briefs for the Burger Price Index newsletter for the week of %s.

Current BPI data across %d cities:
%s
Write stories across these categories (one each):
1. "supply-chain" - Something about beef/ingredient prices, supply, or logistics
2. "regulation" - Minimum wage, food safety, restaurant regulations
3. "market" - Restaurant earnings, closures, openings, industry trends
4. "consumer" - Consumer behavior, trends, preferences, seasonal patterns
5. "wild-card" - An unexpected or humorous angle that's still plausible

Each story should:
- Have a punchy financial-news-style headline (title)
- Be 2-3 sentences of summary in wire-service style
- Reference real companies, agencies, or trends when possible
- Indicate whether the story is bullish (prices likely to rise), bearish (prices likely to fall), or neutral for burger prices

Return JSON:
{
  "stories": [
    {
      "title": "Headline here",
      "summary": "2-3 sentence summary.",
      "category": "supply-chain|regulation|market|consumer|wild-card",
      "source": "Plausible source attribution (e.g., 'USDA Weekly Report', 'National Restaurant Association', 'Reuters')",
      "impact": "bullish|bearish|neutral"
    }
  ]
}`, period, len(cities), lines.String())
}

func newsletterPrompt(period string, in newsletterInput, hint *SpotlightHint) string {
	var lines strings.Builder
	for _, c := range in.sorted {
		fmt.Fprintf(&lines, "- %s, %s: BPI %s (%s) | Low: %s (%s) | High: %s (%s)\n",
			c.Name, c.Region, money(c.Score), changeText(c.Change),
			money(c.Cheapest.Price), c.Cheapest.Label,
			money(c.MostExpensive.Price), c.MostExpensive.Label)
	}

	movers := make([]string, 0, len(in.movers))
	for _, c := range in.movers {
		movers = append(movers, fmt.Sprintf("%s: %s (%s)", c.Name, changeText(c.Change), money(c.Score)))
	}

	spotlight := ""
	if hint != nil {
		spotlight = fmt.Sprintf("\nSpotlight suggestion: %s, %s's %q at %s", hint.City, hint.Restaurant, hint.Burger, money(hint.Price))
	}

	cheap := in.cheapest.Cheapest
	dear := in.priciest.MostExpensive

	return fmt.Sprintf(`Write the BPI Weekly Newsletter for the week of %s.

DATA:
%s
National Average BPI: %s
Top movers: %s
National cheapest: %s at %s (%s)
National most expensive: %s at %s (%s)%s

Return JSON with this EXACT structure:
{
  "headline": "Newsletter edition headline, punchy financial news style, max 100 chars",
  "marketOverview": "2-3 paragraphs. Open with the big picture: national average movement, overall market direction. Then drill into regional trends. Use financial language seriously. Reference specific cities and prices.",
  "theTape": [
    {"city": "City Name", "direction": "up or down", "changePct": 2.5, "commentary": "One sentence of analyst commentary on this move"}
  ],
  "citySpotlight": {
    "city": "Pick the most interesting city this week",
    "narrative": "2-3 paragraphs deep dive on this city's burger market. Discuss price levels, notable restaurants, market positioning vs national average. Write like a research analyst covering a specific equity."
  },
  "burgerOfTheWeek": {
    "restaurant": "Restaurant name",
    "burger": "Burger name",
    "city": "City",
    "price": 12.99,
    "review": "2-3 sentences. Write like a wine critic reviewing a vintage but about a burger. Note the price-to-quality ratio, market positioning, and whether it represents alpha."
  },
  "theSpread": {
    "cheapest": {"restaurant": %q, "city": %q, "price": %s},
    "mostExpensive": {"restaurant": %q, "city": %q, "price": %s},
    "commentary": "2-3 sentences analyzing the spread between cheapest and most expensive. Discuss what this tells us about the national burger market, purchasing power, and regional economics."
  },
  "analystsCorner": {
    "title": "A column title like 'On Bun Stability and Consumer Confidence'",
    "essay": "2-3 paragraphs of tongue-in-cheek market analysis. Pick a theme (seasonality, regional convergence, fast food vs premium divergence, etc.) and analyze it with complete seriousness. Reference data from the cities. End with a market outlook."
  }
}

Include 3-5 movers in theTape. All commentary should be deadpan financial analysis, never acknowledge the absurdity.`,
		period, lines.String(), money(in.average), strings.Join(movers, ", "),
		money(cheap.Price), cheap.Label, in.cheapest.Name,
		money(dear.Price), dear.Label, in.priciest.Name, spotlight,
		cheap.Label, in.cheapest.Name, cheap.Price.String(),
		dear.Label, in.priciest.Name, dear.Price.String())
}
