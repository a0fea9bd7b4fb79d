// Package research asks the generative service for current burger prices in a
// city and turns the loosely typed answer into validated price samples.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/external/deepseek"
	"github.com/robroyhobbs/burgerprice/internal/index"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// Generator produces a JSON completion for a prompt pair.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Researcher gathers price samples for one subject at a time.
type Researcher struct {
	gen     Generator
	calc    *index.Calculator
	timeout time.Duration
	logger  *logger.Logger
}

// New creates a Researcher. Samples outside calc's price range are dropped.
// timeout bounds each call; zero means no extra bound.
func New(gen Generator, calc *index.Calculator, timeout time.Duration, log *logger.Logger) *Researcher {
	return &Researcher{
		gen:     gen,
		calc:    calc,
		timeout: timeout,
		logger:  log.WithComponent("research"),
	}
}

const systemPrompt = `You are a burger price researcher. Return ONLY valid JSON.`

func userPrompt(name, region string) string {
	return fmt.Sprintf(`Research current burger prices in %s, %s.

Find prices from these categories:
- 3-5 fast food chains (McDonald's, Five Guys, Shake Shack, Wendy's, etc.)
- 3-5 casual/diner restaurants (local and chain diners)
- 3-5 premium/gourmet burger spots

For each, provide:
- restaurant: Restaurant name
- burger: Their signature/most popular burger name
- price: Price in USD (number only, no $ sign)
- source: Where you found this price (e.g., "menu", "doordash", "website")
- category: One of "fast_food", "casual", or "premium"
- website: The restaurant's official website URL (e.g., "https://www.mcdonalds.com"). Use null if unknown.

Return as JSON: {"prices": [...]}`, name, region)
}

// Research returns the valid price samples for a subject.
//
// An answer whose prices list is empty yields no samples and no error. Any
// other failure, including an answer where every entry was discarded, wraps
// contracts.ErrUpstream.
func (r *Researcher) Research(ctx context.Context, name, region string) ([]contracts.PriceSample, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	raw, err := r.gen.Complete(ctx, systemPrompt, userPrompt(name, region))
	if err != nil {
		return nil, fmt.Errorf("research %s: %w", name, asUpstream(err))
	}

	obj, err := deepseek.DecodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("research %s: %w", name, err)
	}

	entries, ok := obj.Objects("prices")
	if !ok {
		return nil, fmt.Errorf("research %s: %w: response has no prices list", name, contracts.ErrUpstream)
	}
	if len(entries) == 0 {
		return []contracts.PriceSample{}, nil
	}

	samples := make([]contracts.PriceSample, 0, len(entries))
	for _, e := range entries {
		s := coerceSample(e)
		if !r.calc.InRange(s.Price) {
			continue
		}
		samples = append(samples, s)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("research %s: %w: none of %d entries were valid", name, contracts.ErrUpstream, len(entries))
	}

	r.logger.WithFields(map[string]interface{}{
		"subject":   name,
		"received":  len(entries),
		"accepted":  len(samples),
		"discarded": len(entries) - len(samples),
	}).Debug("Research complete")

	return samples, nil
}

// coerceSample fills defaults for missing or malformed fields.
func coerceSample(e deepseek.Object) contracts.PriceSample {
	category := contracts.Category(e.String("category", ""))
	if !category.Valid() {
		category = contracts.DefaultCategory
	}

	var website *string
	if w, ok := e["website"].(string); ok && strings.HasPrefix(w, "http") {
		website = &w
	}

	return contracts.PriceSample{
		Restaurant: e.String("restaurant", "Unknown"),
		Burger:     e.String("burger", "Burger"),
		Price:      e.Number("price"),
		Source:     e.String("source", "research"),
		Category:   category,
		Website:    website,
	}
}

// asUpstream makes sure generator failures carry the upstream sentinel.
func asUpstream(err error) error {
	if errors.Is(err, contracts.ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %v", contracts.ErrUpstream, err)
}
