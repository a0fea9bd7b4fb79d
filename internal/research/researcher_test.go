package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/index"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

type fakeGenerator struct {
	content string
	err     error
	block   bool
	user    string
}

func (f *fakeGenerator) Complete(ctx context.Context, system, user string) (string, error) {
	f.user = user
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.content, f.err
}

func newResearcher(gen Generator) *Researcher {
	return New(gen, index.MustNewCalculator(index.DefaultConfig()), time.Second, logger.Nop())
}

func TestResearch_Coercion(t *testing.T) {
	gen := &fakeGenerator{content: `{"prices":[
		{"restaurant":"Shake Shack","burger":"ShackBurger","price":7.89,"source":"menu","category":"fast_food","website":"https://shakeshack.com"},
		{"restaurant":"","burger":null,"price":"14.50","category":"diner","website":"shakeshack.com"},
		{"restaurant":"Nowhere","price":"cheap","category":"casual"},
		{"restaurant":"Gold Leaf","price":60,"category":"premium"},
		{"restaurant":"Coin Slot","price":0.5,"category":"fast_food"}
	]}`}

	samples, err := newResearcher(gen).Research(context.Background(), "Boston", "MA")
	require.NoError(t, err)
	require.Len(t, samples, 2)

	first := samples[0]
	assert.Equal(t, "Shake Shack", first.Restaurant)
	assert.Equal(t, contracts.CategoryFastFood, first.Category)
	require.NotNil(t, first.Website)
	assert.Equal(t, "https://shakeshack.com", *first.Website)

	second := samples[1]
	assert.Equal(t, "Unknown", second.Restaurant)
	assert.Equal(t, "Burger", second.Burger)
	assert.Equal(t, "research", second.Source)
	assert.Equal(t, contracts.CategoryCasual, second.Category)
	assert.True(t, decimal.RequireFromString("14.50").Equal(second.Price))
	assert.Nil(t, second.Website)

	assert.Contains(t, gen.user, "Boston, MA")
}

func TestResearch_EmptyListIsNoData(t *testing.T) {
	samples, err := newResearcher(&fakeGenerator{content: `{"prices":[]}`}).Research(context.Background(), "Austin", "TX")
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestResearch_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"generator failure", &fakeGenerator{err: errors.New("connection refused")}},
		{"wrapped upstream", &fakeGenerator{err: contracts.ErrUpstream}},
		{"not json", &fakeGenerator{content: "Sorry, I cannot help with that."}},
		{"missing prices", &fakeGenerator{content: `{"data":[]}`}},
		{"prices not a list", &fakeGenerator{content: `{"prices":"many"}`}},
		{"all entries invalid", &fakeGenerator{content: `{"prices":[{"price":0},{"price":"n/a"},{"price":99}]}`}},
		{"timeout", &fakeGenerator{block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.gen, index.MustNewCalculator(index.DefaultConfig()), 20*time.Millisecond, logger.Nop())
			_, err := r.Research(context.Background(), "Seattle", "WA")
			require.Error(t, err)
			assert.ErrorIs(t, err, contracts.ErrUpstream)
		})
	}
}
