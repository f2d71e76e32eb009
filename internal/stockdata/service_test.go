package stockdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockpulse/internal/cache"
	"stockpulse/internal/yahoo"
)

func fp(v float64) *float64 { return &v }

// stubMarket counts provider calls so tests can assert cache behavior.
type stubMarket struct {
	quoteCalls  int
	chartCalls  int
	searchCalls int

	quoteErr error
	chartErr error
}

func (m *stubMarket) Quote(ctx context.Context, symbols []string) ([]yahoo.Quote, error) {
	m.quoteCalls++
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	quotes := make([]yahoo.Quote, 0, len(symbols))
	for _, s := range symbols {
		quotes = append(quotes, yahoo.Quote{
			Symbol:                     s,
			LongName:                   s + " Inc.",
			RegularMarketPrice:         100,
			RegularMarketChangePercent: 1.5,
		})
	}
	return quotes, nil
}

func (m *stubMarket) Chart(ctx context.Context, symbol string, start time.Time, interval string) (*yahoo.Chart, error) {
	m.chartCalls++
	if m.chartErr != nil {
		return nil, m.chartErr
	}
	return &yahoo.Chart{
		Timestamps: []int64{1700000000},
		Opens:      []*float64{fp(99)},
		Closes:     []*float64{fp(100)},
	}, nil
}

func (m *stubMarket) Search(ctx context.Context, query string, newsCount int) ([]yahoo.NewsArticle, error) {
	m.searchCalls++
	return []yahoo.NewsArticle{
		{UUID: "n1", Title: query + " headline"},
		{UUID: "n1", Title: "duplicate"},
	}, nil
}

func newTestService(market MarketData) *Service {
	return NewService(market, cache.NewStore(), zap.NewNop().Sugar())
}

func TestHistory_CachesPerSymbolAndRange(t *testing.T) {
	t.Parallel()

	market := &stubMarket{}
	svc := newTestService(market)
	ctx := context.Background()

	first, err := svc.History(ctx, "aapl", "1d")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 100.0, first[0].Price)

	_, err = svc.History(ctx, "AAPL", "1d")
	require.NoError(t, err)
	assert.Equal(t, 1, market.chartCalls, "second read within TTL must come from cache")

	_, err = svc.History(ctx, "AAPL", "1y")
	require.NoError(t, err)
	assert.Equal(t, 2, market.chartCalls, "a different range is a different key")
}

func TestHistory_EquivalentRangesShareCacheEntry(t *testing.T) {
	t.Parallel()

	market := &stubMarket{}
	store := cache.NewStore()
	svc := NewService(market, store, zap.NewNop().Sugar())
	ctx := context.Background()

	// Every spelling here resolves to the one-month bucket, so they must
	// all land on one cache entry and one provider call.
	for _, rng := range []string{"1mo", "", "max", "bogus1", "2w"} {
		_, err := svc.History(ctx, "AAPL", rng)
		require.NoError(t, err, "range %q", rng)
	}
	assert.Equal(t, 1, market.chartCalls, "equivalent ranges must not fragment the cache")
	assert.Equal(t, 1, store.Len(), "equivalent ranges must share one entry")

	// The five-day alias shares the five-day bucket's entry.
	_, err := svc.History(ctx, "AAPL", "5d")
	require.NoError(t, err)
	_, err = svc.History(ctx, "AAPL", "1w")
	require.NoError(t, err)
	assert.Equal(t, 2, market.chartCalls)
}

func TestHistory_ProviderErrorPropagatesAndIsNotCached(t *testing.T) {
	t.Parallel()

	market := &stubMarket{chartErr: errors.New("timeout")}
	svc := newTestService(market)

	_, err := svc.History(context.Background(), "AAPL", "1d")
	require.Error(t, err)

	market.chartErr = nil
	points, err := svc.History(context.Background(), "AAPL", "1d")
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, 2, market.chartCalls)
}

func TestNews_DefaultsAndDedupe(t *testing.T) {
	t.Parallel()

	market := &stubMarket{}
	svc := newTestService(market)

	items, err := svc.News(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, items, 1, "duplicate UUIDs collapse to one item")
	assert.Equal(t, "US Markets headline", items[0].Title)

	_, err = svc.News(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, market.searchCalls)
}

func TestQuote_CachedUnlessForced(t *testing.T) {
	t.Parallel()

	market := &stubMarket{}
	svc := newTestService(market)
	ctx := context.Background()

	q, err := svc.Quote(ctx, "aapl", false)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)

	_, err = svc.Quote(ctx, "AAPL", false)
	require.NoError(t, err)
	assert.Equal(t, 1, market.quoteCalls)

	// force drops the entry and reaches the provider again.
	_, err = svc.Quote(ctx, "AAPL", true)
	require.NoError(t, err)
	assert.Equal(t, 2, market.quoteCalls)
}

func TestQuote_EmptyResultIsAnError(t *testing.T) {
	t.Parallel()

	market := &stubMarket{quoteErr: errors.New("unknown symbol")}
	svc := newTestService(market)

	_, err := svc.Quote(context.Background(), "NOPE", false)
	require.Error(t, err)
}
