// Package stockdata serves history, news and quote reads through the
// shared cache so repeated requests do not hammer the provider.
package stockdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"stockpulse/internal/cache"
	"stockpulse/internal/ranges"
	"stockpulse/internal/yahoo"
)

// cacheVersion prefixes every key. Bump it whenever a cached shape
// changes so stale entries can never be decoded into the new shape.
const cacheVersion = "v1"

// quoteTTL bounds how long an unforced quote may be reused.
const quoteTTL = 5 * time.Minute

// MarketData is the provider capability the service depends on.
type MarketData interface {
	Quote(ctx context.Context, symbols []string) ([]yahoo.Quote, error)
	Chart(ctx context.Context, symbol string, start time.Time, interval string) (*yahoo.Chart, error)
	Search(ctx context.Context, query string, newsCount int) ([]yahoo.NewsArticle, error)
}

type Service struct {
	market MarketData
	cache  *cache.Store
	logger *zap.SugaredLogger
}

func NewService(market MarketData, store *cache.Store, logger *zap.SugaredLogger) *Service {
	return &Service{
		market: market,
		cache:  store,
		logger: logger,
	}
}

// History returns normalized chart samples for a symbol over a display
// range, cached for the range's TTL.
func (s *Service) History(ctx context.Context, symbol, rng string) ([]yahoo.HistoryPoint, error) {
	symbol = strings.ToUpper(symbol)
	// Key on the canonical range so aliases and unknown spellings share
	// the bucket's entry instead of fragmenting the cache.
	rng = ranges.Canonical(rng)
	res := ranges.Resolve(rng)
	key := cache.Key(cacheVersion, "history", symbol, rng)

	return cache.Fetch(s.cache, key, res.TTL, func() ([]yahoo.HistoryPoint, error) {
		chart, err := s.market.Chart(ctx, symbol, res.Start, res.Interval)
		if err != nil {
			s.logger.Warnf("chart fetch failed for %v (%v): %v", symbol, rng, err)
			return nil, err
		}
		return yahoo.NormalizeHistory(chart), nil
	})
}

// News returns the normalized, deduplicated news feed for a category,
// cached for 15 minutes.
func (s *Service) News(ctx context.Context, category string, count int) ([]yahoo.NewsItem, error) {
	if category == "" {
		category = "US Markets"
	}
	if count <= 0 {
		count = 20
	}
	key := cache.Key(cacheVersion, "news", category, strconv.Itoa(count))

	return cache.Fetch(s.cache, key, 15*time.Minute, func() ([]yahoo.NewsItem, error) {
		articles, err := s.market.Search(ctx, category, count)
		if err != nil {
			s.logger.Warnf("news fetch failed for %q: %v", category, err)
			return nil, err
		}
		return yahoo.DedupeNews(yahoo.NormalizeNews(articles)), nil
	})
}

// Quote returns the current quote for one symbol. force drops the cached
// entry first so an explicit refresh always reaches the provider.
func (s *Service) Quote(ctx context.Context, symbol string, force bool) (*yahoo.Quote, error) {
	symbol = strings.ToUpper(symbol)
	key := cache.Key(cacheVersion, "quote", symbol)
	if force {
		s.cache.Delete(key)
	}

	return cache.Fetch(s.cache, key, quoteTTL, func() (*yahoo.Quote, error) {
		quotes, err := s.market.Quote(ctx, []string{symbol})
		if err != nil {
			return nil, err
		}
		if len(quotes) == 0 {
			return nil, fmt.Errorf("no quote for %v", symbol)
		}
		q := quotes[0]
		return &q, nil
	})
}
