// Package fetcher drives ingestion: pulling fresh quotes, generating
// narratives and recording snapshots for every tracked symbol.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"stockpulse/internal"
	"stockpulse/internal/stockdata"
	"stockpulse/internal/yahoo"
	"stockpulse/models"
)

// ErrAlreadyTracked reports a duplicate add. The watchlist enforces
// symbol uniqueness at the database level, so two racing adds resolve
// here rather than as a generic failure.
var ErrAlreadyTracked = errors.New("stock already in watchlist")

// batchConcurrency bounds parallel provider calls during a full refresh.
const batchConcurrency = 4

type Ingestor struct {
	db        *gorm.DB
	data      *stockdata.Service
	generator *internal.Generator
	logger    *zap.SugaredLogger
}

func NewIngestor(db *gorm.DB, data *stockdata.Service, generator *internal.Generator, logger *zap.SugaredLogger) *Ingestor {
	return &Ingestor{
		db:        db,
		data:      data,
		generator: generator,
		logger:    logger,
	}
}

// IngestTicker runs one ingestion cycle for a symbol: fetch the quote,
// generate a narrative, update the stock row and append a snapshot.
// force bypasses the quote cache for explicit user refreshes.
func (f *Ingestor) IngestTicker(ctx context.Context, symbol string, force bool) (*models.Stock, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	quote, err := f.data.Quote(ctx, symbol, force)
	if err != nil {
		return nil, fmt.Errorf("quote for %v: %w", symbol, err)
	}

	change := quote.RegularMarketChangePercent
	price := quote.RegularMarketPrice

	// Headlines are optional context; their absence never blocks
	// ingestion.
	narrative := f.generator.Generate(ctx, symbol, change, price, f.headlines(ctx, symbol))

	var stock models.Stock
	err = f.db.Where("symbol = ?", symbol).First(&stock).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		stock = models.Stock{
			Symbol: symbol,
			Name:   yahoo.DisplayName(*quote),
			Price:  price,
			Change: change,
		}
		if err := f.db.Create(&stock).Error; err != nil {
			return nil, fmt.Errorf("create stock %v: %w", symbol, err)
		}
	case err != nil:
		return nil, fmt.Errorf("load stock %v: %w", symbol, err)
	default:
		stock.Name = yahoo.DisplayName(*quote)
		stock.Price = price
		stock.Change = change
		if err := f.db.Model(&stock).Updates(map[string]any{
			"name":   stock.Name,
			"price":  stock.Price,
			"change": stock.Change,
		}).Error; err != nil {
			return nil, fmt.Errorf("update stock %v: %w", symbol, err)
		}
	}

	snapshot := models.Snapshot{
		StockSymbol:   symbol,
		Price:         price,
		ChangePercent: change,
		Narrative:     narrative,
		Sentiment:     internal.Sentiment(change),
		Timestamp:     time.Now(),
	}
	if err := f.db.Create(&snapshot).Error; err != nil {
		return nil, fmt.Errorf("append snapshot %v: %w", symbol, err)
	}

	return &stock, nil
}

// AddStock validates a new symbol by attempting a quote, then creates
// the watchlist row and runs a first ingestion. The returned bool
// reports whether the provider resolved a company name; when it did not
// the symbol is still recorded under its literal ticker text. Duplicates
// fail with ErrAlreadyTracked.
func (f *Ingestor) AddStock(ctx context.Context, symbol string) (*models.Stock, bool, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	name := symbol
	resolved := false

	if quote, err := f.data.Quote(ctx, symbol, true); err == nil {
		name = yahoo.DisplayName(*quote)
		resolved = true
	} else {
		f.logger.Warnf("could not validate symbol %v with provider: %v", symbol, err)
	}

	stock := models.Stock{Symbol: symbol, Name: name}
	if err := f.db.Create(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, resolved, ErrAlreadyTracked
		}
		return nil, resolved, fmt.Errorf("create stock %v: %w", symbol, err)
	}

	// First ingestion is best effort so the caller sees data right away.
	updated, err := f.IngestTicker(ctx, symbol, false)
	if err != nil {
		f.logger.Warnf("initial ingestion failed for %v: %v", symbol, err)
		return &stock, resolved, nil
	}

	return updated, resolved, nil
}

// DeleteStock removes a symbol from the watchlist. Its snapshots remain
// as a historical ledger.
func (f *Ingestor) DeleteStock(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	res := f.db.WithContext(ctx).Where("symbol = ?", symbol).Delete(&models.Stock{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// BatchResult reports the outcome of a full watchlist refresh.
type BatchResult struct {
	Updated []string `json:"updated"`
	Failed  []string `json:"failed"`
}

// UpdateMarketData ingests every tracked symbol. Symbols are refreshed
// in parallel and each failure is isolated: one bad symbol never aborts
// the batch.
func (f *Ingestor) UpdateMarketData(ctx context.Context) (BatchResult, error) {
	var stocks []models.Stock
	if err := f.db.Find(&stocks).Error; err != nil {
		return BatchResult{}, fmt.Errorf("load watchlist: %w", err)
	}

	var (
		mu     sync.Mutex
		result = BatchResult{Updated: []string{}, Failed: []string{}}
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for _, stock := range stocks {
		symbol := stock.Symbol
		g.Go(func() error {
			_, err := f.IngestTicker(ctx, symbol, false)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.logger.Warnf("batch update failed for %v: %v", symbol, err)
				result.Failed = append(result.Failed, symbol)
			} else {
				result.Updated = append(result.Updated, symbol)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Updated)
	sort.Strings(result.Failed)

	f.logger.Infof("market data updated: %d ok, %d failed", len(result.Updated), len(result.Failed))

	return result, nil
}

// headlines fetches a few recent headlines for a symbol, best effort.
func (f *Ingestor) headlines(ctx context.Context, symbol string) []string {
	items, err := f.data.News(ctx, symbol, 5)
	if err != nil {
		f.logger.Debugf("no headlines for %v: %v", symbol, err)
		return nil
	}

	titles := make([]string, 0, 3)
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		titles = append(titles, item.Title)
		if len(titles) == 3 {
			break
		}
	}

	return titles
}
