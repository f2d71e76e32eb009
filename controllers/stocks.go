package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stockpulse/api"
	"stockpulse/fetcher"
	"stockpulse/models"
)

type StocksController struct {
	DB       *gorm.DB
	Ingestor *fetcher.Ingestor
	Logger   *zap.SugaredLogger
}

type stockView struct {
	models.Stock
	LatestSnapshot *models.Snapshot `json:"latestSnapshot,omitempty"`
}

type symbolRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

// GetStocks lists the watchlist, each stock joined with its most recent
// snapshot.
func (sc StocksController) GetStocks(c *gin.Context) {
	var stocks []models.Stock
	if err := sc.DB.Order("symbol").Find(&stocks).Error; err != nil {
		sc.Logger.Errorf("failed to list stocks: %v", err)
		api.ResultError(c, nil)
		return
	}

	views := make([]stockView, 0, len(stocks))
	for _, stock := range stocks {
		view := stockView{Stock: stock}

		var snapshot models.Snapshot
		err := sc.DB.Where("stock_symbol = ?", stock.Symbol).
			Order("timestamp desc").
			First(&snapshot).Error
		if err == nil {
			view.LatestSnapshot = &snapshot
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			sc.Logger.Warnf("failed to load latest snapshot for %v: %v", stock.Symbol, err)
		}

		views = append(views, view)
	}

	api.ResultData(c, views)
}

// AddStock tracks a new symbol. A duplicate is a distinct 409, not a
// generic failure. nameResolved tells the caller whether the provider
// confirmed the symbol or it was recorded under its literal text.
func (sc StocksController) AddStock(c *gin.Context) {
	var req symbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ResultError(c, []string{"invalidRequest"})
		return
	}

	stock, resolved, err := sc.Ingestor.AddStock(c.Request.Context(), req.Symbol)
	if errors.Is(err, fetcher.ErrAlreadyTracked) {
		api.ResultConflict(c, []string{"alreadyInWatchlist"})
		return
	}
	if err != nil {
		sc.Logger.Errorf("failed to add stock %v: %v", req.Symbol, err)
		api.ResultError(c, nil)
		return
	}

	api.ResultData(c, gin.H{"stock": stock, "nameResolved": resolved})
}

// DeleteStock removes a symbol from the watchlist.
func (sc StocksController) DeleteStock(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		api.ResultError(c, []string{"invalidRequest"})
		return
	}

	err := sc.Ingestor.DeleteStock(c.Request.Context(), symbol)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		api.ResultNotFound(c, []string{"notTracked"})
		return
	}
	if err != nil {
		sc.Logger.Errorf("failed to delete stock %v: %v", symbol, err)
		api.ResultError(c, nil)
		return
	}

	api.ResultSuccess(c)
}

// RefreshStock force-ingests one symbol, bypassing the quote cache.
func (sc StocksController) RefreshStock(c *gin.Context) {
	var req symbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ResultError(c, []string{"invalidRequest"})
		return
	}

	stock, err := sc.Ingestor.IngestTicker(c.Request.Context(), req.Symbol, true)
	if err != nil {
		sc.Logger.Warnf("failed to refresh %v: %v", req.Symbol, err)
		api.ResultError(c, nil)
		return
	}

	api.ResultData(c, stock)
}

// RefreshAll refreshes every tracked symbol, tolerating partial failure.
func (sc StocksController) RefreshAll(c *gin.Context) {
	result, err := sc.Ingestor.UpdateMarketData(c.Request.Context())
	if err != nil {
		sc.Logger.Errorf("batch update failed: %v", err)
		api.ResultError(c, nil)
		return
	}

	api.ResultData(c, result)
}
