package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockpulse/api"
	"stockpulse/internal/stockdata"
	"stockpulse/internal/yahoo"
)

type HistoryController struct {
	Data   *stockdata.Service
	Logger *zap.SugaredLogger
}

// GetHistory serves normalized chart samples. Provider trouble degrades
// to an empty series, never to an error page.
func (hc HistoryController) GetHistory(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		api.ResultError(c, []string{"invalidRequest"})
		return
	}

	rng := c.DefaultQuery("range", "1d")

	points, err := hc.Data.History(c.Request.Context(), symbol, rng)
	if err != nil {
		hc.Logger.Warnf("history unavailable for %v (%v): %v", symbol, rng, err)
		api.ResultData(c, []yahoo.HistoryPoint{})
		return
	}

	api.ResultData(c, points)
}
