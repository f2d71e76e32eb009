package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockpulse/api"
	"stockpulse/internal/stockdata"
	"stockpulse/internal/yahoo"
)

type NewsController struct {
	Data   *stockdata.Service
	Logger *zap.SugaredLogger
}

// GetNews serves the cached news feed for a category. Provider trouble
// degrades to an empty feed.
func (nc NewsController) GetNews(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "20"))
	if err != nil || count <= 0 {
		api.ResultError(c, []string{"invalidRequest"})
		return
	}

	category := c.DefaultQuery("category", "US Markets")

	items, err := nc.Data.News(c.Request.Context(), category, count)
	if err != nil {
		nc.Logger.Warnf("news unavailable for %q: %v", category, err)
		api.ResultData(c, []yahoo.NewsItem{})
		return
	}

	api.ResultData(c, items)
}
