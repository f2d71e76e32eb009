package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stockpulse/controllers"
)

type Router struct {
	healthController  *controllers.HealthController
	stocksController  *controllers.StocksController
	historyController *controllers.HistoryController
	newsController    *controllers.NewsController
}

func (r Router) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", r.healthController.Status)

	router.GET("/stocks", r.stocksController.GetStocks)
	router.POST("/stocks", r.stocksController.AddStock)
	router.DELETE("/stocks", r.stocksController.DeleteStock)
	router.POST("/stocks/refresh", r.stocksController.RefreshStock)
	router.GET("/stocks/history", r.historyController.GetHistory)

	router.GET("/news", r.newsController.GetNews)

	router.GET("/refresh", r.stocksController.RefreshAll)
}

// requestID tags every request so batch refreshes can be correlated in
// the logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Set("requestID", id)
		c.Next()
	}
}
