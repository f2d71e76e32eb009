package main

import (
	"context"
	"errors"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stockpulse/controllers"
	"stockpulse/core"
	"stockpulse/fetcher"
	"stockpulse/internal"
	"stockpulse/internal/cache"
	"stockpulse/internal/stockdata"
	"stockpulse/internal/yahoo"
	"stockpulse/models"
)

func main() {
	godotenv.Load()

	// connect to the database
	db, err := core.InitDB()
	if err != nil {
		panic(err)
	}

	// auto migrate the database
	err = db.AutoMigrate(
		&models.Stock{},
		&models.Snapshot{},
	)
	if err != nil {
		panic(err)
	}

	logger, err := internal.NewLogger()
	if err != nil {
		panic(err)
	}

	store := cache.NewStore()
	data := stockdata.NewService(yahoo.NewClient(), store, logger)
	generator := internal.NewGenerator(logger)
	ingestor := fetcher.NewIngestor(db, data, generator, logger)

	// set up commands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "fetch_market":
			result, err := ingestor.UpdateMarketData(context.Background())
			if err != nil {
				panic(err)
			}
			logger.Infof("updated: %v, failed: %v", result.Updated, result.Failed)
			return
		case "seed":
			if err := seedStocks(db); err != nil {
				panic(err)
			}
			logger.Info("seeded watchlist")
			return
		}
	}

	runServer(db, ingestor, data, logger)
}

func runServer(db *gorm.DB, ingestor *fetcher.Ingestor, data *stockdata.Service, logger *zap.SugaredLogger) {
	// set up http server
	engine := gin.Default()
	err := engine.SetTrustedProxies(nil)
	if err != nil {
		panic(err)
	}

	engine.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "https://"+os.Getenv("UI_DOMAIN"))
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})
	engine.Use(requestID())

	healthController := controllers.HealthController{}
	stocksController := controllers.StocksController{
		DB:       db,
		Ingestor: ingestor,
		Logger:   logger,
	}
	historyController := controllers.HistoryController{Data: data, Logger: logger}
	newsController := controllers.NewsController{Data: data, Logger: logger}

	router := Router{
		healthController:  &healthController,
		stocksController:  &stocksController,
		historyController: &historyController,
		newsController:    &newsController,
	}

	router.RegisterRoutes(engine)

	err = engine.Run()
	if err != nil {
		return
	}
}

// seedStocks inserts the initial automated watchlist entries, skipping
// any that already exist.
func seedStocks(db *gorm.DB) error {
	seeds := []models.Stock{
		{Symbol: "NVDA", Name: "NVIDIA Corp", Price: 135.5, Change: 2.5, Sector: "Technology", Automated: true},
		{Symbol: "AAPL", Name: "Apple Inc.", Price: 185.0, Change: 1.2, Sector: "Technology", Automated: true},
		{Symbol: "TSLA", Name: "Tesla, Inc.", Price: 240.0, Change: -1.5, Sector: "Automotive", Automated: true},
		{Symbol: "MSFT", Name: "Microsoft Corp", Price: 420.0, Change: 0.5, Sector: "Technology", Automated: true},
	}

	for _, seed := range seeds {
		var existing models.Stock
		err := db.Where("symbol = ?", seed.Symbol).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&seed).Error; err != nil {
			return err
		}
	}

	return nil
}
