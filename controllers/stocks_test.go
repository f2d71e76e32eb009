package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stockpulse/fetcher"
	"stockpulse/internal"
	"stockpulse/internal/cache"
	"stockpulse/internal/stockdata"
	"stockpulse/internal/yahoo"
	"stockpulse/models"
)

func fp(v float64) *float64 { return &v }

type stubMarket struct {
	quoteErr  error
	chartErr  error
	searchErr error
}

func (m *stubMarket) Quote(ctx context.Context, symbols []string) ([]yahoo.Quote, error) {
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	quotes := make([]yahoo.Quote, 0, len(symbols))
	for _, s := range symbols {
		quotes = append(quotes, yahoo.Quote{
			Symbol:                     s,
			LongName:                   s + " Corp",
			RegularMarketPrice:         42,
			RegularMarketChangePercent: 1.0,
		})
	}
	return quotes, nil
}

func (m *stubMarket) Chart(ctx context.Context, symbol string, start time.Time, interval string) (*yahoo.Chart, error) {
	if m.chartErr != nil {
		return nil, m.chartErr
	}
	return &yahoo.Chart{Timestamps: []int64{1700000000}, Closes: []*float64{fp(42)}}, nil
}

func (m *stubMarket) Search(ctx context.Context, query string, newsCount int) ([]yahoo.NewsArticle, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return []yahoo.NewsArticle{{UUID: "n1", Title: "Markets rally"}}, nil
}

func setupEngine(t *testing.T, market stockdata.MarketData) (*gin.Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Stock{}, &models.Snapshot{}))

	logger := zap.NewNop().Sugar()
	data := stockdata.NewService(market, cache.NewStore(), logger)
	ingestor := fetcher.NewIngestor(db, data, internal.NewGenerator(logger), logger)

	stocks := StocksController{DB: db, Ingestor: ingestor, Logger: logger}
	history := HistoryController{Data: data, Logger: logger}
	news := NewsController{Data: data, Logger: logger}

	engine := gin.New()
	engine.GET("/stocks", stocks.GetStocks)
	engine.POST("/stocks", stocks.AddStock)
	engine.DELETE("/stocks", stocks.DeleteStock)
	engine.POST("/stocks/refresh", stocks.RefreshStock)
	engine.GET("/stocks/history", history.GetHistory)
	engine.GET("/news", news.GetNews)
	engine.GET("/refresh", stocks.RefreshAll)

	return engine, db
}

func doRequest(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAddStock_ThenList(t *testing.T) {
	engine, _ := setupEngine(t, &stubMarket{})

	w := doRequest(engine, http.MethodPost, "/stocks", `{"symbol":"aapl"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Data struct {
			Stock        models.Stock `json:"stock"`
			NameResolved bool         `json:"nameResolved"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "AAPL", res.Data.Stock.Symbol)
	assert.True(t, res.Data.NameResolved)

	w = doRequest(engine, http.MethodGet, "/stocks", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Data []struct {
			Symbol         string           `json:"symbol"`
			LatestSnapshot *models.Snapshot `json:"latestSnapshot"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "AAPL", list.Data[0].Symbol)
	require.NotNil(t, list.Data[0].LatestSnapshot, "listing joins the most recent snapshot")
	assert.NotEmpty(t, list.Data[0].LatestSnapshot.Narrative)
}

func TestAddStock_DuplicateIsConflict(t *testing.T) {
	engine, _ := setupEngine(t, &stubMarket{})

	w := doRequest(engine, http.MethodPost, "/stocks", `{"symbol":"AAPL"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodPost, "/stocks", `{"symbol":"AAPL"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "alreadyInWatchlist")
}

func TestDeleteStock_UnknownIsNotFound(t *testing.T) {
	engine, _ := setupEngine(t, &stubMarket{})

	w := doRequest(engine, http.MethodDelete, "/stocks?symbol=NOPE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetHistory_ProviderFailureDegradesToEmpty(t *testing.T) {
	engine, _ := setupEngine(t, &stubMarket{chartErr: errors.New("upstream down")})

	w := doRequest(engine, http.MethodGet, "/stocks/history?symbol=AAPL&range=1d", "")
	require.Equal(t, http.StatusOK, w.Code, "provider trouble must never surface as an error state")

	var res struct {
		Data []yahoo.HistoryPoint `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Empty(t, res.Data)
}

func TestGetHistory_MissingSymbol(t *testing.T) {
	engine, _ := setupEngine(t, &stubMarket{})

	w := doRequest(engine, http.MethodGet, "/stocks/history", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetNews(t *testing.T) {
	engine, _ := setupEngine(t, &stubMarket{})

	w := doRequest(engine, http.MethodGet, "/news", "")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Data []yahoo.NewsItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Markets rally", res.Data[0].Title)

	w = doRequest(engine, http.MethodGet, "/news?count=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshAll_ReportsBatchResult(t *testing.T) {
	engine, db := setupEngine(t, &stubMarket{})

	require.NoError(t, db.Create(&models.Stock{Symbol: "AAPL", Name: "AAPL"}).Error)
	require.NoError(t, db.Create(&models.Stock{Symbol: "MSFT", Name: "MSFT"}).Error)

	w := doRequest(engine, http.MethodGet, "/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Data fetcher.BatchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []string{"AAPL", "MSFT"}, res.Data.Updated)
	assert.Empty(t, res.Data.Failed)
}
