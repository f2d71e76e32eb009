// Package yahoo is a thin typed client for the Yahoo Finance endpoints
// the service depends on: batch quotes, chart history and news search.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient() *Client {
	baseURL := os.Getenv("YAHOO_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 10 * time.Second

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc.StandardClient(),
	}
}

// Quote is one entry of the provider's quote response. Name fields may
// be empty; use DisplayName to resolve them.
type Quote struct {
	Symbol                     string  `json:"symbol"`
	LongName                   string  `json:"longName,omitempty"`
	ShortName                  string  `json:"shortName,omitempty"`
	Currency                   string  `json:"currency,omitempty"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []Quote        `json:"result"`
		Error  *providerError `json:"error"`
	} `json:"quoteResponse"`
}

// Chart is the raw chart payload for one symbol. OHLC values are
// pointers because the provider emits null for halted or empty bars.
type Chart struct {
	Timestamps []int64
	Opens      []*float64
	Closes     []*float64
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *providerError `json:"error"`
	} `json:"chart"`
}

// NewsArticle is one raw news result from the search endpoint. UUID may
// be empty for some publishers.
type NewsArticle struct {
	UUID                string     `json:"uuid,omitempty"`
	Title               string     `json:"title"`
	Publisher           string     `json:"publisher"`
	Link                string     `json:"link"`
	ProviderPublishTime int64      `json:"providerPublishTime"`
	Summary             string     `json:"summary,omitempty"`
	Snippet             string     `json:"snippet,omitempty"`
	Thumbnail           *Thumbnail `json:"thumbnail,omitempty"`
}

// Thumbnail is the article image in the resolutions the provider offers.
type Thumbnail struct {
	Resolutions []ThumbnailResolution `json:"resolutions"`
}

type ThumbnailResolution struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type searchResponse struct {
	News []NewsArticle `json:"news"`
}

type providerError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Quote fetches current quotes for a batch of symbols.
func (c *Client) Quote(ctx context.Context, symbols []string) ([]Quote, error) {
	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))

	var body quoteResponse
	if err := c.getJSON(ctx, "/v7/finance/quote", q, &body); err != nil {
		return nil, err
	}
	if e := body.QuoteResponse.Error; e != nil {
		return nil, fmt.Errorf("yahoo quote: %v %v", e.Code, e.Description)
	}

	return body.QuoteResponse.Result, nil
}

// Chart fetches historical bars for a symbol from start until now at the
// given interval.
func (c *Client) Chart(ctx context.Context, symbol string, start time.Time, interval string) (*Chart, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(time.Now().Unix(), 10))
	q.Set("interval", interval)

	var body chartResponse
	if err := c.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), q, &body); err != nil {
		return nil, err
	}
	if e := body.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo chart %v: %v %v", symbol, e.Code, e.Description)
	}
	if len(body.Chart.Result) == 0 {
		return &Chart{}, nil
	}

	res := body.Chart.Result[0]
	chart := &Chart{Timestamps: res.Timestamp}
	if len(res.Indicators.Quote) > 0 {
		chart.Opens = res.Indicators.Quote[0].Open
		chart.Closes = res.Indicators.Quote[0].Close
	}

	return chart, nil
}

// Search runs a full-text search and returns its news results.
func (c *Client) Search(ctx context.Context, query string, newsCount int) ([]NewsArticle, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("newsCount", strconv.Itoa(newsCount))
	q.Set("quotesCount", "0")

	var body searchResponse
	if err := c.getJSON(ctx, "/v1/finance/search", q, &body); err != nil {
		return nil, err
	}

	return body.News, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "stockpulse/1.0")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return fmt.Errorf("yahoo http %d for %v", res.StatusCode, path)
	}

	return json.NewDecoder(res.Body).Decode(out)
}
