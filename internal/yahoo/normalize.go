package yahoo

import (
	"time"

	"github.com/jaytaylor/html2text"
)

// HistoryPoint is one normalized chart sample. Time is RFC3339 so chart
// consumers never care which interval produced the bar.
type HistoryPoint struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

// NewsItem is one normalized news record. Thumbnail is passed through
// untouched so clients can pick the resolution they want.
type NewsItem struct {
	UUID        string     `json:"uuid,omitempty"`
	Title       string     `json:"title"`
	Publisher   string     `json:"publisher"`
	Link        string     `json:"link"`
	PublishedAt time.Time  `json:"publishedAt"`
	Summary     string     `json:"summary"`
	Thumbnail   *Thumbnail `json:"thumbnail,omitempty"`
}

// NormalizeHistory converts a raw chart into history points. Bars with
// neither an open nor a close are dropped; price prefers close.
func NormalizeHistory(chart *Chart) []HistoryPoint {
	if chart == nil {
		return []HistoryPoint{}
	}

	points := make([]HistoryPoint, 0, len(chart.Timestamps))
	for i, ts := range chart.Timestamps {
		var open, closing *float64
		if i < len(chart.Opens) {
			open = chart.Opens[i]
		}
		if i < len(chart.Closes) {
			closing = chart.Closes[i]
		}
		if open == nil && closing == nil {
			continue
		}

		price := 0.0
		if closing != nil {
			price = *closing
		} else {
			price = *open
		}

		points = append(points, HistoryPoint{
			Time:  time.Unix(ts, 0).UTC().Format(time.RFC3339),
			Price: price,
		})
	}

	return points
}

// DisplayName resolves a quote's company name: long name, then short
// name, then the raw symbol. Never empty for a non-empty symbol.
func DisplayName(q Quote) string {
	if q.LongName != "" {
		return q.LongName
	}
	if q.ShortName != "" {
		return q.ShortName
	}
	return q.Symbol
}

// NormalizeNews converts raw search results. The summary falls back to
// the snippet, then to empty; any markup in it is flattened to text.
func NormalizeNews(articles []NewsArticle) []NewsItem {
	items := make([]NewsItem, 0, len(articles))
	for _, a := range articles {
		summary := a.Summary
		if summary == "" {
			summary = a.Snippet
		}
		if summary != "" {
			if text, err := html2text.FromString(summary, html2text.Options{TextOnly: true}); err == nil {
				summary = text
			}
		}

		items = append(items, NewsItem{
			UUID:        a.UUID,
			Title:       a.Title,
			Publisher:   a.Publisher,
			Link:        a.Link,
			PublishedAt: time.Unix(a.ProviderPublishTime, 0).UTC(),
			Summary:     summary,
			Thumbnail:   a.Thumbnail,
		})
	}

	return items
}

// DedupeNews drops repeated items by UUID, keeping the first occurrence.
// Items without a UUID cannot be matched and are always kept.
func DedupeNews(items []NewsItem) []NewsItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]NewsItem, 0, len(items))
	for _, item := range items {
		if item.UUID != "" {
			if _, ok := seen[item.UUID]; ok {
				continue
			}
			seen[item.UUID] = struct{}{}
		}
		out = append(out, item)
	}

	return out
}
