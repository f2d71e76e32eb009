package models

import "time"

// Snapshot is one timestamped capture of a stock's price, move and the
// narrative explaining it. Snapshots are append-only: nothing updates or
// deletes them during normal operation.
type Snapshot struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	StockSymbol   string    `gorm:"index;not null" json:"stockSymbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"changePercent"`
	Narrative     string    `json:"narrative"`
	Sentiment     string    `json:"sentiment"`
	Timestamp     time.Time `gorm:"index" json:"timestamp"`
}
