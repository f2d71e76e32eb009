package models

import "time"

// Stock is a single tracked instrument on the shared watchlist. Removal
// is a hard delete: a re-added symbol must not trip the unique index on
// a tombstone, so there is no soft-delete column.
type Stock struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// Ticker symbol, always uppercase. It is unique and immutable once
	// created.
	Symbol string `gorm:"uniqueIndex;not null" json:"symbol"`
	// Display name. Starts out as the symbol itself and is replaced by
	// the provider's company name once a quote resolves.
	Name string `gorm:"not null" json:"name"`
	// Latest known quote values, overwritten on every ingestion cycle.
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
	// Optional sector classification.
	Sector string `json:"sector,omitempty"`
	// Automated marks rows created by seeding or system jobs rather
	// than by a user.
	Automated bool `json:"automated"`
}
