package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Product représente un bouquet du catalogue.
// Les prix sont toujours en centimes (int64), jamais en flottant.
type Product struct {
	ID                gocql.UUID `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Price             int64      `json:"price"` // centimes
	Category          string     `json:"category"`
	Images            []string   `json:"images"`
	IsAvailable       bool       `json:"is_available"`
	TrackStock        bool       `json:"track_stock"`
	StockQuantity     int        `json:"stock_quantity"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
