package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Types de mouvement de stock (journal append-only).
type MovementType string

const (
	MovementSale        MovementType = "sale"
	MovementRestock     MovementType = "restock"
	MovementAdjustment  MovementType = "adjustment"
	MovementReservation MovementType = "reservation"
	MovementRelease     MovementType = "release"
)

// StockMovement trace chaque variation de stock_quantity avec sa cause.
// Le stock courant matérialisé sur Product est la somme des deltas.
type StockMovement struct {
	ID        gocql.UUID   `json:"id"`
	ProductID gocql.UUID   `json:"product_id"`
	Type      MovementType `json:"type"`
	Delta     int          `json:"delta"` // signé : vente < 0, réassort > 0
	NewStock  int          `json:"new_stock"`
	OrderID   *gocql.UUID  `json:"order_id,omitempty"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
