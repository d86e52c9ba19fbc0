package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts du cycle de vie d'une commande. Les transitions sont
// unidirectionnelles, sauf annulation admin depuis un état non terminal.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusPreparing OrderStatus = "preparing"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// ValidStatus indique si le statut fait partie de l'énumération.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusPaid, StatusPreparing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal : plus aucune transition possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type DeliverySlot string

const (
	SlotMorning   DeliverySlot = "morning"   // 9h-12h
	SlotAfternoon DeliverySlot = "afternoon" // 14h-18h
)

type Order struct {
	ID               gocql.UUID   `json:"id"`
	UserID           string       `json:"user_id,omitempty"` // vide = commande invité
	Status           OrderStatus  `json:"status"`
	TotalAmount      int64        `json:"total_amount"` // centimes, figé à la création
	RecipientName    string       `json:"recipient_name"`
	RecipientAddress string       `json:"recipient_address"`
	RecipientEmail   string       `json:"recipient_email"`
	RecipientPhone   string       `json:"recipient_phone,omitempty"`
	DeliveryDate     time.Time    `json:"delivery_date"`
	DeliverySlot     DeliverySlot `json:"delivery_slot"`
	CardMessage      string       `json:"card_message,omitempty"`
	TrackingToken    string       `json:"tracking_token"`
	PaymentIntentID  string       `json:"payment_intent_id,omitempty"` // clé de corrélation Stripe
	CreatedAt        time.Time    `json:"created_at"`
}

// OrderLine est un instantané : price_at_purchase ne doit jamais être
// recalculé depuis le prix courant du produit. La taille fait partie de
// la clé : un même produit en classic et en generous fait deux lignes.
type OrderLine struct {
	OrderID         gocql.UUID  `json:"order_id"`
	ProductID       gocql.UUID  `json:"product_id"`
	Size            BouquetSize `json:"size"`
	ProductName     string      `json:"product_name"`
	Quantity        int         `json:"quantity"`
	PriceAtPurchase int64       `json:"price_at_purchase"` // centimes
}
