package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fleuris_back_end/internal/models"
	"fleuris_back_end/internal/orders"
	"fleuris_back_end/internal/stock"
)

// CheckoutHandler transforme un panier soumis en commande pending et
// retourne le client_secret Stripe. Accessible aux invités : l'identité
// est optionnelle.
type CheckoutHandler struct {
	workflow *orders.Workflow
	ledger   *stock.Ledger
}

func NewCheckoutHandler(workflow *orders.Workflow, ledger *stock.Ledger) *CheckoutHandler {
	return &CheckoutHandler{workflow: workflow, ledger: ledger}
}

type checkoutRequest struct {
	Lines            []orders.CheckoutLine `json:"lines"`
	RecipientName    string                `json:"recipient_name"`
	RecipientAddress string                `json:"recipient_address"`
	RecipientEmail   string                `json:"recipient_email"`
	RecipientPhone   string                `json:"recipient_phone"`
	DeliveryDate     string                `json:"delivery_date"`
	DeliverySlot     models.DeliverySlot   `json:"delivery_slot"`
	CardMessage      string                `json:"card_message"`
}

// POST /api/checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	// Vérification consultative du stock : on prévient l'acheteur avant le
	// paiement, mais rien n'est réservé ici.
	var batch []stock.BatchLine
	for _, l := range req.Lines {
		if id, err := gocql.ParseUUID(l.ProductID); err == nil {
			batch = append(batch, stock.BatchLine{ProductID: id, Quantity: l.Quantity})
		}
	}
	if ok, unavailable, err := h.ledger.CheckBatch(c.Request.Context(), batch); err == nil && !ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":       "Certains produits ne sont plus disponibles en quantité demandée",
			"unavailable": unavailable,
		})
		return
	}

	result, err := h.workflow.Create(c.Request.Context(), orders.CreateInput{
		UserID:           c.GetString("user_id"), // vide pour un invité
		RecipientName:    req.RecipientName,
		RecipientAddress: req.RecipientAddress,
		RecipientEmail:   req.RecipientEmail,
		RecipientPhone:   req.RecipientPhone,
		DeliveryDate:     req.DeliveryDate,
		DeliverySlot:     req.DeliverySlot,
		CardMessage:      req.CardMessage,
		Lines:            req.Lines,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":       result.Order.ID.String(),
		"tracking_token": result.Order.TrackingToken,
		"total_amount":   result.Order.TotalAmount,
		"client_secret":  result.ClientSecret,
	})
}
