package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleuris_back_end/internal/payments"
)

// Taille maximale d'un payload webhook Stripe.
const maxWebhookBody = 65536

// WebhookHandler reçoit les notifications du processeur de paiement.
type WebhookHandler struct {
	reconciler *payments.Reconciler
}

func NewWebhookHandler(reconciler *payments.Reconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// POST /api/webhook/stripe
//
// 400 fait abandonner Stripe, 500 le fait relivrer. Seule une dépendance
// injoignable mérite donc un 500 : tout le reste est acquitté ou rejeté
// définitivement.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Printf("❌ Lecture payload webhook: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payload illisible"})
		return
	}

	err = h.reconciler.Handle(c.Request.Context(), body, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, payments.ErrSignatureInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
	case errors.Is(err, payments.ErrDownstream):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Réessayez plus tard"})
	default:
		log.Printf("❌ Erreur webhook inattendue: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}
