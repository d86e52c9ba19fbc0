package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fleuris_back_end/internal/models"
	"fleuris_back_end/internal/stock"
)

// StockHandler expose la vérification publique de disponibilité et les
// opérations admin sur le journal de stock.
type StockHandler struct {
	ledger *stock.Ledger
}

func NewStockHandler(ledger *stock.Ledger) *StockHandler {
	return &StockHandler{ledger: ledger}
}

// GET /api/stock/:id/check?quantity=N — consultatif, aucune réservation.
func (h *StockHandler) Check(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "introuvable"})
		return
	}
	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil || quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	result, err := h.ledger.CheckAvailability(c.Request.Context(), productID, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /api/admin/stock/:id/add — réassort ou ajustement manuel.
func (h *StockHandler) Add(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "introuvable"})
		return
	}

	var input struct {
		Quantity int                 `json:"quantity"`
		Type     models.MovementType `json:"type"`
		Note     string              `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	if err := h.ledger.Add(c.Request.Context(), productID, input.Quantity, input.Type, input.Note); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stock mis à jour"})
}

// GET /api/admin/stock/:id/movements
func (h *StockHandler) Movements(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "introuvable"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}

	movements, err := h.ledger.Movements(c.Request.Context(), productID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements})
}

// GET /api/admin/stock/low — produits au seuil ou en dessous.
func (h *StockHandler) LowStock(c *gin.Context) {
	low, err := h.ledger.LowStockReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": low})
}
