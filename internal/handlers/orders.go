package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fleuris_back_end/internal/models"
	"fleuris_back_end/internal/orders"
)

// OrderHandler regroupe les lectures client, le suivi public et les
// actions back-office sur les commandes.
type OrderHandler struct {
	workflow *orders.Workflow
}

func NewOrderHandler(workflow *orders.Workflow) *OrderHandler {
	return &OrderHandler{workflow: workflow}
}

// GET /api/orders — commandes de l'identité courante.
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID := c.GetString("user_id")

	list, err := h.workflow.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// GET /api/orders/:id — détail avec contrôle de propriété.
func (h *OrderHandler) GetMine(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "introuvable"})
		return
	}

	detail, err := h.workflow.GetForUser(c.Request.Context(), orderID, c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GET /api/track/:token — suivi public par token opaque, sans
// authentification. Le token est le seul secret.
func (h *OrderHandler) Track(c *gin.Context) {
	detail, err := h.workflow.Track(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GET /api/admin/orders
func (h *OrderHandler) AdminList(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 100
	}

	list, err := h.workflow.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// PUT /api/admin/orders/:id/status
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "introuvable"})
		return
	}

	var input struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if err := h.workflow.UpdateStatus(c.Request.Context(), orderID, input.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Statut mis à jour", "status": input.Status})
}

// POST /api/admin/orders/:id/cancel
func (h *OrderHandler) AdminCancel(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "introuvable"})
		return
	}

	if err := h.workflow.Cancel(c.Request.Context(), orderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande annulée"})
}
