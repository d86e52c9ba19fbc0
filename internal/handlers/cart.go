package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fleuris_back_end/internal/cart"
	"fleuris_back_end/internal/models"
)

// Catalog est la surface catalogue dont les handlers ont besoin.
type Catalog interface {
	GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListAvailableProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id gocql.UUID) error
}

// CartHandler expose le panier des identités authentifiées. Les paniers
// anonymes n'atteignent jamais cette interface.
type CartHandler struct {
	carts   *cart.Service
	catalog Catalog
}

func NewCartHandler(carts *cart.Service, catalog Catalog) *CartHandler {
	return &CartHandler{carts: carts, catalog: catalog}
}

// GET /api/cart
func (h *CartHandler) Get(c *gin.Context) {
	userID := c.GetString("user_id")

	lines, err := h.carts.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// POST /api/cart — remplace l'intégralité des lignes (pas de patch partiel).
func (h *CartHandler) Replace(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		Lines []models.CartLine `json:"lines"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	for _, l := range input.Lines {
		if l.Quantity < 1 || !models.ValidSize(l.Size) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ligne de panier invalide"})
			return
		}
	}

	lines, err := h.carts.Replace(c.Request.Context(), userID, input.Lines)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// POST /api/cart/add
func (h *CartHandler) Add(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		ProductID string             `json:"product_id"`
		Quantity  int                `json:"quantity"`
		Size      models.BouquetSize `json:"size"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}
	if !models.ValidSize(input.Size) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Taille de bouquet inconnue"})
		return
	}

	productID, err := gocql.ParseUUID(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	lines, err := h.carts.AddLine(c.Request.Context(), userID, *product, input.Quantity, input.Size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit ajouté au panier", "lines": lines})
}

// PUT /api/cart/line — change la quantité d'une ligne. Une quantité sous 1
// retire la ligne.
func (h *CartHandler) UpdateLine(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		ProductID string             `json:"product_id"`
		Size      models.BouquetSize `json:"size"`
		Quantity  int                `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if !models.ValidSize(input.Size) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Taille de bouquet inconnue"})
		return
	}

	lines, err := h.carts.UpdateQuantity(c.Request.Context(), userID, input.ProductID, input.Size, input.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// DELETE /api/cart/line
func (h *CartHandler) RemoveLine(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		ProductID string             `json:"product_id"`
		Size      models.BouquetSize `json:"size"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	lines, err := h.carts.RemoveLine(c.Request.Context(), userID, input.ProductID, input.Size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// POST /api/cart/merge — fusion du panier anonyme au login (max par paire).
func (h *CartHandler) Merge(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		Lines []models.CartLine `json:"lines"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	lines, err := h.carts.Merge(c.Request.Context(), userID, input.Lines)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur fusion panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// DELETE /api/cart
func (h *CartHandler) Clear(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du vidage du panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé avec succès"})
}
