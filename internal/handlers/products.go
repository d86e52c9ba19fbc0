package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fleuris_back_end/internal/models"
)

// ProductHandler expose le catalogue public et le CRUD admin.
type ProductHandler struct {
	catalog Catalog
}

func NewProductHandler(catalog Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// GET /api/products — catalogue public, produits disponibles uniquement.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.catalog.ListAvailableProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture catalogue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "introuvable"})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !product.IsAvailable {
		c.JSON(http.StatusNotFound, gin.H{"error": "introuvable"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// GET /api/admin/products — tout le catalogue, masqués inclus.
func (h *ProductHandler) AdminList(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture catalogue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

type productInput struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Price             int64    `json:"price"` // centimes
	Category          string   `json:"category"`
	Images            []string `json:"images"`
	IsAvailable       *bool    `json:"is_available"`
	TrackStock        bool     `json:"track_stock"`
	StockQuantity     int      `json:"stock_quantity"`
	LowStockThreshold int      `json:"low_stock_threshold"`
}

// POST /api/admin/products
func (h *ProductHandler) Create(c *gin.Context) {
	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Name == "" || input.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom et prix (centimes) requis"})
		return
	}
	if input.StockQuantity < 0 || input.LowStockThreshold < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valeurs de stock invalides"})
		return
	}

	available := true
	if input.IsAvailable != nil {
		available = *input.IsAvailable
	}
	now := time.Now()
	product := models.Product{
		ID:                gocql.TimeUUID(),
		Name:              input.Name,
		Description:       input.Description,
		Price:             input.Price,
		Category:          input.Category,
		Images:            input.Images,
		IsAvailable:       available,
		TrackStock:        input.TrackStock,
		StockQuantity:     input.StockQuantity,
		LowStockThreshold: input.LowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.catalog.CreateProduct(c.Request.Context(), &product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création produit"})
		return
	}
	c.JSON(http.StatusCreated, product)
}

// PUT /api/admin/products/:id — ne touche jamais stock_quantity : toute
// variation de stock passe par le journal de mouvements.
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "introuvable"})
		return
	}

	existing, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Name == "" || input.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom et prix (centimes) requis"})
		return
	}

	existing.Name = input.Name
	existing.Description = input.Description
	existing.Price = input.Price
	existing.Category = input.Category
	existing.Images = input.Images
	if input.IsAvailable != nil {
		existing.IsAvailable = *input.IsAvailable
	}
	existing.TrackStock = input.TrackStock
	existing.LowStockThreshold = input.LowStockThreshold
	existing.UpdatedAt = time.Now()

	if err := h.catalog.UpdateProduct(c.Request.Context(), existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}
	c.JSON(http.StatusOK, existing)
}

// DELETE /api/admin/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "introuvable"})
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé"})
}
