package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleuris_back_end/internal/storage"
)

// Taille maximale d'une image produit : 5 Mo.
const maxImageSize = 5 << 20

// ImageHandler gère l'upload des images produits vers le dépôt d'objets.
type ImageHandler struct {
	images *storage.ImageStore
}

func NewImageHandler(images *storage.ImageStore) *ImageHandler {
	return &ImageHandler{images: images}
}

// POST /api/admin/images — multipart, champ "image".
func (h *ImageHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier 'image' requis"})
		return
	}
	if file.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image trop volumineuse (max 5 Mo)"})
		return
	}

	url, err := h.images.UploadImage(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
