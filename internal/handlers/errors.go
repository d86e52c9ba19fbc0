package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleuris_back_end/internal/orders"
	"fleuris_back_end/internal/store"
)

// respondError traduit la taxonomie d'erreurs métier en statuts HTTP.
// Les lectures de commande aplatissent volontairement "non autorisé" en
// "introuvable" pour ne rien divulguer.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orders.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "introuvable"})
	case errors.Is(err, orders.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}
