package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/commerce"
)

// writeError traduit les erreurs du coeur en réponses HTTP.
func writeError(c *gin.Context, err error) {
	var stockErr *commerce.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":    "Stock insuffisant",
			"products": stockErr.ProductIDs,
		})
		return
	}

	var validationErr *commerce.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
		return
	}

	switch {
	case errors.Is(err, commerce.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, commerce.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, commerce.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, commerce.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflit d'écriture, réessayez"})
	case errors.Is(err, commerce.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
	case errors.Is(err, commerce.ErrInvariant):
		// Jamais une erreur client : on trace comme défaut et on ferme.
		log.Printf("❌ Invariant violé: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	default:
		log.Printf("❌ Erreur interne: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}
