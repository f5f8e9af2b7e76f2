package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/commerce"
	"velora_back_end/internal/utils"
)

// POST /api/orders
func PlaceOrder(c *gin.Context) {
	var input struct {
		ShippingAddress string `json:"shippingAddress" binding:"required"`
		PaymentMethod   string `json:"paymentMethod" binding:"required"`
		IdempotencyKey  string `json:"idempotencyKey"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	// La clé peut venir du body ou du header, le header gagne.
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		input.IdempotencyKey = key
	}

	identity := identityFromContext(c)
	order, err := Checkout.PlaceOrder(c.Request.Context(), identity, commerce.PlaceOrderInput{
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		IdempotencyKey:  input.IdempotencyKey,
	})
	if err != nil {
		utils.LogFailedAction(c, utils.ACTION_ORDER_CREATE, utils.RESOURCE_ORDER, "", err.Error())
		writeError(c, err)
		return
	}

	utils.LogAction(c, utils.ACTION_ORDER_CREATE, utils.RESOURCE_ORDER, order.ID, nil, order)

	// Confirmation + facture en arrière-plan, la réponse n'attend pas le SMTP
	go sendOrderConfirmation(order, identity.Email)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Commande confirmée",
		"order":   order,
	})
}

func sendOrderConfirmation(order commerce.Order, email string) {
	if email == "" {
		log.Printf("⚠️ Pas d'email pour la commande %s, confirmation non envoyée", order.ID)
		return
	}

	htmlBody := utils.GenerateOrderConfirmationHTML(order, email)

	pdfBytes, err := utils.GenerateInvoicePDF(order, email)
	if err != nil {
		log.Printf("⚠️ Erreur génération facture PDF pour %s: %v", order.ID, err)
		pdfBytes = nil // l'email part quand même, sans pièce jointe
	}

	if err := utils.SendConfirmationEmail(email, "Confirmation de votre commande Velora", htmlBody, pdfBytes); err != nil {
		log.Printf("❌ Erreur envoi email confirmation pour %s: %v", order.ID, err)
	}
}
