package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/cart
func GetCart(c *gin.Context) {
	view, err := Cart.Get(c.Request.Context(), identityFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// POST /api/cart/items
func AddToCart(c *gin.Context) {
	var input struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	view, err := Cart.AddItem(c.Request.Context(), identityFromContext(c), input.ProductID, input.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// PUT /api/cart/items/:productId
func UpdateCartItem(c *gin.Context) {
	var input struct {
		Quantity *int `json:"quantity" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	view, err := Cart.SetQuantity(c.Request.Context(), identityFromContext(c), c.Param("productId"), *input.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// DELETE /api/cart/items/:productId
func RemoveFromCart(c *gin.Context) {
	view, err := Cart.RemoveItem(c.Request.Context(), identityFromContext(c), c.Param("productId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
