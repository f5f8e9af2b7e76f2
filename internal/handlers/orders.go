package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/orders
func GetMyOrders(c *gin.Context) {
	orders, err := Orders.ListOrdersForUser(c.Request.Context(), identityFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GET /api/orders/:id
func GetOrder(c *gin.Context) {
	order, err := Orders.GetOrder(c.Request.Context(), identityFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
