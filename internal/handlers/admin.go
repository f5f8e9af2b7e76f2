package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/commerce"
	"velora_back_end/internal/database"
	"velora_back_end/internal/search"
	"velora_back_end/internal/utils"
)

// POST /api/admin/orders/:id/status
func UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("id")

	var input struct {
		Status          string `json:"status" binding:"required"`
		ExpectedVersion int    `json:"expectedVersion" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := Orders.SetStatus(c.Request.Context(), identityFromContext(c), orderID,
		commerce.OrderStatus(input.Status), input.ExpectedVersion)
	if err != nil {
		utils.LogFailedAction(c, utils.ACTION_ORDER_STATUS_CHANGE, utils.RESOURCE_ORDER, orderID, err.Error())
		writeError(c, err)
		return
	}

	utils.LogAction(c, utils.ACTION_ORDER_STATUS_CHANGE, utils.RESOURCE_ORDER, orderID,
		gin.H{"version": input.ExpectedVersion}, gin.H{"status": input.Status, "version": order.Version})

	// Notification client en arrière-plan
	go notifyStatusChange(order)

	c.JSON(http.StatusOK, gin.H{
		"message": "Statut mis à jour",
		"order":   order,
	})
}

// notifyStatusChange retrouve l'email du client et envoie la notification.
// Best-effort : une commande sans email connu ne bloque rien.
func notifyStatusChange(order commerce.Order) {
	session, err := database.GetUsersSession()
	if err != nil {
		log.Printf("⚠️ Session users indisponible, email de statut non envoyé: %v", err)
		return
	}

	userUUID, err := gocql.ParseUUID(order.UserID)
	if err != nil {
		return
	}

	var email string
	if err := session.Query("SELECT email FROM users WHERE user_id = ?", userUUID).Scan(&email); err != nil {
		log.Printf("⚠️ Email introuvable pour l'utilisateur %s: %v", order.UserID, err)
		return
	}

	if err := utils.SendOrderStatusEmail(order, email, string(order.Status)); err != nil {
		log.Printf("❌ Erreur envoi email statut pour %s: %v", order.ID, err)
	}
}

// GET /api/admin/orders?status=&page=&size=
func GetAllOrders(c *gin.Context) {
	identity := identityFromContext(c)
	if !identity.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
		return
	}

	status := commerce.OrderStatus(c.Query("status"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	if status != "" && !commerce.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut inconnu: " + string(status)})
		return
	}

	// Elasticsearch porte la vue admin quand il est là, ScyllaDB sinon.
	if search.Available() {
		orders, err := search.SearchOrders(c.Request.Context(), status, page, size)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"orders": orders, "page": page, "size": size})
			return
		}
		log.Printf("⚠️ Recherche Elasticsearch échouée, repli sur ScyllaDB: %v", err)
	}

	orders, err := Orders.ListAllOrders(c.Request.Context(), identity, status, page, size)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "page": page, "size": size})
}

// GET /api/admin/orders/stats
func GetOrderStats(c *gin.Context) {
	stats, err := Orders.Stats(c.Request.Context(), identityFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
