package handlers

import (
	"velora_back_end/internal/commerce"
	"velora_back_end/internal/database"
	"velora_back_end/internal/search"
	"velora_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

// Services partagés par tous les handlers, câblés une fois au démarrage.
var (
	Cart     *commerce.CartService
	Checkout *commerce.CheckoutService
	Orders   *commerce.OrderService
)

// InitServices construit les services sur les connexions globales.
// À appeler après database.ConnectDatabases().
func InitServices() {
	catalog := store.NewScyllaCatalog()
	carts := store.NewRedisCartStore(database.Redis)
	orders := store.NewScyllaOrders()
	idem := store.NewRedisIdempotencyStore(database.Redis)
	notifier := &searchNotifier{}

	Cart = commerce.NewCartService(catalog, carts)

	Checkout = commerce.NewCheckoutService(catalog, carts, orders, idem)
	Checkout.Notifier = notifier

	Orders = commerce.NewOrderService(catalog, orders)
	Orders.Notifier = notifier
}

// searchNotifier pousse les commandes vers Elasticsearch après commit
// (best-effort, la vérité reste dans ScyllaDB).
type searchNotifier struct{}

func (n *searchNotifier) OrderPlaced(o commerce.Order) {
	go search.IndexOrder(o)
}

func (n *searchNotifier) OrderStatusChanged(o commerce.Order, _ commerce.OrderStatus) {
	go search.IndexOrder(o)
}

// identityFromContext reconstruit l'identité posée par le middleware JWT.
func identityFromContext(c *gin.Context) commerce.Identity {
	return commerce.Identity{
		UserID: c.GetString("user_id"),
		Email:  c.GetString("email"),
		Name:   c.GetString("name"),
		Role:   c.GetString("role"),
	}
}
