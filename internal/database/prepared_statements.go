package database

import (
	"log"
	"sync"

	"github.com/gocql/gocql"
)

var (
	// Prepared statements pour les requêtes fréquentes
	stmtGetProduct      *gocql.Query
	stmtGetOrder        *gocql.Query
	stmtGetOrdersByUser *gocql.Query
	stmtInsertMovement  *gocql.Query

	preparedOnce sync.Once
)

// InitPreparedStatements initialise les prepared statements
func InitPreparedStatements() {
	preparedOnce.Do(func() {
		products, err := GetProductsSession()
		if err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements: %v", err)
			return
		}

		// Requête pour récupérer le prix et le stock d'un produit
		stmtGetProduct = products.Query("SELECT name, price, stock FROM products WHERE product_id = ?")

		// Requête pour tracer un mouvement de stock
		stmtInsertMovement = products.Query(`INSERT INTO stock_movements (id, product_id, type, quantity, prev_stock, new_stock, reason, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

		orders, err := GetOrdersSession()
		if err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements commandes: %v", err)
			return
		}

		// Requête pour récupérer une commande par ID
		stmtGetOrder = orders.Query(`SELECT order_id, user_id, user_name, items_json, total_price, shipping_address, payment_method, status, version, created_at, updated_at
			FROM orders WHERE order_id = ?`)

		// Requête pour l'historique d'un utilisateur (table dénormalisée, triée par date décroissante)
		stmtGetOrdersByUser = orders.Query("SELECT order_id FROM orders_by_user WHERE user_id = ?")

		log.Println("✅ Prepared statements initialisés")
	})
}

// GetPreparedStatements retourne les prepared statements
func GetPreparedGetProduct() *gocql.Query {
	return stmtGetProduct
}

func GetPreparedGetOrder() *gocql.Query {
	return stmtGetOrder
}

func GetPreparedGetOrdersByUser() *gocql.Query {
	return stmtGetOrdersByUser
}

func GetPreparedInsertMovement() *gocql.Query {
	return stmtInsertMovement
}
