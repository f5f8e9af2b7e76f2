package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/gocql/gocql"

	"velora_back_end/internal/commerce"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

// Nombre d'essais des écritures compare-and-set avant d'abandonner en
// conflit. La contention sur un même produit est courte : quelques essais
// suffisent, au-delà on laisse l'appelant décider.
const casRetries = 5

// ScyllaCatalog expose le catalogue avec des écritures de stock
// conditionnelles : la garde est évaluée par la base au moment de
// l'écriture (LWT), jamais par une séquence lire-puis-écrire.
type ScyllaCatalog struct{}

func NewScyllaCatalog() *ScyllaCatalog { return &ScyllaCatalog{} }

func (s *ScyllaCatalog) GetProduct(ctx context.Context, productID string) (commerce.ProductInfo, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return commerce.ProductInfo{}, err
	}

	id, err := gocql.ParseUUID(productID)
	if err != nil {
		return commerce.ProductInfo{}, commerce.ErrProductNotFound
	}

	var (
		name  string
		price float64
		stock int
	)
	err = session.Query(`SELECT name, price, stock FROM products WHERE product_id = ?`, id).
		WithContext(ctx).Scan(&name, &price, &stock)
	if errors.Is(err, gocql.ErrNotFound) {
		return commerce.ProductInfo{}, commerce.ErrProductNotFound
	}
	if err != nil {
		return commerce.ProductInfo{}, err
	}

	return commerce.ProductInfo{ID: productID, Name: name, Price: price, Stock: stock}, nil
}

// DecrementStock décrémente seulement si le stock courant couvre la
// quantité. Le CAS porte sur la valeur vive : deux checkouts concurrents
// sur la dernière unité ne peuvent pas passer tous les deux.
func (s *ScyllaCatalog) DecrementStock(ctx context.Context, productID string, qty int) error {
	return s.adjustStock(ctx, productID, -qty, "sale")
}

// IncrementStock remet des unités en stock (annulation de commande ou
// compensation de saga).
func (s *ScyllaCatalog) IncrementStock(ctx context.Context, productID string, qty int) error {
	return s.adjustStock(ctx, productID, qty, "restock")
}

func (s *ScyllaCatalog) adjustStock(ctx context.Context, productID string, delta int, movementType string) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	id, err := gocql.ParseUUID(productID)
	if err != nil {
		return commerce.ErrProductNotFound
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		var current int
		err := session.Query(`SELECT stock FROM products WHERE product_id = ?`, id).
			WithContext(ctx).Scan(&current)
		if errors.Is(err, gocql.ErrNotFound) {
			return commerce.ErrProductNotFound
		}
		if err != nil {
			return err
		}

		next := current + delta
		if next < 0 {
			return &commerce.InsufficientStockError{ProductIDs: []string{productID}}
		}

		var observed int
		applied, err := session.Query(
			`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
			next, time.Now(), id, current,
		).WithContext(ctx).ScanCAS(&observed)
		if err != nil {
			return err
		}
		if applied {
			s.recordMovement(id, movementType, delta, current, next)
			return nil
		}
		// Un autre checkout est passé entre la lecture et le CAS : on relit.
	}

	return fmt.Errorf("stock de %s trop contendu: %w", productID, commerce.ErrConflict)
}

// recordMovement trace le mouvement de stock (best-effort, comme les
// alertes de stock : un échec ne bloque pas l'opération).
func (s *ScyllaCatalog) recordMovement(productID gocql.UUID, movementType string, delta, prev, next int) {
	session, err := database.GetProductsSession()
	if err != nil {
		return
	}

	qty := delta
	if qty < 0 {
		qty = -qty
	}
	m := models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		Type:      movementType,
		Quantity:  qty,
		PrevStock: prev,
		NewStock:  next,
		Reason:    "commande",
		CreatedAt: time.Now(),
	}
	if err := session.Query(`
		INSERT INTO stock_movements (id, product_id, type, quantity, prev_stock, new_stock, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProductID, m.Type, m.Quantity, m.PrevStock, m.NewStock, m.Reason, m.CreatedAt,
	).Exec(); err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
	}
}

// ScyllaOrders persiste les commandes dans le keyspace orders : une table
// par identifiant et une table dénormalisée par utilisateur (modèle
// Cassandra classique). La transition de statut est un CAS sur la version.
type ScyllaOrders struct{}

func NewScyllaOrders() *ScyllaOrders { return &ScyllaOrders{} }

func (s *ScyllaOrders) Insert(ctx context.Context, o commerce.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	id, err := gocql.ParseUUID(o.ID)
	if err != nil {
		return fmt.Errorf("id de commande invalide: %w", err)
	}

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}

	batch := session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`
		INSERT INTO orders (order_id, user_id, user_name, items_json, total_price, shipping_address,
			payment_method, status, version, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, o.UserID, o.UserName, string(itemsJSON), o.TotalPrice, o.ShippingAddress,
		o.PaymentMethod, string(o.Status), o.Version, o.IdempotencyKey, o.CreatedAt)
	batch.Query(`
		INSERT INTO orders_by_user (user_id, created_at, order_id, total_price, status)
		VALUES (?, ?, ?, ?, ?)`,
		o.UserID, o.CreatedAt, id, o.TotalPrice, string(o.Status))

	return session.ExecuteBatch(batch)
}

func (s *ScyllaOrders) Get(ctx context.Context, orderID string) (commerce.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return commerce.Order{}, err
	}

	id, err := gocql.ParseUUID(orderID)
	if err != nil {
		return commerce.Order{}, commerce.ErrOrderNotFound
	}

	var (
		o         commerce.Order
		itemsJSON string
		status    string
		updatedAt *time.Time
	)
	err = session.Query(`
		SELECT user_id, user_name, items_json, total_price, shipping_address, payment_method,
			status, version, idempotency_key, created_at, updated_at
		FROM orders WHERE order_id = ?`, id).WithContext(ctx).Scan(
		&o.UserID, &o.UserName, &itemsJSON, &o.TotalPrice, &o.ShippingAddress, &o.PaymentMethod,
		&status, &o.Version, &o.IdempotencyKey, &o.CreatedAt, &updatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return commerce.Order{}, commerce.ErrOrderNotFound
	}
	if err != nil {
		return commerce.Order{}, err
	}

	o.ID = orderID
	o.Status = commerce.OrderStatus(status)
	o.UpdatedAt = updatedAt
	if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
		return commerce.Order{}, fmt.Errorf("items corrompus pour %s: %w", orderID, err)
	}
	return o, nil
}

func (s *ScyllaOrders) Delete(ctx context.Context, orderID string) error {
	o, err := s.Get(ctx, orderID)
	if errors.Is(err, commerce.ErrOrderNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	id, _ := gocql.ParseUUID(orderID)
	batch := session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM orders WHERE order_id = ?`, id)
	batch.Query(`DELETE FROM orders_by_user WHERE user_id = ? AND created_at = ? AND order_id = ?`,
		o.UserID, o.CreatedAt, id)
	return session.ExecuteBatch(batch)
}

// CompareAndSetStatus conditionne l'écriture à la version attendue. Une
// version décalée signifie qu'un autre admin est passé avant : on retourne
// false sans rien écraser.
func (s *ScyllaOrders) CompareAndSetStatus(ctx context.Context, orderID string, newStatus commerce.OrderStatus, expectedVersion int, now time.Time) (bool, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return false, err
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	id, _ := gocql.ParseUUID(orderID)
	var observed int
	applied, err := session.Query(
		`UPDATE orders SET status = ?, version = ?, updated_at = ? WHERE order_id = ? IF version = ?`,
		string(newStatus), expectedVersion+1, now, id, expectedVersion,
	).WithContext(ctx).ScanCAS(&observed)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	// La table par utilisateur suit sans condition : elle n'est qu'une vue.
	if err := session.Query(
		`UPDATE orders_by_user SET status = ? WHERE user_id = ? AND created_at = ? AND order_id = ?`,
		string(newStatus), o.UserID, o.CreatedAt, id,
	).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Erreur mise à jour orders_by_user pour %s: %v", orderID, err)
	}

	return true, nil
}

func (s *ScyllaOrders) ListByUser(ctx context.Context, userID string) ([]commerce.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	// orders_by_user est clusterisée par created_at décroissant : l'ordre
	// de lecture est déjà le bon.
	iter := session.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).Iter()

	var ids []string
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id.String())
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	orders := make([]commerce.Order, 0, len(ids))
	for _, orderID := range ids {
		o, err := s.Get(ctx, orderID)
		if errors.Is(err, commerce.ErrOrderNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// ListAll parcourt la table orders (attention: peut être lourd en
// production — la vue admin passe par Elasticsearch quand il est là,
// ceci est le chemin de repli).
func (s *ScyllaOrders) ListAll(ctx context.Context, status commerce.OrderStatus, page, size int) ([]commerce.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT order_id, user_id, user_name, items_json, total_price, shipping_address,
			payment_method, status, version, created_at, updated_at
		FROM orders`).WithContext(ctx).Iter()

	var all []commerce.Order
	var (
		id        gocql.UUID
		itemsJSON string
		st        string
		updatedAt *time.Time
	)
	var o commerce.Order
	for iter.Scan(&id, &o.UserID, &o.UserName, &itemsJSON, &o.TotalPrice, &o.ShippingAddress,
		&o.PaymentMethod, &st, &o.Version, &o.CreatedAt, &updatedAt) {
		if status != "" && commerce.OrderStatus(st) != status {
			continue
		}
		o.ID = id.String()
		o.Status = commerce.OrderStatus(st)
		o.UpdatedAt = updatedAt
		if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
			log.Printf("⚠️ Items corrompus pour %s, commande ignorée: %v", o.ID, err)
			continue
		}
		all = append(all, o)
		o = commerce.Order{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := (page - 1) * size
	if start >= len(all) {
		return nil, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}
