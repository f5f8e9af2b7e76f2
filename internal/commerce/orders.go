package commerce

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"
)

// OrderService regroupe le contrôleur de statut (mutateur privilégié) et la
// couche de lecture des commandes.
type OrderService struct {
	Catalog  CatalogStore
	Orders   OrderStore
	Notifier Notifier

	now func() time.Time
}

func NewOrderService(catalog CatalogStore, orders OrderStore) *OrderService {
	return &OrderService{Catalog: catalog, Orders: orders, now: time.Now}
}

// SetStatus applique une transition de statut. Seul un admin peut écrire ;
// le client propriétaire ne fait que lire. L'écriture est conditionnée à la
// version attendue : un décalage signifie qu'un autre admin est passé avant,
// et on refuse plutôt que d'écraser en silence.
func (s *OrderService) SetStatus(ctx context.Context, actor Identity, orderID string, newStatus OrderStatus, expectedVersion int) (Order, error) {
	if !actor.IsAdmin() {
		return Order{}, ErrUnauthorized
	}
	if !ValidStatus(newStatus) {
		return Order{}, &ValidationError{Field: "status", Reason: "statut inconnu"}
	}

	order, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}

	if !CanTransition(order.Status, newStatus) {
		return Order{}, fmt.Errorf("%s → %s: %w", order.Status, newStatus, ErrInvalidTransition)
	}

	applied, err := s.Orders.CompareAndSetStatus(ctx, orderID, newStatus, expectedVersion, s.now())
	if err != nil {
		return Order{}, err
	}
	if !applied {
		return Order{}, ErrConflict
	}

	previous := order.Status

	// L'annulation inverse la décrémentation du checkout : chaque ligne
	// retourne en stock. Un échec ici est un défaut à corriger, pas une
	// raison de faire osciller le statut de la commande.
	if newStatus == StatusCancelled {
		for _, item := range order.Items {
			if err := s.Catalog.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				log.Printf("❌ Défaut: restock échoué pour %s (+%d) après annulation de %s: %v",
					item.ProductID, item.Quantity, orderID, err)
			}
		}
	}

	updated, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		// L'écriture a réussi ; on reconstruit la réponse plutôt que d'échouer.
		updated = order
		updated.Status = newStatus
		updated.Version = expectedVersion + 1
	}

	if s.Notifier != nil {
		s.Notifier.OrderStatusChanged(updated, previous)
	}

	log.Printf("✅ Commande %s: %s → %s (par %s)", orderID, previous, newStatus, actor.UserID)
	return updated, nil
}

// GetOrder retourne une commande, visible par son propriétaire ou un admin.
func (s *OrderService) GetOrder(ctx context.Context, actor Identity, orderID string) (Order, error) {
	order, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.UserID != actor.UserID && !actor.IsAdmin() {
		return Order{}, ErrUnauthorized
	}
	return order, nil
}

// ListOrdersForUser retourne l'historique du demandeur, plus récent d'abord.
// Lecture pure, aucun effet de bord.
func (s *OrderService) ListOrdersForUser(ctx context.Context, actor Identity) ([]Order, error) {
	orders, err := s.Orders.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// ListAllOrders est la vue globale admin, filtrable par statut et paginée.
func (s *OrderService) ListAllOrders(ctx context.Context, actor Identity, status OrderStatus, page, size int) ([]Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if status != "" && !ValidStatus(status) {
		return nil, &ValidationError{Field: "status", Reason: "statut inconnu"}
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return s.Orders.ListAll(ctx, status, page, size)
}

// OrderStats agrège compte et chiffre d'affaires par statut (vue admin).
type OrderStats struct {
	TotalOrders  int                 `json:"total_orders"`
	TotalRevenue float64             `json:"total_revenue"`
	ByStatus     map[OrderStatus]int `json:"by_status"`
}

func (s *OrderService) Stats(ctx context.Context, actor Identity) (OrderStats, error) {
	if !actor.IsAdmin() {
		return OrderStats{}, ErrUnauthorized
	}

	stats := OrderStats{ByStatus: make(map[OrderStatus]int)}
	page := 1
	for {
		orders, err := s.Orders.ListAll(ctx, "", page, 100)
		if err != nil {
			return OrderStats{}, err
		}
		if len(orders) == 0 {
			break
		}
		for _, o := range orders {
			stats.ByStatus[o.Status]++
			stats.TotalRevenue += o.TotalPrice
			stats.TotalOrders++
		}
		if len(orders) < 100 {
			break
		}
		page++
	}
	return stats, nil
}
