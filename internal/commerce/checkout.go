package commerce

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
)

// PaymentMethods autorisés. Le moyen de paiement est une étiquette portée
// par la commande, pas une intégration de passerelle.
var PaymentMethods = map[string]bool{
	"cod":    true,
	"card":   true,
	"paypal": true,
}

// PlaceOrderInput est validé à la frontière avant d'atteindre le coeur.
type PlaceOrderInput struct {
	ShippingAddress string
	PaymentMethod   string
	IdempotencyKey  string
}

// CheckoutService est le script de transaction qui convertit un panier en
// commande. ScyllaDB n'offre pas de transaction multi-table : l'exécution
// est une saga dont chaque étape déclare sa compensation avant de courir.
type CheckoutService struct {
	Catalog  CatalogStore
	Carts    CartStore
	Orders   OrderStore
	Idem     IdempotencyStore
	Notifier Notifier

	now func() time.Time
}

func NewCheckoutService(catalog CatalogStore, carts CartStore, orders OrderStore, idem IdempotencyStore) *CheckoutService {
	return &CheckoutService{
		Catalog: catalog,
		Carts:   carts,
		Orders:  orders,
		Idem:    idem,
		now:     time.Now,
	}
}

type sagaStep struct {
	name string
	run  func(ctx context.Context) error
	undo func(ctx context.Context)
}

// PlaceOrder exécute le checkout :
//  1. rejoue la commande existante si la clé d'idempotence est connue ;
//  2. relit panier et catalogue (jamais de prix fourni par le client) ;
//  3. réserve le stock par écritures conditionnelles, insère la commande
//     figée, vide le panier — tout ou rien via compensations.
func (s *CheckoutService) PlaceOrder(ctx context.Context, id Identity, in PlaceOrderInput) (Order, error) {
	if err := validatePlaceOrder(in); err != nil {
		return Order{}, err
	}

	// Rejeu : une clé déjà vue retourne la commande d'origine, jamais un doublon.
	if orderID, found, err := s.Idem.Lookup(ctx, id.UserID, in.IdempotencyKey); err == nil && found {
		existing, err := s.Orders.Get(ctx, orderID)
		if err == nil {
			log.Printf("🔁 Checkout rejoué pour %s (clé %s), commande %s", id.UserID, in.IdempotencyKey, orderID)
			return existing, nil
		}
	}

	cart, err := s.Carts.Get(ctx, id.UserID)
	if err != nil {
		return Order{}, err
	}
	if len(cart.Items) == 0 {
		return Order{}, ErrEmptyCart
	}

	order, err := s.freeze(ctx, id, cart, in)
	if err != nil {
		return Order{}, err
	}

	// Réservation suivie ligne par ligne : seules les décrémentations
	// réellement appliquées sont relâchées en compensation.
	var reserved []OrderItem
	release := func(ctx context.Context) {
		for _, item := range reserved {
			if err := s.Catalog.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				log.Printf("❌ Défaut: restock de compensation échoué pour %s (+%d): %v", item.ProductID, item.Quantity, err)
			}
		}
	}

	steps := []sagaStep{
		{
			name: "réservation stock",
			run: func(ctx context.Context) error {
				for _, item := range order.Items {
					if err := s.Catalog.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
						return err
					}
					reserved = append(reserved, item)
				}
				return nil
			},
			undo: release,
		},
		{
			name: "insertion commande",
			run: func(ctx context.Context) error {
				return s.Orders.Insert(ctx, order)
			},
			undo: func(ctx context.Context) {
				if err := s.Orders.Delete(ctx, order.ID); err != nil {
					log.Printf("❌ Défaut: suppression de compensation échouée pour la commande %s: %v", order.ID, err)
				}
			},
		},
		{
			name: "vidage panier",
			run: func(ctx context.Context) error {
				return s.Carts.Clear(ctx, id.UserID)
			},
			// Dernière étape : rien à défaire pour elle-même.
			undo: func(context.Context) {},
		},
	}

	for i, step := range steps {
		if err := step.run(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				steps[j].undo(ctx)
			}
			return Order{}, fmt.Errorf("checkout annulé à l'étape %q: %w", step.name, err)
		}
	}

	// Post-commit, best-effort : la commande existe déjà, on ne la défait plus.
	if err := s.Idem.Record(ctx, id.UserID, in.IdempotencyKey, order.ID); err != nil {
		log.Printf("⚠️ Enregistrement clé d'idempotence échoué pour %s: %v", order.ID, err)
	}
	if s.Notifier != nil {
		s.Notifier.OrderPlaced(order)
	}

	log.Printf("✅ Commande %s créée pour %s (%.2f€, %d articles)", order.ID, id.UserID, order.TotalPrice, len(order.Items))
	return order, nil
}

// freeze relit chaque ligne contre le catalogue, vérifie le stock et fige
// l'instantané (prix du moment de l'achat). Les défauts de stock sont
// collectés pour nommer tous les produits fautifs d'un coup.
func (s *CheckoutService) freeze(ctx context.Context, id Identity, cart CartDocument, in PlaceOrderInput) (Order, error) {
	var (
		items    []OrderItem
		total    float64
		shortage []string
	)

	for _, line := range cart.Items {
		if line.Quantity < 1 {
			// Un document panier ne peut pas contenir de quantité nulle ou
			// négative : c'est un état corrompu, on échoue fermé.
			log.Printf("❌ Défaut: quantité %d pour %s dans le panier de %s", line.Quantity, line.ProductID, id.UserID)
			return Order{}, fmt.Errorf("ligne de panier corrompue (%s): %w", line.ProductID, ErrInvariant)
		}

		product, err := s.Catalog.GetProduct(ctx, line.ProductID)
		if errors.Is(err, ErrProductNotFound) {
			return Order{}, fmt.Errorf("produit %s: %w", line.ProductID, ErrProductNotFound)
		}
		if err != nil {
			return Order{}, err
		}

		if product.Stock < line.Quantity {
			shortage = append(shortage, line.ProductID)
			continue
		}

		items = append(items, OrderItem{
			ProductID: line.ProductID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		total += product.Price * float64(line.Quantity)
	}

	if len(shortage) > 0 {
		return Order{}, &InsufficientStockError{ProductIDs: shortage}
	}

	order := Order{
		ID:              uuid.New().String(),
		UserID:          id.UserID,
		UserName:        id.Name,
		Items:           items,
		TotalPrice:      total,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          StatusPending,
		Version:         1,
		IdempotencyKey:  in.IdempotencyKey,
		CreatedAt:       s.now(),
	}

	// Contrôle d'invariant avant insertion : le total figé doit concorder
	// avec la somme des lignes figées.
	var check float64
	for _, item := range order.Items {
		check += item.UnitPrice * float64(item.Quantity)
	}
	if math.Abs(check-order.TotalPrice) > 1e-9 {
		log.Printf("❌ Défaut: total %.2f ≠ somme des lignes %.2f pour %s", order.TotalPrice, check, id.UserID)
		return Order{}, fmt.Errorf("total de commande incohérent: %w", ErrInvariant)
	}

	return order, nil
}

func validatePlaceOrder(in PlaceOrderInput) error {
	if in.ShippingAddress == "" {
		return &ValidationError{Field: "shipping_address", Reason: "adresse requise"}
	}
	if !PaymentMethods[in.PaymentMethod] {
		return &ValidationError{Field: "payment_method", Reason: "moyen de paiement inconnu"}
	}
	if in.IdempotencyKey == "" {
		return &ValidationError{Field: "idempotency_key", Reason: "clé requise"}
	}
	return nil
}
