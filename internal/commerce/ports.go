package commerce

import (
	"context"
	"time"
)

// ProductInfo est la vue catalogue consommée par le coeur : prix et stock
// relus en direct, jamais fournis par le client.
type ProductInfo struct {
	ID    string
	Name  string
	Price float64
	Stock int
}

// CatalogStore est l'interface d'écriture/lecture vers le catalogue.
// DecrementStock doit être conditionnel et atomique côté stockage
// (décrémente seulement si le stock courant couvre la quantité).
type CatalogStore interface {
	GetProduct(ctx context.Context, productID string) (ProductInfo, error)
	DecrementStock(ctx context.Context, productID string, qty int) error
	IncrementStock(ctx context.Context, productID string, qty int) error
}

// CartLine est une ligne du document panier : référence produit + quantité,
// jamais de prix copié (le prix est relu au moment du calcul).
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartDocument est le document panier persisté, total recalculé compris.
type CartDocument struct {
	Items     []CartLine `json:"items"`
	Total     float64    `json:"total"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartStore persiste un document panier par utilisateur. Update exécute
// mutate dans une écriture conditionnelle (lecture-modification-écriture
// atomique) ; mutate peut être rejoué en cas de contention et doit rester
// pur vis-à-vis du document reçu.
type CartStore interface {
	Get(ctx context.Context, userID string) (CartDocument, error)
	Update(ctx context.Context, userID string, mutate func(CartDocument) (CartDocument, error)) (CartDocument, error)
	Clear(ctx context.Context, userID string) error
}

// OrderItem est une ligne de commande figée : le prix unitaire est celui
// du moment de l'achat et n'est jamais recalculé depuis le catalogue.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Order est l'instantané d'achat. Tout est immuable après création sauf
// Status, Version et UpdatedAt.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	UserName        string      `json:"user_name"`
	Items           []OrderItem `json:"items"`
	TotalPrice      float64     `json:"total_price"`
	ShippingAddress string      `json:"shipping_address"`
	PaymentMethod   string      `json:"payment_method"`
	Status          OrderStatus `json:"status"`
	Version         int         `json:"version"`
	IdempotencyKey  string      `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       *time.Time  `json:"updated_at,omitempty"`
}

// OrderStore persiste les commandes. CompareAndSetStatus conditionne
// l'écriture à la version attendue et retourne false si une autre
// transition est passée entre temps.
type OrderStore interface {
	Insert(ctx context.Context, o Order) error
	Get(ctx context.Context, orderID string) (Order, error)
	Delete(ctx context.Context, orderID string) error
	CompareAndSetStatus(ctx context.Context, orderID string, newStatus OrderStatus, expectedVersion int, now time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context, status OrderStatus, page, size int) ([]Order, error)
}

// IdempotencyStore mémorise la correspondance clé → commande pour
// dédupliquer les re-soumissions de checkout.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, key string) (orderID string, found bool, err error)
	Record(ctx context.Context, userID, key, orderID string) error
}

// Notifier reçoit les effets post-commit (email, indexation, audit).
// Les implémentations sont best-effort et ne bloquent jamais l'opération.
type Notifier interface {
	OrderPlaced(o Order)
	OrderStatusChanged(o Order, previous OrderStatus)
}
