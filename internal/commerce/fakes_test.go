package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"
)

// Fakes en mémoire pour exercer le coeur sans ScyllaDB ni Redis. Les
// opérations de stock sont atomiques sous mutex, comme les écritures
// conditionnelles qu'elles remplacent.

type memCatalog struct {
	mu       sync.Mutex
	products map[string]ProductInfo
}

func newMemCatalog(products ...ProductInfo) *memCatalog {
	c := &memCatalog{products: make(map[string]ProductInfo)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *memCatalog) GetProduct(_ context.Context, productID string) (ProductInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return ProductInfo{}, ErrProductNotFound
	}
	return p, nil
}

func (c *memCatalog) DecrementStock(_ context.Context, productID string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	if p.Stock < qty {
		return &InsufficientStockError{ProductIDs: []string{productID}}
	}
	p.Stock -= qty
	c.products[productID] = p
	return nil
}

func (c *memCatalog) IncrementStock(_ context.Context, productID string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock += qty
	c.products[productID] = p
	return nil
}

func (c *memCatalog) stock(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products[productID].Stock
}

func (c *memCatalog) setPrice(productID string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.products[productID]
	p.Price = price
	c.products[productID] = p
}

// memCarts sérialise les documents en JSON, comme le store Redis, pour
// éviter tout partage de slice entre le document stocké et le mutateur.
type memCarts struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemCarts() *memCarts {
	return &memCarts{docs: make(map[string][]byte)}
}

func (s *memCarts) Get(_ context.Context, userID string) (CartDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decode(userID)
}

func (s *memCarts) Update(_ context.Context, userID string, mutate func(CartDocument) (CartDocument, error)) (CartDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.decode(userID)
	if err != nil {
		return CartDocument{}, err
	}
	doc, err = mutate(doc)
	if err != nil {
		return CartDocument{}, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return CartDocument{}, err
	}
	s.docs[userID] = raw
	return doc, nil
}

func (s *memCarts) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, _ := json.Marshal(CartDocument{Items: []CartLine{}})
	s.docs[userID] = raw
	return nil
}

func (s *memCarts) decode(userID string) (CartDocument, error) {
	raw, ok := s.docs[userID]
	if !ok {
		return CartDocument{Items: []CartLine{}}, nil
	}
	var doc CartDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return CartDocument{}, err
	}
	return doc, nil
}

type memOrders struct {
	mu         sync.Mutex
	orders     map[string]Order
	failInsert error
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]Order)}
}

func (s *memOrders) Insert(_ context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return s.failInsert
	}
	s.orders[o.ID] = o
	return nil
}

func (s *memOrders) Get(_ context.Context, orderID string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (s *memOrders) Delete(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, orderID)
	return nil
}

func (s *memOrders) CompareAndSetStatus(_ context.Context, orderID string, newStatus OrderStatus, expectedVersion int, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return false, ErrOrderNotFound
	}
	if o.Version != expectedVersion {
		return false, nil
	}
	o.Status = newStatus
	o.Version++
	o.UpdatedAt = &now
	s.orders[orderID] = o
	return true, nil
}

func (s *memOrders) ListByUser(_ context.Context, userID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memOrders) ListAll(_ context.Context, status OrderStatus, page, size int) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Order
	for _, o := range s.orders {
		if status != "" && o.Status != status {
			continue
		}
		all = append(all, o)
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

func (s *memOrders) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type memIdem struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{keys: make(map[string]string)}
}

func (s *memIdem) Lookup(_ context.Context, userID, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orderID, ok := s.keys[userID+":"+key]
	return orderID, ok, nil
}

func (s *memIdem) Record(_ context.Context, userID, key, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[userID+":"+key] = orderID
	return nil
}

var errInsertBoom = errors.New("insertion impossible")
