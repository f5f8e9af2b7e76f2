package commerce

import (
	"context"
	"errors"
	"log"
	"time"
)

// CartView est la projection renvoyée au client : lignes enrichies avec
// nom et prix courants du catalogue. Le total d'un panier est un aperçu,
// seul l'instantané de commande est un engagement.
type CartView struct {
	Items []CartViewItem `json:"items"`
	Total float64        `json:"total"`
	Count int            `json:"count"`
}

type CartViewItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

// CartService implémente l'agrégat panier : un document par utilisateur,
// total recalculé depuis le catalogue à chaque mutation et persisté dans
// la même écriture que les lignes.
type CartService struct {
	Catalog CatalogStore
	Carts   CartStore
}

func NewCartService(catalog CatalogStore, carts CartStore) *CartService {
	return &CartService{Catalog: catalog, Carts: carts}
}

// AddItem incrémente la ligne existante ou en insère une nouvelle.
// La quantité cumulée est plafonnée par le stock courant.
func (s *CartService) AddItem(ctx context.Context, id Identity, productID string, qty int) (CartView, error) {
	if qty < 1 {
		return CartView{}, ErrInvalidQuantity
	}

	product, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return CartView{}, err
	}

	doc, err := s.Carts.Update(ctx, id.UserID, func(doc CartDocument) (CartDocument, error) {
		found := false
		for i := range doc.Items {
			if doc.Items[i].ProductID == productID {
				newQty := doc.Items[i].Quantity + qty
				if newQty > product.Stock {
					return doc, &InsufficientStockError{ProductIDs: []string{productID}}
				}
				doc.Items[i].Quantity = newQty
				found = true
				break
			}
		}
		if !found {
			if qty > product.Stock {
				return doc, &InsufficientStockError{ProductIDs: []string{productID}}
			}
			doc.Items = append(doc.Items, CartLine{ProductID: productID, Quantity: qty})
		}
		return s.recompute(ctx, doc)
	})
	if err != nil {
		return CartView{}, err
	}

	return s.view(ctx, doc)
}

// RemoveItem supprime la ligne. L'absence de la ligne est une erreur :
// elle révèle une désynchronisation client/serveur.
func (s *CartService) RemoveItem(ctx context.Context, id Identity, productID string) (CartView, error) {
	doc, err := s.Carts.Update(ctx, id.UserID, func(doc CartDocument) (CartDocument, error) {
		kept := doc.Items[:0:0]
		found := false
		for _, line := range doc.Items {
			if line.ProductID == productID {
				found = true
				continue
			}
			kept = append(kept, line)
		}
		if !found {
			return doc, ErrNotFound
		}
		doc.Items = kept
		return s.recompute(ctx, doc)
	})
	if err != nil {
		return CartView{}, err
	}

	return s.view(ctx, doc)
}

// SetQuantity remplace la quantité d'une ligne. qty = 0 équivaut à une
// suppression, qty < 0 est rejeté avant tout accès au stockage.
func (s *CartService) SetQuantity(ctx context.Context, id Identity, productID string, qty int) (CartView, error) {
	if qty < 0 {
		return CartView{}, ErrInvalidQuantity
	}
	if qty == 0 {
		return s.RemoveItem(ctx, id, productID)
	}

	product, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	if qty > product.Stock {
		return CartView{}, &InsufficientStockError{ProductIDs: []string{productID}}
	}

	doc, err := s.Carts.Update(ctx, id.UserID, func(doc CartDocument) (CartDocument, error) {
		found := false
		for i := range doc.Items {
			if doc.Items[i].ProductID == productID {
				doc.Items[i].Quantity = qty
				found = true
				break
			}
		}
		if !found {
			return doc, ErrNotFound
		}
		return s.recompute(ctx, doc)
	})
	if err != nil {
		return CartView{}, err
	}

	return s.view(ctx, doc)
}

// Get retourne le panier courant sans effet de bord.
func (s *CartService) Get(ctx context.Context, id Identity) (CartView, error) {
	doc, err := s.Carts.Get(ctx, id.UserID)
	if err != nil {
		return CartView{}, err
	}
	return s.view(ctx, doc)
}

// recompute rétablit l'invariant total = Σ quantité × prix courant.
// Les lignes dont le produit a disparu du catalogue sont retirées.
func (s *CartService) recompute(ctx context.Context, doc CartDocument) (CartDocument, error) {
	kept := doc.Items[:0:0]
	total := 0.0
	for _, line := range doc.Items {
		product, err := s.Catalog.GetProduct(ctx, line.ProductID)
		if errors.Is(err, ErrProductNotFound) {
			log.Printf("⚠️ Produit %s retiré du catalogue, ligne supprimée du panier", line.ProductID)
			continue
		}
		if err != nil {
			return doc, err
		}
		total += product.Price * float64(line.Quantity)
		kept = append(kept, line)
	}
	doc.Items = kept
	doc.Total = total
	doc.UpdatedAt = time.Now()
	return doc, nil
}

func (s *CartService) view(ctx context.Context, doc CartDocument) (CartView, error) {
	view := CartView{Items: []CartViewItem{}}
	for _, line := range doc.Items {
		product, err := s.Catalog.GetProduct(ctx, line.ProductID)
		if errors.Is(err, ErrProductNotFound) {
			continue
		}
		if err != nil {
			return CartView{}, err
		}
		view.Items = append(view.Items, CartViewItem{
			ProductID: line.ProductID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  line.Quantity,
			LineTotal: product.Price * float64(line.Quantity),
		})
		view.Total += product.Price * float64(line.Quantity)
	}
	view.Count = len(view.Items)
	return view, nil
}
