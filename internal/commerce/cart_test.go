package commerce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = Identity{UserID: "alice", Email: "alice@example.com", Name: "Alice", Role: "customer"}

func newCartFixture() (*CartService, *memCatalog, *memCarts) {
	catalog := newMemCatalog(
		ProductInfo{ID: "dress-1", Name: "Robe d'été", Price: 120.00, Stock: 5},
		ProductInfo{ID: "hat-1", Name: "Chapeau", Price: 25.50, Stock: 3},
	)
	carts := newMemCarts()
	return NewCartService(catalog, carts), catalog, carts
}

func TestCartAddItem(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	view, err := svc.AddItem(ctx, alice, "dress-1", 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.InDelta(t, 240.00, view.Total, 1e-9)

	// Un nouvel ajout du même produit fusionne la ligne.
	view, err = svc.AddItem(ctx, alice, "dress-1", 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.InDelta(t, 360.00, view.Total, 1e-9)

	view, err = svc.AddItem(ctx, alice, "hat-1", 1)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.InDelta(t, 385.50, view.Total, 1e-9)
}

func TestCartAddItemUnknownProduct(t *testing.T) {
	svc, _, _ := newCartFixture()

	_, err := svc.AddItem(context.Background(), alice, "ghost-1", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartAddItemInvalidQuantity(t *testing.T) {
	svc, _, _ := newCartFixture()

	_, err := svc.AddItem(context.Background(), alice, "dress-1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(context.Background(), alice, "dress-1", -2)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartAddItemBeyondStock(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, "hat-1", 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// La limite s'applique aussi à la quantité cumulée.
	_, err = svc.AddItem(ctx, alice, "hat-1", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, alice, "hat-1", 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCartRemoveItem(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, "dress-1", 1)
	require.NoError(t, err)

	view, err := svc.RemoveItem(ctx, alice, "dress-1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Total)
}

func TestCartRemoveMissingItemFails(t *testing.T) {
	svc, _, _ := newCartFixture()

	// L'absence de la ligne révèle une désynchronisation client/serveur,
	// pas un no-op acceptable.
	_, err := svc.RemoveItem(context.Background(), alice, "dress-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartSetQuantity(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, "dress-1", 1)
	require.NoError(t, err)

	view, err := svc.SetQuantity(ctx, alice, "dress-1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)
	assert.InDelta(t, 480.00, view.Total, 1e-9)

	// qty = 0 équivaut à une suppression.
	view, err = svc.SetQuantity(ctx, alice, "dress-1", 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = svc.SetQuantity(ctx, alice, "dress-1", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartSetQuantityMissingLine(t *testing.T) {
	svc, _, _ := newCartFixture()

	_, err := svc.SetQuantity(context.Background(), alice, "dress-1", 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartTotalFollowsCatalogPrice(t *testing.T) {
	svc, catalog, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, "dress-1", 2)
	require.NoError(t, err)

	// Le total du panier est un aperçu : un changement de prix catalogue
	// se reflète à la prochaine lecture et à la prochaine mutation.
	catalog.setPrice("dress-1", 99.00)

	view, err := svc.Get(ctx, alice)
	require.NoError(t, err)
	assert.InDelta(t, 198.00, view.Total, 1e-9)

	view, err = svc.AddItem(ctx, alice, "hat-1", 1)
	require.NoError(t, err)
	assert.InDelta(t, 223.50, view.Total, 1e-9)
}

func TestCartTotalInvariantAfterEveryMutation(t *testing.T) {
	svc, catalog, carts := newCartFixture()
	ctx := context.Background()

	mutations := []func() error{
		func() error { _, err := svc.AddItem(ctx, alice, "dress-1", 2); return err },
		func() error { _, err := svc.AddItem(ctx, alice, "hat-1", 1); return err },
		func() error { _, err := svc.SetQuantity(ctx, alice, "dress-1", 1); return err },
		func() error { _, err := svc.RemoveItem(ctx, alice, "hat-1"); return err },
	}

	for _, mutate := range mutations {
		require.NoError(t, mutate())

		doc, err := carts.Get(ctx, alice.UserID)
		require.NoError(t, err)

		expected := 0.0
		for _, line := range doc.Items {
			p, err := catalog.GetProduct(ctx, line.ProductID)
			require.NoError(t, err)
			expected += p.Price * float64(line.Quantity)
		}
		// Le total persisté doit toujours égaler Σ quantité × prix courant.
		assert.InDelta(t, expected, doc.Total, 1e-9)
	}
}

func TestCartDropsVanishedProduct(t *testing.T) {
	svc, catalog, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, "dress-1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, alice, "hat-1", 1)
	require.NoError(t, err)

	catalog.mu.Lock()
	delete(catalog.products, "hat-1")
	catalog.mu.Unlock()

	view, err := svc.SetQuantity(ctx, alice, "dress-1", 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "dress-1", view.Items[0].ProductID)
}
