package commerce

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = Identity{UserID: "root", Email: "admin@example.com", Name: "Admin", Role: "admin"}

func newOrderFixture(t *testing.T, status OrderStatus) (*OrderService, *memCatalog, *memOrders, Order) {
	t.Helper()

	catalog := newMemCatalog(ProductInfo{ID: "dress-1", Name: "Robe d'été", Price: 120.00, Stock: 4})
	orders := newMemOrders()
	svc := NewOrderService(catalog, orders)

	order := Order{
		ID:         "ord-1",
		UserID:     "alice",
		UserName:   "Alice",
		Items:      []OrderItem{{ProductID: "dress-1", Name: "Robe d'été", Quantity: 1, UnitPrice: 120.00}},
		TotalPrice: 120.00,
		Status:     status,
		Version:    1,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, orders.Insert(context.Background(), order))
	return svc, catalog, orders, order
}

func TestSetStatusRequiresAdmin(t *testing.T) {
	svc, _, orders, order := newOrderFixture(t, StatusPending)

	// Le client propriétaire lit le statut, il ne l'écrit jamais.
	_, err := svc.SetStatus(context.Background(), alice, order.ID, StatusShipped, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)

	stored, _ := orders.Get(context.Background(), order.ID)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestSetStatusPendingToShipped(t *testing.T) {
	svc, _, _, order := newOrderFixture(t, StatusPending)

	updated, err := svc.SetStatus(context.Background(), admin, order.ID, StatusShipped, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.Status)
	assert.Equal(t, 2, updated.Version)
	assert.NotNil(t, updated.UpdatedAt)
}

func TestSetStatusInvalidTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
	}{
		{StatusDelivered, StatusShipped},
		{StatusDelivered, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusPending, StatusDelivered},
		{StatusPending, StatusPending},
		{StatusShipped, StatusShipped},
	}

	for _, tc := range cases {
		svc, _, orders, order := newOrderFixture(t, tc.from)

		_, err := svc.SetStatus(context.Background(), admin, order.ID, tc.to, 1)
		assert.ErrorIsf(t, err, ErrInvalidTransition, "%s → %s", tc.from, tc.to)

		// Aucune mutation sur rejet.
		stored, _ := orders.Get(context.Background(), order.ID)
		assert.Equal(t, tc.from, stored.Status)
		assert.Equal(t, 1, stored.Version)
	}
}

func TestSetStatusUnknownStatus(t *testing.T) {
	svc, _, _, order := newOrderFixture(t, StatusPending)

	_, err := svc.SetStatus(context.Background(), admin, order.ID, OrderStatus("paid"), 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSetStatusUnknownOrder(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t, StatusPending)

	_, err := svc.SetStatus(context.Background(), admin, "ord-404", StatusShipped, 1)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSetStatusVersionConflict(t *testing.T) {
	svc, _, orders, order := newOrderFixture(t, StatusPending)
	ctx := context.Background()

	// Un autre admin est passé avant : la version attendue ne correspond
	// plus, on refuse au lieu d'écraser.
	_, err := svc.SetStatus(ctx, admin, order.ID, StatusShipped, 1)
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, admin, order.ID, StatusCancelled, 1)
	assert.ErrorIs(t, err, ErrConflict)

	stored, _ := orders.Get(ctx, order.ID)
	assert.Equal(t, StatusShipped, stored.Status)
}

func TestSetStatusCancelledRestocks(t *testing.T) {
	svc, catalog, _, order := newOrderFixture(t, StatusShipped)

	updated, err := svc.SetStatus(context.Background(), admin, order.ID, StatusCancelled, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)

	// Les quantités annulées retournent en stock : 4 + 1.
	assert.Equal(t, 5, catalog.stock("dress-1"))
}

func TestSetStatusCancelledFromPendingRestocks(t *testing.T) {
	svc, catalog, _, order := newOrderFixture(t, StatusPending)

	_, err := svc.SetStatus(context.Background(), admin, order.ID, StatusCancelled, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, catalog.stock("dress-1"))
}

func TestGetOrderScoping(t *testing.T) {
	svc, _, _, order := newOrderFixture(t, StatusPending)
	ctx := context.Background()

	got, err := svc.GetOrder(ctx, alice, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	bob := Identity{UserID: "bob", Role: "customer"}
	_, err = svc.GetOrder(ctx, bob, order.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.GetOrder(ctx, admin, order.ID)
	assert.NoError(t, err)
}

func TestListOrdersForUser(t *testing.T) {
	svc, _, orders, _ := newOrderFixture(t, StatusPending)
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, orders.Insert(ctx, Order{ID: "ord-2", UserID: "alice", Status: StatusPending, Version: 1, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, orders.Insert(ctx, Order{ID: "ord-3", UserID: "bob", Status: StatusPending, Version: 1, CreatedAt: base}))

	list, err := svc.ListOrdersForUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Tri par date décroissante, commandes des autres exclues.
	assert.Equal(t, "ord-2", list[0].ID)
	assert.Equal(t, "ord-1", list[1].ID)
}

func TestListAllOrders(t *testing.T) {
	svc, _, orders, _ := newOrderFixture(t, StatusPending)
	ctx := context.Background()

	base := time.Now()
	for i, st := range []OrderStatus{StatusShipped, StatusShipped, StatusDelivered} {
		require.NoError(t, orders.Insert(ctx, Order{
			ID:        "ord-x" + string(rune('a'+i)),
			UserID:    "bob",
			Status:    st,
			Version:   1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	_, err := svc.ListAllOrders(ctx, alice, "", 1, 10)
	assert.ErrorIs(t, err, ErrUnauthorized)

	all, err := svc.ListAllOrders(ctx, admin, "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	shipped, err := svc.ListAllOrders(ctx, admin, StatusShipped, 1, 10)
	require.NoError(t, err)
	assert.Len(t, shipped, 2)

	_, err = svc.ListAllOrders(ctx, admin, OrderStatus("paid"), 1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	paged, err := svc.ListAllOrders(ctx, admin, "", 1, 2)
	require.NoError(t, err)
	assert.Len(t, paged, 2)
	rest, err := svc.ListAllOrders(ctx, admin, "", 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestOrderStats(t *testing.T) {
	svc, _, orders, _ := newOrderFixture(t, StatusPending)
	ctx := context.Background()

	require.NoError(t, orders.Insert(ctx, Order{ID: "ord-2", UserID: "bob", Status: StatusShipped, Version: 1, TotalPrice: 80, CreatedAt: time.Now()}))

	_, err := svc.Stats(ctx, alice)
	assert.ErrorIs(t, err, ErrUnauthorized)

	stats, err := svc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.InDelta(t, 200.00, stats.TotalRevenue, 1e-9)
	assert.Equal(t, 1, stats.ByStatus[StatusPending])
	assert.Equal(t, 1, stats.ByStatus[StatusShipped])
}
