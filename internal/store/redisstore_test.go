package store

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/commerce"
)

func newRedisFixture(t *testing.T) (*RedisCartStore, *RedisIdempotencyStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCartStore(client), NewRedisIdempotencyStore(client)
}

func TestRedisCartStoreGetEmpty(t *testing.T) {
	carts, _ := newRedisFixture(t)

	doc, err := carts.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, doc.Items)
	assert.Zero(t, doc.Total)
}

func TestRedisCartStoreUpdateRoundTrip(t *testing.T) {
	carts, _ := newRedisFixture(t)
	ctx := context.Background()

	doc, err := carts.Update(ctx, "alice", func(doc commerce.CartDocument) (commerce.CartDocument, error) {
		doc.Items = append(doc.Items, commerce.CartLine{ProductID: "dress-1", Quantity: 2})
		doc.Total = 240.00
		return doc, nil
	})
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)

	stored, err := carts.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, doc.Items, stored.Items)
	assert.InDelta(t, 240.00, stored.Total, 1e-9)
}

func TestRedisCartStoreUpdateMutateErrorLeavesDocument(t *testing.T) {
	carts, _ := newRedisFixture(t)
	ctx := context.Background()

	_, err := carts.Update(ctx, "alice", func(doc commerce.CartDocument) (commerce.CartDocument, error) {
		doc.Items = append(doc.Items, commerce.CartLine{ProductID: "dress-1", Quantity: 1})
		return doc, nil
	})
	require.NoError(t, err)

	_, err = carts.Update(ctx, "alice", func(doc commerce.CartDocument) (commerce.CartDocument, error) {
		return doc, commerce.ErrNotFound
	})
	require.ErrorIs(t, err, commerce.ErrNotFound)

	stored, err := carts.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)
}

func TestRedisCartStoreConcurrentUpdates(t *testing.T) {
	carts, _ := newRedisFixture(t)
	ctx := context.Background()

	// Deux onglets ajoutent des lignes différentes en parallèle : aucune
	// mutation ne doit se perdre malgré la contention sur la clé.
	products := []string{"p-1", "p-2", "p-3", "p-4", "p-5", "p-6", "p-7", "p-8"}
	var wg sync.WaitGroup
	errs := make(chan error, len(products))
	for _, pid := range products {
		wg.Add(1)
		go func(pid string) {
			defer wg.Done()
			_, err := carts.Update(ctx, "alice", func(doc commerce.CartDocument) (commerce.CartDocument, error) {
				doc.Items = append(doc.Items, commerce.CartLine{ProductID: pid, Quantity: 1})
				return doc, nil
			})
			errs <- err
		}(pid)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := carts.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, stored.Items, len(products))
}

func TestRedisCartStoreClear(t *testing.T) {
	carts, _ := newRedisFixture(t)
	ctx := context.Background()

	_, err := carts.Update(ctx, "alice", func(doc commerce.CartDocument) (commerce.CartDocument, error) {
		doc.Items = append(doc.Items, commerce.CartLine{ProductID: "dress-1", Quantity: 1})
		doc.Total = 120.00
		return doc, nil
	})
	require.NoError(t, err)

	require.NoError(t, carts.Clear(ctx, "alice"))

	// Vidé, pas supprimé : le document existe avec zéro ligne.
	stored, err := carts.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
	assert.Zero(t, stored.Total)
}

func TestRedisIdempotencyStore(t *testing.T) {
	_, idem := newRedisFixture(t)
	ctx := context.Background()

	_, found, err := idem.Lookup(ctx, "alice", "k-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, idem.Record(ctx, "alice", "k-1", "ord-1"))

	orderID, found, err := idem.Lookup(ctx, "alice", "k-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ord-1", orderID)

	// SETNX : la première association gagne.
	require.NoError(t, idem.Record(ctx, "alice", "k-1", "ord-2"))
	orderID, _, err = idem.Lookup(ctx, "alice", "k-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", orderID)

	// Les clés sont par utilisateur.
	_, found, err = idem.Lookup(ctx, "bob", "k-1")
	require.NoError(t, err)
	assert.False(t, found)
}
