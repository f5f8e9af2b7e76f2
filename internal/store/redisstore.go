package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"velora_back_end/internal/commerce"
)

const (
	// 30 jours, comme la durée de vie du panier côté client.
	CartTTL = 30 * 24 * time.Hour

	// Deux onglets qui éditent le même panier se disputent la clé : la
	// transaction WATCH échoue pour le perdant et on rejoue la mutation.
	cartUpdateRetries = 5
)

// RedisCartStore persiste un document panier JSON par utilisateur sous
// cart:<userID>, et publie chaque changement sur le canal du même nom pour
// la synchronisation temps réel.
type RedisCartStore struct {
	Client *redis.Client
}

func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{Client: client}
}

func cartKey(userID string) string { return "cart:" + userID }

func (s *RedisCartStore) Get(ctx context.Context, userID string) (commerce.CartDocument, error) {
	data, err := s.Client.Get(ctx, cartKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return emptyCart(), nil
	}
	if err != nil {
		return commerce.CartDocument{}, err
	}
	return decodeCart(data)
}

// Update exécute mutate dans une transaction optimiste : WATCH sur la clé,
// relecture, mutation, écriture conditionnelle. Deux mutations concurrentes
// ne peuvent pas s'entrelacer en une liste corrompue.
func (s *RedisCartStore) Update(ctx context.Context, userID string, mutate func(commerce.CartDocument) (commerce.CartDocument, error)) (commerce.CartDocument, error) {
	key := cartKey(userID)
	var out commerce.CartDocument

	txf := func(tx *redis.Tx) error {
		doc := emptyCart()
		data, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			if doc, err = decodeCart(data); err != nil {
				return err
			}
		}

		doc, err = mutate(doc)
		if err != nil {
			return err
		}

		raw, err := json.Marshal(doc)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, CartTTL)
			return nil
		})
		if err == nil {
			out = doc
		}
		return err
	}

	for attempt := 0; attempt < cartUpdateRetries; attempt++ {
		err := s.Client.Watch(ctx, txf, key)
		if err == nil {
			s.Client.Publish(ctx, key, "updated")
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return commerce.CartDocument{}, err
	}

	return commerce.CartDocument{}, fmt.Errorf("panier de %s trop contendu: %w", userID, commerce.ErrConflict)
}

// Clear vide le panier sans le supprimer : le document reste, items à zéro.
func (s *RedisCartStore) Clear(ctx context.Context, userID string) error {
	raw, err := json.Marshal(commerce.CartDocument{Items: []commerce.CartLine{}, UpdatedAt: time.Now()})
	if err != nil {
		return err
	}

	key := cartKey(userID)
	pipe := s.Client.Pipeline()
	pipe.Set(ctx, key, raw, CartTTL)
	pipe.Publish(ctx, key, "cleared")
	_, err = pipe.Exec(ctx)
	return err
}

func emptyCart() commerce.CartDocument {
	return commerce.CartDocument{Items: []commerce.CartLine{}}
}

func decodeCart(data string) (commerce.CartDocument, error) {
	var doc commerce.CartDocument
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return commerce.CartDocument{}, fmt.Errorf("erreur décodage panier: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []commerce.CartLine{}
	}
	return doc, nil
}

// RedisIdempotencyStore mémorise clé de checkout → id de commande. La
// durée de vie suit celle du panier dont la clé est dérivée.
type RedisIdempotencyStore struct {
	Client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{Client: client}
}

func idemKey(userID, key string) string {
	return fmt.Sprintf("idem:%s:%s", userID, key)
}

func (s *RedisIdempotencyStore) Lookup(ctx context.Context, userID, key string) (string, bool, error) {
	orderID, err := s.Client.Get(ctx, idemKey(userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return orderID, true, nil
}

func (s *RedisIdempotencyStore) Record(ctx context.Context, userID, key, orderID string) error {
	// SETNX : la première commande gagnante garde la clé, un rejeu ne
	// peut pas la détourner vers une autre commande.
	return s.Client.SetNX(ctx, idemKey(userID, key), orderID, CartTTL).Err()
}
