package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"velora_back_end/internal/commerce"
	"velora_back_end/internal/database"
)

const ordersIndex = "orders"

//
// --- INDEXATION DANS ELASTICSEARCH ---
//

// IndexOrder indexe une commande (création ou changement de statut) pour
// la vue admin. Best-effort : la commande est déjà en base, une panne
// d'indexation ne doit jamais faire échouer le checkout.
func IndexOrder(o commerce.Order) {
	if database.Elastic == nil {
		log.Println("⚠️ Elastic non initialisé, impossible d'indexer la commande", o.ID)
		return
	}

	data, _ := json.Marshal(o)
	req := esapi.IndexRequest{
		Index:      ordersIndex,
		DocumentID: o.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour la commande %s: %s", o.ID, res.String())
	}
}

//
// --- RECHERCHE DANS ELASTICSEARCH ---
//

// Available indique si la vue admin peut passer par l'index ; sinon elle
// retombe sur le parcours ScyllaDB.
func Available() bool { return database.Elastic != nil }

// SearchOrders retourne la page demandée, filtrée par statut si fourni,
// triée par date de création décroissante.
func SearchOrders(ctx context.Context, status commerce.OrderStatus, page, size int) ([]commerce.Order, error) {
	if database.Elastic == nil {
		return nil, fmt.Errorf("client Elasticsearch non initialisé")
	}

	query := map[string]any{"match_all": map[string]any{}}
	if status != "" {
		query = map[string]any{
			"term": map[string]any{"status.keyword": string(status)},
		}
	}

	body := map[string]any{
		"query": query,
		"sort":  []map[string]any{{"created_at": map[string]any{"order": "desc"}}},
		"from":  (page - 1) * size,
		"size":  size,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{ordersIndex},
		Body:  bytes.NewReader(raw),
	}

	res, err := req.Do(ctx, database.Elastic)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("recherche commandes: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source commerce.Order `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	orders := make([]commerce.Order, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		orders = append(orders, hit.Source)
	}
	return orders, nil
}
