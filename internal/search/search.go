package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/freshmart/storefront/internal/models"
)

func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.SKU, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.SKU `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	skus := make([]models.SKU, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		skus[i] = hit.Source
	}
	return r.Hits.Total.Value, skus, nil
}

// IndexSKU upserts the SKU document so catalog writes stay searchable.
func IndexSKU(ctx context.Context, es *elasticsearch.Client, index string, sku *models.SKU) error {
	data, err := json.Marshal(sku)
	if err != nil {
		return err
	}

	res, err := es.Index(index, strings.NewReader(string(data)),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(sku.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index sku: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index sku: %s", res.Status())
	}
	return nil
}

func DeleteSKU(ctx context.Context, es *elasticsearch.Client, index string, skuID uuid.UUID) error {
	res, err := es.Delete(index, skuID.String(), es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete sku: %w", err)
	}
	defer res.Body.Close()

	// 404 from the index is fine, the document is already gone.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete sku: %s", res.Status())
	}
	return nil
}
