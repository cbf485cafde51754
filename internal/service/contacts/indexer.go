package contacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/contactkeeper/contacts_api/internal/models"
)

// Indexer maintains the contact documents in Elasticsearch. Documents are
// keyed by contact id and carry user_id so searches stay owner-scoped.
type Indexer struct {
	ES   *elasticsearch.Client
	Name string
}

func NewIndexer(es *elasticsearch.Client, name string) *Indexer {
	return &Indexer{ES: es, Name: name}
}

func (i *Indexer) Put(ctx context.Context, contact *models.Contact) error {
	body, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("index contact: %w", err)
	}

	res, err := i.ES.Index(
		i.Name,
		bytes.NewReader(body),
		i.ES.Index.WithDocumentID(strconv.FormatUint(uint64(contact.ID), 10)),
		i.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index contact: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index contact: %s", res.Status())
	}
	return nil
}

func (i *Indexer) Remove(ctx context.Context, contactID uint) error {
	res, err := i.ES.Delete(
		i.Name,
		strconv.FormatUint(uint64(contactID), 10),
		i.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("deindex contact: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("deindex contact: %s", res.Status())
	}
	return nil
}

func (i *Indexer) Search(ctx context.Context, userID uint, query string, from, size int) (int64, []models.Contact, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     query,
						"fields":    []string{"name^2", "last_name^2", "email", "additional_info"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"user_id": userID},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search contacts: %w", err)
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Name),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search contacts: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search contacts: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Contact `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search contacts: %w", err)
	}

	found := make([]models.Contact, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		found[n] = hit.Source
	}
	return r.Hits.Total.Value, found, nil
}
