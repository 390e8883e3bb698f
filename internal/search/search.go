// Package search keeps a patient-name index in Elasticsearch for the
// dashboard search box.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"careplus/internal/common/logger"
	"careplus/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	DefaultIndex = "patients"
	maxResults   = 50
)

var (
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrIndexFailed       = errors.New("INDEX_FAILED")
)

type Index struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndex(client *elasticsearch.Client, index string, log logger.Logger) *Index {
	if index == "" {
		index = DefaultIndex
	}
	return &Index{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search", "index": index}),
	}
}

// Put indexes or replaces the patient document.
func (i *Index) Put(ctx context.Context, p models.Patient) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: strconv.FormatInt(p.ID, 10),
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.String())
	}
	return nil
}

// PutAll indexes every patient, stopping at the first failure.
func (i *Index) PutAll(ctx context.Context, patients []models.Patient) error {
	for _, p := range patients {
		if err := i.Put(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the patient document. A missing document is not an error.
func (i *Index) Remove(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{
		Index:      i.index,
		DocumentID: strconv.FormatInt(id, 10),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Patient `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns patients whose name starts with the words of q, best
// match first.
func (i *Index) Search(ctx context.Context, q string) ([]models.Patient, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"match_phrase_prefix": map[string]interface{}{
				"name": map[string]interface{}{"query": q},
			},
		},
	}
	body, _ := json.Marshal(query)

	size := maxResults
	req := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrSearchQueryFailed, err)
	}

	patients := make([]models.Patient, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		patients = append(patients, h.Source)
	}

	i.logger.Debug("patient search", map[string]interface{}{"query": q, "hits": len(patients)})
	return patients, nil
}
