package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"careplus/internal/common/logger"
	"careplus/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type fakeES struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, capturedRequest{r.Method, r.URL.Path, r.URL.RawQuery, string(b)})
	status, body := f.status, f.body
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeES) last() capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeES) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestIndex(t *testing.T, status int, body string) (*Index, *fakeES) {
	t.Helper()
	fake := &fakeES{status: status, body: body}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewIndex(client, "", logger.NewTestLogger(t)), fake
}

// ==========================
// Search Tests
// ==========================

func TestSearch_ParsesHits(t *testing.T) {
	idx, fake := newTestIndex(t, http.StatusOK, `{
		"hits": {"total": {"value": 2}, "hits": [
			{"_id": "1", "_source": {"id": 1, "name": "Ama Mensah", "diabetes_type": "T2D"}},
			{"_id": "4", "_source": {"id": 4, "name": "Amara Osei", "diabetes_type": "T1D"}}
		]}
	}`)

	patients, err := idx.Search(context.Background(), "ama")
	require.NoError(t, err)
	require.Len(t, patients, 2)
	assert.Equal(t, "Ama Mensah", patients[0].Name)
	assert.Equal(t, int64(4), patients[1].ID)

	req := fake.last()
	assert.Equal(t, "/patients/_search", req.Path)
	assert.Contains(t, req.Query, "size=50")

	var q map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &q))
	assert.Equal(t, "ama", q["query"].(map[string]interface{})["match_phrase_prefix"].(map[string]interface{})["name"].(map[string]interface{})["query"])
}

func TestSearch_NoHits(t *testing.T) {
	idx, _ := newTestIndex(t, http.StatusOK, `{"hits":{"hits":[]}}`)

	patients, err := idx.Search(context.Background(), "zz")
	require.NoError(t, err)
	assert.NotNil(t, patients)
	assert.Empty(t, patients)
}

func TestSearch_ErrorStatus(t *testing.T) {
	idx, _ := newTestIndex(t, http.StatusInternalServerError, `{"error":"boom"}`)

	_, err := idx.Search(context.Background(), "ama")
	assert.ErrorIs(t, err, ErrSearchQueryFailed)
}

// ==========================
// Indexing Tests
// ==========================

func TestPut(t *testing.T) {
	idx, fake := newTestIndex(t, http.StatusCreated, `{"result":"created"}`)

	err := idx.Put(context.Background(), models.Patient{ID: 7, Name: "Kwame Asare", DiabetesType: models.DiabetesTypeT1D})
	require.NoError(t, err)

	req := fake.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/patients/_doc/7", req.Path)
	assert.Contains(t, req.Query, "refresh=true")
	assert.Contains(t, req.Body, `"name":"Kwame Asare"`)
}

func TestPutAll_StopsOnError(t *testing.T) {
	idx, fake := newTestIndex(t, http.StatusBadRequest, `{"error":"mapper_parsing_exception"}`)

	err := idx.PutAll(context.Background(), []models.Patient{{ID: 1}, {ID: 2}})
	assert.ErrorIs(t, err, ErrIndexFailed)
	assert.Equal(t, 1, fake.count())
}

func TestRemove(t *testing.T) {
	idx, fake := newTestIndex(t, http.StatusOK, `{"result":"deleted"}`)
	require.NoError(t, idx.Remove(context.Background(), 3))
	assert.Equal(t, http.MethodDelete, fake.last().Method)
	assert.Equal(t, "/patients/_doc/3", fake.last().Path)
}

func TestRemove_MissingDocumentIsFine(t *testing.T) {
	idx, _ := newTestIndex(t, http.StatusNotFound, `{"result":"not_found"}`)
	assert.NoError(t, idx.Remove(context.Background(), 3))
}

func TestRemove_ServerError(t *testing.T) {
	idx, _ := newTestIndex(t, http.StatusServiceUnavailable, `{}`)
	assert.ErrorIs(t, idx.Remove(context.Background(), 3), ErrIndexFailed)
}
