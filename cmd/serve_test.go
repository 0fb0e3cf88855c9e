package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neighborlens/neighborlens/internal/model"
	"github.com/neighborlens/neighborlens/internal/pipeline"
	"github.com/neighborlens/neighborlens/internal/store"
	"github.com/neighborlens/neighborlens/internal/vibe"
	"github.com/neighborlens/neighborlens/pkg/huggingface"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	neighborhoods map[string]*model.Neighborhood
	comparisons   map[string]model.SavedComparison
}

func newMemStore() *memStore {
	return &memStore{
		neighborhoods: make(map[string]*model.Neighborhood),
		comparisons:   make(map[string]model.SavedComparison),
	}
}

func (m *memStore) GetNeighborhood(_ context.Context, postalCode string) (*model.Neighborhood, error) {
	return m.neighborhoods[postalCode], nil
}

func (m *memStore) UpsertNeighborhood(_ context.Context, n *model.Neighborhood) (*model.Neighborhood, error) {
	saved := *n
	saved.ID = "mem-" + n.PostalCode
	m.neighborhoods[n.PostalCode] = &saved
	return &saved, nil
}

func (m *memStore) CreateComparison(_ context.Context, ids []string) (*model.SavedComparison, error) {
	c := model.SavedComparison{ID: "c1", NeighborhoodIDs: ids}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	m.comparisons[c.ID] = c
	return &c, nil
}

func (m *memStore) ListComparisons(_ context.Context) ([]model.SavedComparison, error) {
	var out []model.SavedComparison
	for _, c := range m.comparisons {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) DeleteComparison(_ context.Context, id string) error {
	if _, ok := m.comparisons[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.comparisons, id)
	return nil
}

func (m *memStore) Migrate(_ context.Context) error { return nil }
func (m *memStore) Ping(_ context.Context) error    { return nil }
func (m *memStore) Close() error                    { return nil }

type staticResolver struct{}

func (staticResolver) Resolve(_ context.Context, query string) model.ResolvedLocation {
	return model.ResolvedLocation{PostalCode: query, DisplayName: query, Source: "query"}
}

type emptyAcquirer struct{}

func (emptyAcquirer) Acquire(_ context.Context, resolved model.ResolvedLocation, _ string) model.Snapshots {
	return model.Snapshots{Census: model.CensusSnapshot{DisplayName: "ZIP " + resolved.PostalCode}}
}

type neutralClassifier struct{}

func (neutralClassifier) Classify(_ context.Context, _ []string) ([]huggingface.Label, error) {
	return nil, eris.New("classifier disabled in tests")
}

func newTestRouter(st store.Store) http.Handler {
	enricher := pipeline.NewEnricher(st, staticResolver{}, emptyAcquirer{}, neutralClassifier{}, vibe.DefaultRules())
	return newRouter(enricher, st, []string{"*"})
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNeighborhoodEndpoint_InvalidQuery(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/neighborhood/a", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.Equal(t, http.StatusBadRequest, body.Status)
	assert.Equal(t, "Query must be between 2 and 100 characters.", body.Message)
}

func TestNeighborhoodEndpoint_Success(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/neighborhood/78704", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var n model.Neighborhood
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &n))
	assert.Equal(t, "78704", n.PostalCode)
	assert.Equal(t, "ZIP 78704", n.Name)
	assert.NotEmpty(t, n.VibeSummary)
}

func TestComparisonEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newMemStore())

	// Create.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/saved",
		strings.NewReader(`{"neighborhood_ids": ["n1", "n2"]}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.SavedComparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, []string{"n1", "n2"}, created.NeighborhoodIDs)

	// List.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/saved", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []model.SavedComparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	// Delete.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/saved/"+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Delete again: 404 with the fixed error shape.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/saved/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.Equal(t, http.StatusNotFound, body.Status)
}

func TestComparisonEndpoint_TooManyIDs(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newMemStore())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/saved",
		strings.NewReader(`{"neighborhood_ids": ["a", "b", "c"]}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComparisonEndpoint_BadBody(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newMemStore())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/saved", strings.NewReader(`not json`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
