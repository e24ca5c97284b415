package order_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kitshop/internal/order"
	"github.com/noah-isme/backend-kitshop/internal/pricing"
)

type memStore struct {
	mu    sync.Mutex
	snaps map[uuid.UUID]order.Snapshot
}

func newMemStore() *memStore { return &memStore{snaps: map[uuid.UUID]order.Snapshot{}} }

func (m *memStore) Save(_ context.Context, snap *order.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.ID] = *snap
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*order.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &snap, nil
}

type staticCatalog struct {
	catalog pricing.Catalog
	err     error
}

func (s staticCatalog) Snapshot(context.Context) (pricing.Catalog, error) {
	return s.catalog, s.err
}

type snapshotResponse struct {
	Data order.Snapshot `json:"data"`
}

func newRouter(h *order.Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/orders/snapshot", h.Create)
	r.Get("/api/v1/admin/orders/{id}", h.Get)
	r.Patch("/api/v1/admin/orders/{id}/price", h.PatchPrice)
	r.Patch("/api/v1/admin/orders/{id}/items/{itemID}/cost", h.PatchItemCost)
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestOrderSnapshotLifecycle(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	router := newRouter(order.NewHandler(order.HandlerConfig{
		Catalog: staticCatalog{catalog: testCatalog()},
		Store:   store,
		Logger:  zerolog.Nop(),
		Now:     func() time.Time { return now },
	}))

	rec := do(t, router, http.MethodPost, "/api/v1/orders/snapshot",
		`{"items":[{"id":"a","product_id":10,"product_type":"tshirt","shirt_type_id":1,"quantity":3}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created snapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, pricing.Money(5100), *created.Data.TotalPrice)
	require.Equal(t, pricing.Money(2400), created.Data.CostTotal)
	require.Equal(t, now, created.Data.CreatedAt)

	base := "/api/v1/admin/orders/" + created.Data.ID.String()

	rec = do(t, router, http.MethodPatch, base+"/price", `{"price":"49.90"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPatch, base+"/items/a/cost", `{"cost_price":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched snapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	require.Equal(t, pricing.Money(4990), *fetched.Data.TotalPrice)
	require.Equal(t, pricing.Money(2100), fetched.Data.CostTotal)
}

func TestOrderHandlerErrors(t *testing.T) {
	store := newMemStore()
	snap := order.Freeze([]pricing.CartItem{tshirt("a", 1)}, testCatalog(), time.Now())
	require.NoError(t, store.Save(context.Background(), &snap))
	router := newRouter(order.NewHandler(order.HandlerConfig{
		Catalog: staticCatalog{catalog: testCatalog()},
		Store:   store,
		Logger:  zerolog.Nop(),
	}))
	base := "/api/v1/admin/orders/" + snap.ID.String()

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"empty items", http.MethodPost, "/api/v1/orders/snapshot", `{"items":[]}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"bad id", http.MethodGet, "/api/v1/admin/orders/nope", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown order", http.MethodGet, "/api/v1/admin/orders/" + uuid.NewString(), "", http.StatusNotFound, "NOT_FOUND"},
		{"negative price", http.MethodPatch, base + "/price", `{"price":-3}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"garbage price", http.MethodPatch, base + "/price", `{"price":"abc"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown item", http.MethodPatch, base + "/items/zzz/cost", `{"cost_price":3}`, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestOrderSnapshotCatalogUnavailable(t *testing.T) {
	router := newRouter(order.NewHandler(order.HandlerConfig{
		Catalog: staticCatalog{err: errors.New("upstream down")},
		Logger:  zerolog.Nop(),
	}))
	rec := do(t, router, http.MethodPost, "/api/v1/orders/snapshot", `{"items":[{"product_id":1}]}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "CATALOG_UNAVAILABLE")
}
