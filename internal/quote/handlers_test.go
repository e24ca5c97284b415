package quote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kitshop/internal/obs"
	"github.com/noah-isme/backend-kitshop/internal/pricing"
	"github.com/noah-isme/backend-kitshop/internal/quote"
)

type staticCatalog struct {
	catalog pricing.Catalog
	err     error
}

func (s staticCatalog) Snapshot(context.Context) (pricing.Catalog, error) {
	return s.catalog, s.err
}

func money(v pricing.Money) *pricing.Money { return &v }

func testCatalog() pricing.Catalog {
	return pricing.Catalog{
		ShirtTypes: []pricing.ShirtType{{ID: 1, Name: "Retro", Price: 2000, CostPrice: money(900)}},
		Packs: []pricing.Pack{{
			ID:        1,
			Items:     []pricing.PackItem{{ProductType: pricing.ProductTypeTShirt, ShirtTypeID: 1, Quantity: 3}},
			Price:     money(1700),
			CostPrice: money(800),
		}},
		Patches: []pricing.Patch{{ID: 1, Image: "liga.png", Price: 150, CostPrice: money(40), Units: 2}},
		Configs: []pricing.PricingConfig{{Key: pricing.KeyPersonalizationPrice, Price: money(300), CostPrice: money(100)}},
	}
}

func newRouter(provider quote.CatalogProvider) http.Handler {
	h := quote.NewHandler(quote.HandlerConfig{Service: quote.NewService(provider)})
	r := chi.NewRouter()
	r.Post("/api/v1/quote", h.Quote)
	r.Post("/api/v1/admin/quote", h.AdminQuote)
	r.Post("/api/v1/admin/cost-suggestions", h.CostSuggestions)
	r.Post("/api/v1/patches/toggle", h.TogglePatch)
	return r
}

func post(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type quoteResponse struct {
	Data struct {
		Mode          string         `json:"mode"`
		Currency      string         `json:"currency"`
		Subtotal      int64          `json:"subtotal"`
		Shipping      int64          `json:"shipping"`
		Total         int64          `json:"total"`
		TotalQuantity int            `json:"totalQuantity"`
		AwaitingQuote bool           `json:"awaitingQuote"`
		FinalPrice    *int64         `json:"finalPrice"`
		Display       map[string]any `json:"display"`
		Lines         []struct {
			ItemID      string               `json:"itemId"`
			UnitBase    int64                `json:"unitBase"`
			PackApplied bool                 `json:"packApplied"`
			Total       int64                `json:"total"`
			Patches     []pricing.PatchCount `json:"patches"`
		} `json:"lines"`
	} `json:"data"`
}

func decodeQuote(t *testing.T, rec *httptest.ResponseRecorder) quoteResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out quoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestQuotePackAcrossLines(t *testing.T) {
	router := newRouter(staticCatalog{catalog: testCatalog()})
	rec := post(t, router, "/api/v1/quote", `{"items":[
		{"product_id":5,"product_type":"tshirt","shirt_type_id":1,"quantity":1},
		{"product_id":5,"product_type":"tshirt","shirt_type_id":"1","quantity":"1"},
		{"product_id":5,"product_type":"tshirt","shirt_type_id":1,"quantity":1}
	]}`)
	out := decodeQuote(t, rec)
	require.Equal(t, "customer", out.Data.Mode)
	require.Equal(t, "EUR", out.Data.Currency)
	require.Equal(t, int64(5100), out.Data.Subtotal)
	require.Zero(t, out.Data.Shipping)
	require.Equal(t, int64(5100), *out.Data.FinalPrice)
	require.Equal(t, "51.00", out.Data.Display["total"])
	require.Len(t, out.Data.Lines, 3)
	require.Equal(t, []string{"1", "2", "3"}, []string{out.Data.Lines[0].ItemID, out.Data.Lines[1].ItemID, out.Data.Lines[2].ItemID})
	for _, line := range out.Data.Lines {
		require.True(t, line.PackApplied)
		require.Equal(t, int64(1700), line.UnitBase)
	}
}

func TestQuoteSingleUnitWithExtras(t *testing.T) {
	router := newRouter(staticCatalog{catalog: testCatalog()})
	out := decodeQuote(t, post(t, router, "/api/v1/quote", `{"items":[
		{"id":"x","product_id":5,"product_type":"tshirt","shirt_type_id":1,"quantity":1,
		 "player_name":"Eusebio","numero":"10","patch_images":["liga.png","liga.png"]}
	]}`))
	require.Equal(t, int64(2000+300+300), out.Data.Subtotal)
	require.Equal(t, int64(200), out.Data.Shipping)
	require.Equal(t, int64(2800), out.Data.Total)
	require.Equal(t, []pricing.PatchCount{{Image: "liga.png", Count: 2}}, out.Data.Lines[0].Patches)
}

func TestQuoteBoundsHugeQuantitiesAndPrices(t *testing.T) {
	catalog := pricing.Catalog{ShirtTypes: []pricing.ShirtType{{ID: 1, Name: "Gold", Price: 100000}}}
	router := newRouter(staticCatalog{catalog: catalog})
	out := decodeQuote(t, post(t, router, "/api/v1/quote", `{"items":[
		{"product_id":5,"product_type":"tshirt","shirt_type_id":1,"quantity":100000000000000000},
		{"product_id":6,"product_type":"banner","quantity":2,"price":"100000000000000000000"}
	]}`))
	require.Equal(t, pricing.MaxQuantity+2, out.Data.TotalQuantity)
	require.Equal(t, int64(pricing.MaxQuantity)*100000, out.Data.Lines[0].Total)
	require.Zero(t, out.Data.Lines[1].Total)
	require.Equal(t, int64(pricing.MaxQuantity)*100000, out.Data.Total)
}

func TestQuoteCustomItemAwaitsQuotation(t *testing.T) {
	router := newRouter(staticCatalog{catalog: testCatalog()})
	out := decodeQuote(t, post(t, router, "/api/v1/quote", `{"items":[
		{"product_type":"tshirt","shirt_type_id":1,"quantity":2},
		{"product_id":5,"product_type":"tshirt","shirt_type_id":1,"quantity":1}
	]}`))
	require.True(t, out.Data.AwaitingQuote)
	require.Nil(t, out.Data.FinalPrice)
	require.Nil(t, out.Data.Display["finalPrice"])
	require.Equal(t, int64(1700), out.Data.Subtotal)
}

func TestAdminQuoteUsesCosts(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("kitshop", registry)
	before := testutil.ToFloat64(obs.QuoteRequestsTotal.WithLabelValues("admin", "priced"))

	router := newRouter(staticCatalog{catalog: testCatalog()})
	out := decodeQuote(t, post(t, router, "/api/v1/admin/quote", `{"items":[
		{"product_id":5,"product_type":"tshirt","shirt_type_id":1,"quantity":1,"patch_images":["liga.png"],"numero":7}
	]}`))
	require.Equal(t, "admin", out.Data.Mode)
	require.Equal(t, int64(900+40+100), out.Data.Total)
	require.Zero(t, out.Data.Shipping)
	require.Equal(t, before+1, testutil.ToFloat64(obs.QuoteRequestsTotal.WithLabelValues("admin", "priced")))
}

func TestCostSuggestions(t *testing.T) {
	router := newRouter(staticCatalog{catalog: testCatalog()})
	rec := post(t, router, "/api/v1/admin/cost-suggestions", `{"items":[
		{"id":"a","product_id":5,"product_type":"tshirt","shirt_type_id":1,"quantity":3},
		{"id":"b","product_id":5,"product_type":"tshirt","shirt_type_id":1,"quantity":1,"cost_price":"6.50"}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":[{"line":0,"itemId":"a","costPrice":800}]}`, rec.Body.String())
}

func TestTogglePatchUsesCatalogUnits(t *testing.T) {
	router := newRouter(staticCatalog{catalog: testCatalog()})
	rec := post(t, router, "/api/v1/patches/toggle", `{"selected":["cup.png"],"image":"liga.png"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"selected":["cup.png","liga.png","liga.png"]}}`, rec.Body.String())

	rec = post(t, router, "/api/v1/patches/toggle", `{"selected":["cup.png","liga.png","liga.png"],"image":"liga.png"}`)
	require.JSONEq(t, `{"data":{"selected":["cup.png"]}}`, rec.Body.String())

	rec = post(t, router, "/api/v1/patches/toggle", `{"selected":[],"image":"unknown.png"}`)
	require.JSONEq(t, `{"data":{"selected":["unknown.png"]}}`, rec.Body.String())
}

func TestQuoteRejectsInvalidBodies(t *testing.T) {
	router := newRouter(staticCatalog{catalog: testCatalog()})
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"not json", `items`, http.StatusBadRequest},
		{"missing items", `{}`, http.StatusUnprocessableEntity},
		{"empty items", `{"items":[]}`, http.StatusUnprocessableEntity},
		{"too many items", `{"items":[` + strings.TrimSuffix(strings.Repeat(`{},`, 501), ",") + `]}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, router, "/api/v1/quote", tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestQuoteCatalogUnavailable(t *testing.T) {
	router := newRouter(staticCatalog{err: errors.New("upstream timeout")})
	rec := post(t, router, "/api/v1/quote", `{"items":[{"product_id":1}]}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"error":{"code":"CATALOG_UNAVAILABLE","message":"catalog is temporarily unavailable"}}`, rec.Body.String())
}
