package order

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kitshop/internal/common"
	"github.com/noah-isme/backend-kitshop/internal/obs"
	"github.com/noah-isme/backend-kitshop/internal/pricing"
)

// CatalogProvider yields the catalog snapshot used for pricing.
type CatalogProvider interface {
	Snapshot(ctx context.Context) (pricing.Catalog, error)
}

// Handler exposes order snapshot endpoints.
type Handler struct {
	catalog CatalogProvider
	store   Store
	logger  zerolog.Logger
	now     func() time.Time
}

// HandlerConfig configures the Handler dependencies. Store is optional; without
// it snapshots are returned but not persisted.
type HandlerConfig struct {
	Catalog CatalogProvider
	Store   Store
	Logger  zerolog.Logger
	Now     func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{catalog: cfg.Catalog, store: cfg.Store, logger: cfg.Logger, now: now}
}

type snapshotRequest struct {
	Items []pricing.RawItem `json:"items" validate:"required,min=1,max=500"`
}

type priceRequest struct {
	Price pricing.Amount `json:"price"`
}

type costRequest struct {
	CostPrice pricing.Amount `json:"cost_price"`
}

// Create handles POST /api/v1/orders/snapshot.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	catalog, err := h.loadCatalog(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	snap := Freeze(pricing.NormalizeAll(req.Items), catalog, h.now())
	if h.store != nil {
		if err := h.store.Save(r.Context(), &snap); err != nil {
			h.logger.Error().Err(err).Str("order_id", snap.ID.String()).Msg("save order snapshot")
			common.WriteError(w, err)
			return
		}
	}
	if obs.OrderSnapshotsTotal != nil {
		obs.OrderSnapshotsTotal.WithLabelValues(string(snap.Status)).Inc()
	}
	h.logger.Info().
		Str("order_id", snap.ID.String()).
		Str("status", string(snap.Status)).
		Int("lines", len(snap.Items)).
		Msg("order snapshot frozen")
	common.JSON(w, http.StatusCreated, map[string]any{"data": snap})
}

// Get handles GET /api/v1/admin/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.loadSnapshot(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// PatchPrice handles PATCH /api/v1/admin/orders/{id}/price.
func (h *Handler) PatchPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	price, err := editedAmount(req.Price)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	snap, err := h.loadSnapshot(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := snap.SetPrice(price); err != nil {
		common.WriteError(w, mapError(err))
		return
	}
	h.save(w, r, snap)
}

// PatchItemCost handles PATCH /api/v1/admin/orders/{id}/items/{itemID}/cost.
func (h *Handler) PatchItemCost(w http.ResponseWriter, r *http.Request) {
	var req costRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	cost, err := editedAmount(req.CostPrice)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	snap, err := h.loadSnapshot(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	catalog, err := h.loadCatalog(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := snap.SetItemCost(chi.URLParam(r, "itemID"), cost, catalog); err != nil {
		common.WriteError(w, mapError(err))
		return
	}
	h.save(w, r, snap)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, snap *Snapshot) {
	if err := h.store.Save(r.Context(), snap); err != nil {
		h.logger.Error().Err(err).Str("order_id", snap.ID.String()).Msg("update order snapshot")
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

func (h *Handler) loadSnapshot(r *http.Request) (*Snapshot, error) {
	if h.store == nil {
		return nil, common.NewAppError(common.CodeInternal, "order store not configured", http.StatusInternalServerError, nil)
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, common.BadRequest("invalid order id", err)
	}
	snap, err := h.store.Get(r.Context(), id)
	if err != nil {
		return nil, mapError(err)
	}
	return snap, nil
}

func (h *Handler) loadCatalog(ctx context.Context) (pricing.Catalog, error) {
	if h.catalog == nil {
		return pricing.Catalog{}, common.CatalogUnavailable(errors.New("catalog not configured"))
	}
	catalog, err := h.catalog.Snapshot(ctx)
	if err != nil {
		return pricing.Catalog{}, common.CatalogUnavailable(err)
	}
	return catalog, nil
}

func editedAmount(a pricing.Amount) (pricing.Money, error) {
	if !a.Valid {
		return 0, common.BadRequest("amount must be a number", nil)
	}
	if a.Value.IsNegative() {
		return 0, mapError(ErrInvalidPrice)
	}
	cents, _ := a.Cents()
	return cents, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NotFound("order not found")
	case errors.Is(err, ErrItemNotFound):
		return common.NotFound("order item not found")
	case errors.Is(err, ErrInvalidPrice):
		return common.NewAppError(common.CodeValidation, err.Error(), http.StatusUnprocessableEntity, err)
	default:
		return err
	}
}
