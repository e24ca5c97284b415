package catalog

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kitshop/internal/common"
)

// Handler exposes catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Snapshot handles GET /api/v1/catalog.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog service not configured", nil)
		return
	}
	catalog, err := h.service.Snapshot(r.Context())
	if err != nil {
		common.WriteError(w, common.CatalogUnavailable(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": catalog})
}

// Invalidate handles POST /api/v1/admin/catalog/invalidate.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog service not configured", nil)
		return
	}
	if err := h.service.Invalidate(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("catalog invalidate failed")
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
