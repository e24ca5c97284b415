package quote

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kitshop/internal/common"
	"github.com/noah-isme/backend-kitshop/internal/pricing"
)

// Handler exposes the pricing endpoints.
type Handler struct {
	service  *Service
	currency string
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Currency string
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "EUR"
	}
	return &Handler{service: cfg.Service, currency: currency}
}

type itemsRequest struct {
	Items []pricing.RawItem `json:"items" validate:"required,min=1,max=500"`
}

type toggleRequest struct {
	Selected []string `json:"selected"`
	Image    string   `json:"image" validate:"required"`
}

type lineView struct {
	pricing.LinePrice
	Patches []pricing.PatchCount `json:"patches"`
}

type quoteView struct {
	Mode          pricing.Mode   `json:"mode"`
	Currency      string         `json:"currency"`
	Lines         []lineView     `json:"lines"`
	Subtotal      pricing.Money  `json:"subtotal"`
	Shipping      pricing.Money  `json:"shipping"`
	Total         pricing.Money  `json:"total"`
	TotalQuantity int            `json:"totalQuantity"`
	AwaitingQuote bool           `json:"awaitingQuote"`
	FinalPrice    *pricing.Money `json:"finalPrice"`
	Display       displayView    `json:"display"`
}

type displayView struct {
	Subtotal   string  `json:"subtotal"`
	Shipping   string  `json:"shipping"`
	Total      string  `json:"total"`
	FinalPrice *string `json:"finalPrice"`
}

func (h *Handler) view(items []pricing.CartItem, summary pricing.Summary) quoteView {
	lines := make([]lineView, 0, len(summary.Lines))
	for i, line := range summary.Lines {
		var patches []pricing.PatchCount
		if i < len(items) {
			patches = pricing.CountPatches(items[i].PatchImages)
		}
		lines = append(lines, lineView{LinePrice: line, Patches: patches})
	}
	final := summary.FinalPrice()
	display := displayView{
		Subtotal: pricing.FormatMoney(summary.Subtotal),
		Shipping: pricing.FormatMoney(summary.Shipping),
		Total:    pricing.FormatMoney(summary.Total),
	}
	if final != nil {
		formatted := pricing.FormatMoney(*final)
		display.FinalPrice = &formatted
	}
	return quoteView{
		Mode:          summary.Mode,
		Currency:      h.currency,
		Lines:         lines,
		Subtotal:      summary.Subtotal,
		Shipping:      summary.Shipping,
		Total:         summary.Total,
		TotalQuantity: summary.TotalQuantity,
		AwaitingQuote: summary.AwaitingQuote,
		FinalPrice:    final,
		Display:       display,
	}
}

// Quote handles POST /api/v1/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	h.quote(w, r, pricing.ModeCustomer)
}

// AdminQuote handles POST /api/v1/admin/quote.
func (h *Handler) AdminQuote(w http.ResponseWriter, r *http.Request) {
	h.quote(w, r, pricing.ModeAdmin)
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request, mode pricing.Mode) {
	var req itemsRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		record(mode, "invalid", 0)
		common.WriteError(w, err)
		return
	}
	items := pricing.NormalizeAll(req.Items)
	summary, err := h.service.Quote(r.Context(), items, mode)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("mode", string(mode)).Msg("quote failed")
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.view(items, summary)})
}

// CostSuggestions handles POST /api/v1/admin/cost-suggestions.
func (h *Handler) CostSuggestions(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	suggestions, err := h.service.SuggestCosts(r.Context(), pricing.NormalizeAll(req.Items))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": suggestions})
}

// TogglePatch handles POST /api/v1/patches/toggle.
func (h *Handler) TogglePatch(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	selected, err := h.service.TogglePatch(r.Context(), req.Selected, strings.TrimSpace(req.Image))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"selected": selected}})
}
