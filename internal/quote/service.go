package quote

import (
	"context"
	"errors"

	"github.com/noah-isme/backend-kitshop/internal/common"
	"github.com/noah-isme/backend-kitshop/internal/obs"
	"github.com/noah-isme/backend-kitshop/internal/pricing"
)

// CatalogProvider yields the catalog snapshot used for pricing.
type CatalogProvider interface {
	Snapshot(ctx context.Context) (pricing.Catalog, error)
}

// Service prices carts against the current catalog.
type Service struct {
	catalog CatalogProvider
}

// NewService constructs a quote Service.
func NewService(catalog CatalogProvider) *Service {
	return &Service{catalog: catalog}
}

// Quote prices normalized items in the given mode.
func (s *Service) Quote(ctx context.Context, items []pricing.CartItem, mode pricing.Mode) (pricing.Summary, error) {
	catalog, err := s.snapshot(ctx)
	if err != nil {
		record(mode, "catalog_unavailable", 0)
		return pricing.Summary{}, err
	}
	summary := pricing.Aggregate(items, catalog, mode)
	result := "priced"
	if summary.AwaitingQuote {
		result = "awaiting_quote"
	}
	record(summary.Mode, result, len(summary.Lines))
	return summary, nil
}

// SuggestCosts proposes cost prices for order lines missing one.
func (s *Service) SuggestCosts(ctx context.Context, items []pricing.CartItem) ([]pricing.CostSuggestion, error) {
	catalog, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	suggestions := pricing.SuggestCostPrices(items, catalog)
	if suggestions == nil {
		suggestions = []pricing.CostSuggestion{}
	}
	return suggestions, nil
}

// TogglePatch flips image in selected using the catalog's unit count for it.
// Images unknown to the catalog toggle a single occurrence.
func (s *Service) TogglePatch(ctx context.Context, selected []string, image string) ([]string, error) {
	catalog, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	patch, ok := catalog.Patch(image)
	if !ok {
		patch = pricing.Patch{Image: image, Units: 1}
	}
	return pricing.TogglePatch(selected, patch), nil
}

func (s *Service) snapshot(ctx context.Context) (pricing.Catalog, error) {
	if s == nil || s.catalog == nil {
		return pricing.Catalog{}, common.CatalogUnavailable(errors.New("catalog not configured"))
	}
	catalog, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return pricing.Catalog{}, common.CatalogUnavailable(err)
	}
	return catalog, nil
}

func record(mode pricing.Mode, result string, lines int) {
	if obs.QuoteRequestsTotal != nil {
		obs.QuoteRequestsTotal.WithLabelValues(string(mode), result).Inc()
	}
	if obs.QuoteLines != nil && lines > 0 {
		obs.QuoteLines.WithLabelValues(string(mode)).Observe(float64(lines))
	}
}
