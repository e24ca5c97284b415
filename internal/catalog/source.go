package catalog

import (
	"context"

	"github.com/noah-isme/backend-kitshop/internal/pricing"
)

// Source provides the four reference collections a catalog snapshot is built from.
type Source interface {
	ShirtTypes(ctx context.Context) ([]pricing.ShirtType, error)
	Packs(ctx context.Context) ([]pricing.Pack, error)
	Patches(ctx context.Context) ([]pricing.Patch, error)
	PricingConfigs(ctx context.Context) ([]pricing.PricingConfig, error)
}
