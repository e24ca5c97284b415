package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-kitshop/internal/pricing"
	"github.com/noah-isme/backend-kitshop/internal/resilience"
)

const maxCollectionBytes = 8 << 20

// Paths locates each collection relative to the upstream base URL.
type Paths struct {
	ShirtTypes     string
	Packs          string
	Patches        string
	PricingConfigs string
}

// DefaultPaths are the function endpoints of the storefront backend.
func DefaultPaths() Paths {
	return Paths{
		ShirtTypes:     "/getShirtTypes?page=1&limit=1000",
		Packs:          "/getpacks?page=1&limit=1000",
		Patches:        "/getPatches?page=1&limit=1000",
		PricingConfigs: "/getpricingconfig?page=1&limit=1000",
	}
}

// HTTPSource loads the catalog from the storefront JSON API.
type HTTPSource struct {
	client  resilience.HTTPClient
	baseURL string
	paths   Paths
}

// HTTPSourceConfig configures an HTTPSource.
type HTTPSourceConfig struct {
	BaseURL string
	Paths   Paths
	Client  resilience.HTTPClient
}

// NewHTTPSource validates cfg and builds an HTTPSource. Empty paths use the defaults.
func NewHTTPSource(cfg HTTPSourceConfig) (*HTTPSource, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("catalog: base url is required")
	}
	if cfg.Client.Client == nil {
		return nil, errors.New("catalog: http client is required")
	}
	def := DefaultPaths()
	paths := cfg.Paths
	if paths.ShirtTypes == "" {
		paths.ShirtTypes = def.ShirtTypes
	}
	if paths.Packs == "" {
		paths.Packs = def.Packs
	}
	if paths.Patches == "" {
		paths.Patches = def.Patches
	}
	if paths.PricingConfigs == "" {
		paths.PricingConfigs = def.PricingConfigs
	}
	return &HTTPSource{client: cfg.Client, baseURL: base, paths: paths}, nil
}

// ShirtTypes implements Source.
func (s *HTTPSource) ShirtTypes(ctx context.Context) ([]pricing.ShirtType, error) {
	body, err := s.fetch(ctx, s.paths.ShirtTypes)
	if err != nil {
		return nil, err
	}
	dtos, err := decodeCollection[shirtTypeDTO](body, "shirtTypes")
	if err != nil {
		return nil, err
	}
	return toShirtTypes(dtos), nil
}

// Packs implements Source.
func (s *HTTPSource) Packs(ctx context.Context) ([]pricing.Pack, error) {
	body, err := s.fetch(ctx, s.paths.Packs)
	if err != nil {
		return nil, err
	}
	dtos, err := decodeCollection[packDTO](body, "packs")
	if err != nil {
		return nil, err
	}
	return toPacks(dtos), nil
}

// Patches implements Source.
func (s *HTTPSource) Patches(ctx context.Context) ([]pricing.Patch, error) {
	body, err := s.fetch(ctx, s.paths.Patches)
	if err != nil {
		return nil, err
	}
	dtos, err := decodeCollection[patchDTO](body, "patches")
	if err != nil {
		return nil, err
	}
	return toPatches(dtos), nil
}

// PricingConfigs implements Source.
func (s *HTTPSource) PricingConfigs(ctx context.Context) ([]pricing.PricingConfig, error) {
	body, err := s.fetch(ctx, s.paths.PricingConfigs)
	if err != nil {
		return nil, err
	}
	dtos, err := decodeCollection[pricingConfigDTO](body, "pricingConfigs")
	if err != nil {
		return nil, err
	}
	return toPricingConfigs(dtos), nil
}

func (s *HTTPSource) fetch(ctx context.Context, path string) ([]byte, error) {
	url := s.baseURL + "/" + strings.TrimLeft(path, "/")
	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCollectionBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}
