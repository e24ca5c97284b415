package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/backend-kitshop/internal/pricing"
)

// Wire shapes of the catalog collections. Every numeric field accepts numbers or
// numeric strings since upstreams serialise Postgres numerics as text.
type shirtTypeDTO struct {
	ID        pricing.Amount `json:"id"`
	Name      pricing.Text   `json:"name"`
	Price     pricing.Amount `json:"price"`
	CostPrice pricing.Amount `json:"cost_price"`
}

type packItemDTO struct {
	ProductType pricing.Text   `json:"product_type"`
	ShirtTypeID pricing.Amount `json:"shirt_type_id"`
	Quantity    pricing.Amount `json:"quantity"`
}

type packDTO struct {
	ID        pricing.Amount  `json:"id"`
	Name      pricing.Text    `json:"name"`
	Items     json.RawMessage `json:"items"`
	Price     pricing.Amount  `json:"price"`
	CostPrice pricing.Amount  `json:"cost_price"`
}

type patchDTO struct {
	ID        pricing.Amount `json:"id"`
	Name      pricing.Text   `json:"name"`
	Image     pricing.Text   `json:"image"`
	Price     pricing.Amount `json:"price"`
	CostPrice pricing.Amount `json:"cost_price"`
	Units     pricing.Amount `json:"units"`
}

type pricingConfigDTO struct {
	Key       pricing.Text   `json:"key"`
	Price     pricing.Amount `json:"price"`
	CostPrice pricing.Amount `json:"cost_price"`
}

// decodeCollection accepts either a bare JSON array or an object carrying the
// array under key. A missing key yields an empty collection.
func decodeCollection[T any](data []byte, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode %s: empty body", key)
	}
	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return out, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	raw, ok := envelope[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

func intOf(a pricing.Amount) int64 {
	n, ok := a.Int()
	if !ok {
		return 0
	}
	return n
}

func centsOf(a pricing.Amount) pricing.Money {
	cents, _ := a.Cents()
	return cents
}

func toShirtTypes(dtos []shirtTypeDTO) []pricing.ShirtType {
	out := make([]pricing.ShirtType, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, pricing.ShirtType{
			ID:        intOf(d.ID),
			Name:      d.Name.String(),
			Price:     centsOf(d.Price),
			CostPrice: d.CostPrice.MoneyPtr(),
		})
	}
	return out
}

func toPacks(dtos []packDTO) []pricing.Pack {
	out := make([]pricing.Pack, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, pricing.Pack{
			ID:        intOf(d.ID),
			Name:      d.Name.String(),
			Items:     toPackItems(decodePackItems(d.Items)),
			Price:     d.Price.MoneyPtr(),
			CostPrice: d.CostPrice.MoneyPtr(),
		})
	}
	return out
}

// decodePackItems reads pack items stored either as a JSON array or as a string
// holding the JSON array. Anything unreadable yields no items, which makes the
// pack ineligible for discounts.
func decodePackItems(raw json.RawMessage) []packItemDTO {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		trimmed = []byte(s)
	}
	var items []packItemDTO
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil
	}
	return items
}

func toPackItems(dtos []packItemDTO) []pricing.PackItem {
	out := make([]pricing.PackItem, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, pricing.PackItem{
			ProductType: d.ProductType.String(),
			ShirtTypeID: intOf(d.ShirtTypeID),
			Quantity:    int(intOf(d.Quantity)),
		})
	}
	return out
}

func toPatches(dtos []patchDTO) []pricing.Patch {
	out := make([]pricing.Patch, 0, len(dtos))
	for _, d := range dtos {
		image := d.Image.String()
		if image == "" {
			continue
		}
		out = append(out, pricing.Patch{
			ID:        intOf(d.ID),
			Name:      d.Name.String(),
			Image:     image,
			Price:     centsOf(d.Price),
			CostPrice: d.CostPrice.MoneyPtr(),
			Units:     int(intOf(d.Units)),
		})
	}
	return out
}

func toPricingConfigs(dtos []pricingConfigDTO) []pricing.PricingConfig {
	out := make([]pricing.PricingConfig, 0, len(dtos))
	for _, d := range dtos {
		key := d.Key.String()
		if key == "" {
			continue
		}
		out = append(out, pricing.PricingConfig{
			Key:       key,
			Price:     d.Price.MoneyPtr(),
			CostPrice: d.CostPrice.MoneyPtr(),
		})
	}
	return out
}
