package order

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-kitshop/internal/pricing"
)

var (
	// ErrInvalidPrice is returned for negative price or cost edits.
	ErrInvalidPrice = errors.New("price must not be negative")
	// ErrItemNotFound is returned when an edit targets an unknown order line.
	ErrItemNotFound = errors.New("order item not found")
	// ErrNotFound is returned by stores for unknown snapshot ids.
	ErrNotFound = errors.New("order snapshot not found")
)

// Status of a frozen order.
type Status string

const (
	StatusPriced        Status = "priced"
	StatusAwaitingQuote Status = "awaiting_quote"
)

// Snapshot is an order frozen at placement time. TotalPrice never changes after
// Freeze except through SetPrice, so later catalog edits leave it untouched.
type Snapshot struct {
	ID         uuid.UUID          `json:"id"`
	Status     Status             `json:"status"`
	Items      []pricing.CartItem `json:"items"`
	Summary    pricing.Summary    `json:"summary"`
	TotalPrice *pricing.Money     `json:"totalPrice"`
	CostTotal  pricing.Money      `json:"costTotal"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// Freeze prices items with the customer rules and records the result. Lines
// without a usable cost price receive the suggested admin cost so that later cost
// reports do not depend on the live catalog.
func Freeze(items []pricing.CartItem, catalog pricing.Catalog, now time.Time) Snapshot {
	frozen := make([]pricing.CartItem, 0, len(items))
	for _, it := range items {
		frozen = append(frozen, it.Clone())
	}
	for _, s := range pricing.SuggestCostPrices(frozen, catalog) {
		cost := s.CostPrice
		frozen[s.Line].CostPrice = &cost
	}

	summary := pricing.Aggregate(frozen, catalog, pricing.ModeCustomer)
	snap := Snapshot{
		ID:         uuid.New(),
		Status:     StatusPriced,
		Items:      frozen,
		Summary:    summary,
		TotalPrice: summary.FinalPrice(),
		CostTotal:  CostTotal(frozen, catalog),
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	if summary.AwaitingQuote {
		snap.Status = StatusAwaitingQuote
	}
	return snap
}

// CostTotal is the admin cost of an order. A positive stored cost on an item
// replaces the computed base unit; patch and personalization costs are always
// recomputed. Custom items are excluded like in the customer subtotal.
func CostTotal(items []pricing.CartItem, catalog pricing.Catalog) pricing.Money {
	var total pricing.Money
	for _, it := range items {
		if it.IsCustom() {
			continue
		}
		line := pricing.PriceLine(it, items, catalog, pricing.ModeAdmin)
		if it.CostPrice != nil && *it.CostPrice > 0 {
			line.Base = pricing.MulQty(*it.CostPrice, line.Quantity)
			line.Total = pricing.AddMoney(pricing.AddMoney(line.Base, line.PatchSurcharge), line.PersonalizationSurcharge)
		}
		total = pricing.AddMoney(total, line.Total)
	}
	return total
}

// SetPrice overrides the frozen total, e.g. once a custom order has been quoted.
func (s *Snapshot) SetPrice(price pricing.Money) error {
	if price < 0 {
		return ErrInvalidPrice
	}
	s.TotalPrice = &price
	s.Status = StatusPriced
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// SetItemCost stores an admin-edited unit cost and recomputes CostTotal.
func (s *Snapshot) SetItemCost(itemID string, cost pricing.Money, catalog pricing.Catalog) error {
	if cost < 0 {
		return ErrInvalidPrice
	}
	for i := range s.Items {
		if s.Items[i].ID != itemID {
			continue
		}
		s.Items[i].CostPrice = &cost
		s.CostTotal = CostTotal(s.Items, catalog)
		s.UpdatedAt = time.Now().UTC()
		return nil
	}
	return ErrItemNotFound
}
