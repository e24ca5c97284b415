package pricing

// CostSuggestion is a proposed unit cost for an order line lacking one. Line is
// the index of the item in the slice passed to SuggestCostPrices.
type CostSuggestion struct {
	Line      int    `json:"line"`
	ItemID    string `json:"itemId"`
	CostPrice Money  `json:"costPrice"`
}

// SuggestCostPrices proposes unit cost prices for t-shirt lines whose stored cost
// is missing or not positive. The suggestion is the admin-mode pack unit for the
// order's count of that shirt type, falling back to the shirt type's cost.
func SuggestCostPrices(items []CartItem, catalog Catalog) []CostSuggestion {
	var out []CostSuggestion
	for i, it := range items {
		if !it.IsTShirt() || it.ShirtTypeID == nil {
			continue
		}
		if it.CostPrice != nil && *it.CostPrice > 0 {
			continue
		}
		id := *it.ShirtTypeID
		unit, ok := BestUnitPrice(id, CountForType(items, id), catalog.Packs, ModeAdmin)
		if !ok {
			st, found := catalog.ShirtType(id)
			if !found {
				continue
			}
			unit = st.unit(ModeAdmin)
		}
		if unit > 0 {
			out = append(out, CostSuggestion{Line: i, ItemID: it.ID, CostPrice: unit})
		}
	}
	return out
}
