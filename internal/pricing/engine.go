package pricing

// Summary aggregates the priced lines of a cart or order.
type Summary struct {
	Mode          Mode        `json:"mode"`
	Lines         []LinePrice `json:"lines"`
	Subtotal      Money       `json:"subtotal"`
	Shipping      Money       `json:"shipping"`
	Total         Money       `json:"total"`
	TotalQuantity int         `json:"totalQuantity"`
	AwaitingQuote bool        `json:"awaitingQuote"`
}

// FinalPrice is the amount to charge up front, or nil when the cart holds custom
// items that must be quoted manually.
func (s Summary) FinalPrice() *Money {
	if s.AwaitingQuote {
		return nil
	}
	total := s.Total
	return &total
}

// Aggregate prices every line and totals the cart. Custom items are priced for
// display when possible but never counted in the subtotal; their presence marks
// the summary as awaiting quotation. Shipping is a customer-only concept.
func Aggregate(items []CartItem, catalog Catalog, mode Mode) Summary {
	if !mode.admin() {
		mode = ModeCustomer
	}
	summary := Summary{
		Mode:  mode,
		Lines: make([]LinePrice, 0, len(items)),
	}
	for _, it := range items {
		line := PriceLine(it, items, catalog, mode)
		summary.Lines = append(summary.Lines, line)
		summary.TotalQuantity += it.units()
		if it.IsCustom() {
			summary.AwaitingQuote = true
			continue
		}
		if line.Priced {
			summary.Subtotal = AddMoney(summary.Subtotal, line.Total)
		}
	}
	if !mode.admin() {
		summary.Shipping = Shipping(summary.TotalQuantity)
	}
	summary.Total = AddMoney(summary.Subtotal, summary.Shipping)
	return summary
}

// Shipping applies the flat fee when the cart holds exactly one unit in total.
func Shipping(totalQuantity int) Money {
	if totalQuantity == 1 {
		return FlatShippingFee
	}
	return 0
}
