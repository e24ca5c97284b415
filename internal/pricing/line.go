package pricing

// LinePrice is the priced breakdown of one cart line.
type LinePrice struct {
	ItemID                   string `json:"itemId"`
	Quantity                 int    `json:"quantity"`
	UnitBase                 Money  `json:"unitBase"`
	ListUnit                 Money  `json:"listUnit"`
	CountForType             int    `json:"countForType,omitempty"`
	PackApplied              bool   `json:"packApplied"`
	Base                     Money  `json:"base"`
	PatchSurcharge           Money  `json:"patchSurcharge"`
	PersonalizationSurcharge Money  `json:"personalizationSurcharge"`
	Total                    Money  `json:"total"`
	Custom                   bool   `json:"custom"`
	Priced                   bool   `json:"priced"`
}

// PriceLine prices a single item. cart is the full item set the item belongs to and
// is only consulted to count units per shirt type for pack thresholds.
func PriceLine(item CartItem, cart []CartItem, catalog Catalog, mode Mode) LinePrice {
	qty := item.units()
	line := LinePrice{
		ItemID:   item.ID,
		Quantity: qty,
		Custom:   item.IsCustom(),
	}

	resolved := line.resolveUnit(item, cart, catalog, mode)
	if line.Custom && !resolved {
		return line
	}
	line.Priced = true

	line.Base = MulQty(line.UnitBase, qty)
	line.PatchSurcharge = MulQty(patchUnitPrice(item.PatchImages, catalog, mode), qty)
	line.PersonalizationSurcharge = MulQty(personalizationFee(item, catalog, mode), qty)
	line.Total = AddMoney(AddMoney(line.Base, line.PatchSurcharge), line.PersonalizationSurcharge)
	return line
}

// resolveUnit fills UnitBase, ListUnit and pack details, reporting whether any
// price source was found for the item.
func (l *LinePrice) resolveUnit(item CartItem, cart []CartItem, catalog Catalog, mode Mode) bool {
	if item.ShirtTypeID == nil {
		src := item.Price
		if mode.admin() {
			src = item.CostPrice
		}
		if src == nil {
			return false
		}
		l.UnitBase = *src
		l.ListUnit = *src
		return true
	}

	id := *item.ShirtTypeID
	list, resolved := fallbackUnit(item, catalog, mode)
	l.ListUnit = list
	l.UnitBase = list
	l.CountForType = CountForType(cart, id)
	if best, ok := BestUnitPrice(id, l.CountForType, catalog.Packs, mode); ok {
		l.UnitBase = best
		l.PackApplied = true
		return true
	}
	return resolved
}

// fallbackUnit is the non-pack unit price of a shirt-typed item.
func fallbackUnit(item CartItem, catalog Catalog, mode Mode) (Money, bool) {
	st, found := catalog.ShirtType(*item.ShirtTypeID)
	if mode.admin() {
		if found {
			return st.unit(mode), true
		}
		if item.CostPrice != nil {
			return *item.CostPrice, true
		}
		return 0, false
	}
	if item.Price != nil && *item.Price > 0 {
		return *item.Price, true
	}
	if found {
		return st.Price, true
	}
	return 0, false
}

// patchUnitPrice sums the per-unit price of every patch occurrence. Without any
// patch catalog entries the legacy patch_price fee applies to each occurrence.
func patchUnitPrice(images []string, catalog Catalog, mode Mode) Money {
	if len(images) == 0 {
		return 0
	}
	if len(catalog.Patches) == 0 {
		return MulQty(catalog.fee(KeyPatchPrice, mode), len(images))
	}
	var sum Money
	for _, img := range images {
		if p, ok := catalog.Patch(img); ok {
			sum = AddMoney(sum, p.unit(mode))
		}
	}
	return sum
}

// personalizationFee is the per-unit name/number surcharge.
func personalizationFee(item CartItem, catalog Catalog, mode Mode) Money {
	if cfg, ok := catalog.Config(KeyPersonalizationPrice); ok {
		if item.Personalized() {
			return cfg.unit(mode)
		}
		return 0
	}
	var fee Money
	if item.hasNumber() {
		fee = AddMoney(fee, catalog.fee(KeyNumberPrice, mode))
	}
	if item.hasName() {
		fee = AddMoney(fee, catalog.fee(KeyNamePrice, mode))
	}
	return fee
}
