package pricing

// BestUnitPrice returns the cheapest per-unit price granted by single-item t-shirt
// packs for shirtTypeID, given countForType units of that type across the whole cart.
// The boolean is false when no pack qualifies and the caller should fall back to
// the shirt type's own price.
func BestUnitPrice(shirtTypeID int64, countForType int, packs []Pack, mode Mode) (Money, bool) {
	var (
		best  Money
		found bool
	)
	for _, pack := range packs {
		threshold, ok := packThreshold(pack, shirtTypeID)
		if !ok || threshold > countForType {
			continue
		}
		unit, ok := pack.unit(mode)
		if !ok {
			continue
		}
		if !found || unit < best {
			best = unit
			found = true
		}
	}
	return best, found
}

// packThreshold returns the unit threshold of a pack that targets shirtTypeID.
// Multi-item packs and other product types never match. A threshold of zero or
// less counts as zero, so such a pack applies from the first unit.
func packThreshold(pack Pack, shirtTypeID int64) (int, bool) {
	if len(pack.Items) != 1 {
		return 0, false
	}
	item := pack.Items[0]
	if item.ProductType != ProductTypeTShirt || item.ShirtTypeID != shirtTypeID {
		return 0, false
	}
	if item.Quantity < 0 {
		return 0, true
	}
	return item.Quantity, true
}

// CountForType sums the quantities of all t-shirt lines of the given shirt type.
func CountForType(cart []CartItem, shirtTypeID int64) int {
	count := 0
	for _, it := range cart {
		if !it.IsTShirt() || it.ShirtTypeID == nil || *it.ShirtTypeID != shirtTypeID {
			continue
		}
		count += it.units()
	}
	return count
}
