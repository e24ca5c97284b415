package pricing

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RawItem is a cart or order item as received from clients or the cart store.
// Every field decodes leniently so malformed input never aborts a quote.
type RawItem struct {
	ID          Text            `json:"id"`
	ProductID   Amount          `json:"product_id"`
	ProductType Text            `json:"product_type"`
	ShirtTypeID Amount          `json:"shirt_type_id"`
	Size        Text            `json:"size"`
	Quantity    Amount          `json:"quantity"`
	PlayerName  Text            `json:"player_name"`
	Numero      Text            `json:"numero"`
	PatchImages json.RawMessage `json:"patch_images"`
	Price       Amount          `json:"price"`
	CostPrice   Amount          `json:"cost_price"`
}

// Normalize converts a raw item into its canonical form. Quantities that are
// missing, fractional or below one become one; larger ones are capped at MaxQuantity. Patch duplicates are kept since
// each occurrence is a separate purchase.
func Normalize(raw RawItem) CartItem {
	return CartItem{
		ID:          raw.ID.String(),
		ProductID:   positiveID(raw.ProductID),
		ProductType: raw.ProductType.String(),
		ShirtTypeID: positiveID(raw.ShirtTypeID),
		Size:        raw.Size.String(),
		Quantity:    normalizeQuantity(raw.Quantity),
		PlayerName:  raw.PlayerName.String(),
		Numero:      raw.Numero.String(),
		PatchImages: decodeImages(raw.PatchImages),
		Price:       raw.Price.MoneyPtr(),
		CostPrice:   raw.CostPrice.MoneyPtr(),
	}
}

// NormalizeAll normalizes a batch and guarantees unique line ids. The first
// occurrence of a client id keeps it; items without one get their position
// ("1", "2", ...) and clashes get a "-2", "-3", ... suffix.
func NormalizeAll(raws []RawItem) []CartItem {
	items := make([]CartItem, 0, len(raws))
	taken := make(map[string]bool, len(raws))
	kept := make([]bool, len(raws))
	for i, raw := range raws {
		item := Normalize(raw)
		if item.ID != "" && !taken[item.ID] {
			taken[item.ID] = true
			kept[i] = true
		}
		items = append(items, item)
	}
	for i := range items {
		if kept[i] {
			continue
		}
		base := items[i].ID
		if base == "" {
			base = strconv.Itoa(i + 1)
			if !taken[base] {
				items[i].ID = base
				taken[base] = true
				continue
			}
		}
		for n := 2; ; n++ {
			candidate := base + "-" + strconv.Itoa(n)
			if !taken[candidate] {
				items[i].ID = candidate
				taken[candidate] = true
				break
			}
		}
	}
	return items
}

// MaxQuantity caps the units of a single line.
const MaxQuantity = 10_000

func normalizeQuantity(a Amount) int {
	if !a.Valid || !a.Value.Equal(a.Value.Truncate(0)) || a.Value.Sign() < 1 {
		return 1
	}
	if a.Value.GreaterThan(decimal.NewFromInt(MaxQuantity)) {
		return MaxQuantity
	}
	return int(a.Value.IntPart())
}

func positiveID(a Amount) *int64 {
	n, ok := a.Int()
	if !ok || n < 1 {
		return nil
	}
	return &n
}

func decodeImages(raw json.RawMessage) []string {
	images := []string{}
	if len(raw) == 0 {
		return images
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return images
	}
	for _, entry := range entries {
		var img string
		if err := json.Unmarshal(entry, &img); err != nil {
			continue
		}
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	return images
}
