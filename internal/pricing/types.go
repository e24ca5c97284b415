package pricing

import "strings"

// Mode selects between sale prices and internal cost prices.
type Mode string

const (
	// ModeCustomer prices with sale prices and applies the shipping rule.
	ModeCustomer Mode = "customer"
	// ModeAdmin prices with cost prices and never charges shipping.
	ModeAdmin Mode = "admin"
)

// ParseMode maps a textual mode to a Mode.
func ParseMode(value string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ModeCustomer), "":
		return ModeCustomer, true
	case string(ModeAdmin), "cost":
		return ModeAdmin, true
	default:
		return ModeCustomer, false
	}
}

func (m Mode) admin() bool { return m == ModeAdmin }

// ProductTypeTShirt is the only product type participating in pack discounts.
const ProductTypeTShirt = "tshirt"

// Pricing configuration keys.
const (
	KeyPersonalizationPrice = "personalization_price"
	KeyPatchPrice           = "patch_price"
	KeyNumberPrice          = "number_price"
	KeyNamePrice            = "name_price"
)

// ShirtType is a shirt catalog dimension carrying its own base and cost price.
type ShirtType struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     Money  `json:"price"`
	CostPrice *Money `json:"cost_price,omitempty"`
}

func (s ShirtType) unit(mode Mode) Money {
	if mode.admin() && s.CostPrice != nil {
		return *s.CostPrice
	}
	return s.Price
}

// PackItem is one component of a pack. For single-item packs Quantity is the
// minimum number of units of ShirtTypeID the cart must hold.
type PackItem struct {
	ProductType string `json:"product_type"`
	ShirtTypeID int64  `json:"shirt_type_id"`
	Quantity    int    `json:"quantity"`
}

// Pack is a volume discount rule.
type Pack struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Items     []PackItem `json:"items"`
	Price     *Money     `json:"price,omitempty"`
	CostPrice *Money     `json:"cost_price,omitempty"`
}

// unit resolves the per-unit price a pack grants in the given mode.
func (p Pack) unit(mode Mode) (Money, bool) {
	if mode.admin() {
		if p.CostPrice != nil && *p.CostPrice > 0 {
			return *p.CostPrice, true
		}
		if p.Price == nil || *p.Price <= 0 {
			return 0, false
		}
		return *p.Price, true
	}
	if p.Price == nil {
		return 0, false
	}
	return *p.Price, true
}

// Patch is a decorative add-on identified by its image.
type Patch struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Price     Money  `json:"price"`
	CostPrice *Money `json:"cost_price,omitempty"`
	Units     int    `json:"units"`
}

func (p Patch) unit(mode Mode) Money {
	if mode.admin() && p.CostPrice != nil && *p.CostPrice > 0 {
		return *p.CostPrice
	}
	return p.Price
}

// PricingConfig is a keyed fee entry such as personalization_price.
type PricingConfig struct {
	Key       string `json:"key"`
	Price     *Money `json:"price,omitempty"`
	CostPrice *Money `json:"cost_price,omitempty"`
}

func (c PricingConfig) unit(mode Mode) Money {
	if mode.admin() && c.CostPrice != nil {
		return *c.CostPrice
	}
	if c.Price != nil {
		return *c.Price
	}
	return 0
}

// Catalog is an immutable snapshot of the reference data used for pricing.
type Catalog struct {
	ShirtTypes []ShirtType     `json:"shirtTypes"`
	Packs      []Pack          `json:"packs"`
	Patches    []Patch         `json:"patches"`
	Configs    []PricingConfig `json:"pricingConfigs"`
}

// ShirtType looks up a shirt type by id.
func (c Catalog) ShirtType(id int64) (ShirtType, bool) {
	for _, st := range c.ShirtTypes {
		if st.ID == id {
			return st, true
		}
	}
	return ShirtType{}, false
}

// Patch looks up a patch by its exact image key.
func (c Catalog) Patch(image string) (Patch, bool) {
	for _, p := range c.Patches {
		if p.Image == image {
			return p, true
		}
	}
	return Patch{}, false
}

// Config looks up a pricing config entry by key.
func (c Catalog) Config(key string) (PricingConfig, bool) {
	for _, cfg := range c.Configs {
		if cfg.Key == key {
			return cfg, true
		}
	}
	return PricingConfig{}, false
}

func (c Catalog) fee(key string, mode Mode) Money {
	cfg, ok := c.Config(key)
	if !ok {
		return 0
	}
	return cfg.unit(mode)
}

// CartItem is the canonical line item shape every pricing function consumes.
type CartItem struct {
	ID          string   `json:"id"`
	ProductID   *int64   `json:"product_id,omitempty"`
	ProductType string   `json:"product_type"`
	ShirtTypeID *int64   `json:"shirt_type_id,omitempty"`
	Size        string   `json:"size"`
	Quantity    int      `json:"quantity"`
	PlayerName  string   `json:"player_name,omitempty"`
	Numero      string   `json:"numero,omitempty"`
	PatchImages []string `json:"patch_images"`
	Price       *Money   `json:"price_cents,omitempty"`
	CostPrice   *Money   `json:"cost_price_cents,omitempty"`
}

// IsCustom reports whether the item is bespoke and awaits manual quotation.
func (it CartItem) IsCustom() bool { return it.ProductID == nil }

// IsTShirt reports whether the item is a t-shirt.
func (it CartItem) IsTShirt() bool { return it.ProductType == ProductTypeTShirt }

// Personalized reports whether a player name or number is printed on the item.
func (it CartItem) Personalized() bool { return it.hasName() || it.hasNumber() }

func (it CartItem) hasName() bool   { return strings.TrimSpace(it.PlayerName) != "" }
func (it CartItem) hasNumber() bool { return strings.TrimSpace(it.Numero) != "" }

// units is the effective quantity; anything below one counts as one.
func (it CartItem) units() int {
	switch {
	case it.Quantity < 1:
		return 1
	case it.Quantity > MaxQuantity:
		return MaxQuantity
	}
	return it.Quantity
}

// Clone returns a deep copy of the item.
func (it CartItem) Clone() CartItem {
	out := it
	if it.ProductID != nil {
		v := *it.ProductID
		out.ProductID = &v
	}
	if it.ShirtTypeID != nil {
		v := *it.ShirtTypeID
		out.ShirtTypeID = &v
	}
	out.PatchImages = append([]string(nil), it.PatchImages...)
	if out.PatchImages == nil {
		out.PatchImages = []string{}
	}
	out.Price = cloneMoney(it.Price)
	out.CostPrice = cloneMoney(it.CostPrice)
	return out
}
