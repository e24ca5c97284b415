package pricing_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kitshop/internal/pricing"
)

func TestPriceLinePatchAdditivity(t *testing.T) {
	catalog := pricing.Catalog{
		ShirtTypes: []pricing.ShirtType{{ID: 1, Price: 2000}},
		Patches: []pricing.Patch{
			{Image: "liga.png", Price: 150, Units: 2},
			{Image: "champions.png", Price: 250},
		},
	}
	item := shirt("a", 1, 3)
	item.PatchImages = []string{"liga.png", "champions.png", "liga.png", "missing.png"}
	cart := []pricing.CartItem{item}

	line := pricing.PriceLine(item, cart, catalog, pricing.ModeCustomer)
	require.Equal(t, pricing.Money(3*(150+250+150)), line.PatchSurcharge)
	require.Equal(t, line.Base+line.PatchSurcharge, line.Total)

	item.PatchImages = append(item.PatchImages, "liga.png")
	more := pricing.PriceLine(item, []pricing.CartItem{item}, catalog, pricing.ModeCustomer)
	require.Equal(t, line.PatchSurcharge+3*150, more.PatchSurcharge)
}

func TestPriceLineLegacyPatchFee(t *testing.T) {
	catalog := pricing.Catalog{
		ShirtTypes: []pricing.ShirtType{{ID: 1, Price: 2000}},
		Configs:    []pricing.PricingConfig{{Key: pricing.KeyPatchPrice, Price: money(200), CostPrice: money(80)}},
	}
	item := shirt("a", 1, 2)
	item.PatchImages = []string{"a.png", "b.png"}

	customer := pricing.PriceLine(item, []pricing.CartItem{item}, catalog, pricing.ModeCustomer)
	require.Equal(t, pricing.Money(2*2*200), customer.PatchSurcharge)

	admin := pricing.PriceLine(item, []pricing.CartItem{item}, catalog, pricing.ModeAdmin)
	require.Equal(t, pricing.Money(2*2*80), admin.PatchSurcharge)
}

func TestPriceLinePersonalizationToggle(t *testing.T) {
	catalog := pricing.Catalog{
		ShirtTypes: []pricing.ShirtType{{ID: 1, Price: 2000}},
		Configs:    []pricing.PricingConfig{{Key: pricing.KeyPersonalizationPrice, Price: money(300)}},
	}
	plain := shirt("a", 1, 2)
	named := plain
	named.PlayerName = "Eusebio"

	before := pricing.Aggregate([]pricing.CartItem{plain}, catalog, pricing.ModeCustomer)
	after := pricing.Aggregate([]pricing.CartItem{named}, catalog, pricing.ModeCustomer)
	require.Equal(t, pricing.Money(600), after.Total-before.Total)

	both := named
	both.Numero = "10"
	withNumber := pricing.Aggregate([]pricing.CartItem{both}, catalog, pricing.ModeCustomer)
	require.Equal(t, after.Total, withNumber.Total, "unified fee is charged once per unit")

	blank := plain
	blank.PlayerName = "   "
	require.Equal(t, before.Total, pricing.Aggregate([]pricing.CartItem{blank}, catalog, pricing.ModeCustomer).Total)
}

func TestPriceLineLegacyPersonalizationFees(t *testing.T) {
	catalog := pricing.Catalog{
		ShirtTypes: []pricing.ShirtType{{ID: 1, Price: 2000}},
		Configs: []pricing.PricingConfig{
			{Key: pricing.KeyNumberPrice, Price: money(300), CostPrice: money(100)},
			{Key: pricing.KeyNamePrice, Price: money(250)},
		},
	}
	item := shirt("a", 1, 2)
	item.Numero = "7"
	line := pricing.PriceLine(item, []pricing.CartItem{item}, catalog, pricing.ModeCustomer)
	require.Equal(t, pricing.Money(600), line.PersonalizationSurcharge)

	item.PlayerName = "Rui"
	line = pricing.PriceLine(item, []pricing.CartItem{item}, catalog, pricing.ModeCustomer)
	require.Equal(t, pricing.Money(2*(300+250)), line.PersonalizationSurcharge)

	admin := pricing.PriceLine(item, []pricing.CartItem{item}, catalog, pricing.ModeAdmin)
	require.Equal(t, pricing.Money(2*(100+250)), admin.PersonalizationSurcharge)
}

func TestPriceLineBaseFallbacks(t *testing.T) {
	catalog := pricing.Catalog{ShirtTypes: []pricing.ShirtType{{ID: 1, Price: 2000}}}

	embedded := shirt("a", 1, 1)
	embedded.Price = money(2500)
	line := pricing.PriceLine(embedded, []pricing.CartItem{embedded}, catalog, pricing.ModeCustomer)
	require.Equal(t, pricing.Money(2500), line.UnitBase)

	zero := shirt("b", 1, 1)
	zero.Price = money(0)
	line = pricing.PriceLine(zero, []pricing.CartItem{zero}, catalog, pricing.ModeCustomer)
	require.Equal(t, pricing.Money(2000), line.UnitBase, "a zero embedded price defers to the shirt type")

	unknownType := shirt("c", 99, 2)
	line = pricing.PriceLine(unknownType, []pricing.CartItem{unknownType}, catalog, pricing.ModeCustomer)
	require.True(t, line.Priced)
	require.Zero(t, line.Total)

	admin := shirt("d", 1, 1)
	line = pricing.PriceLine(admin, []pricing.CartItem{admin}, catalog, pricing.ModeAdmin)
	require.Equal(t, pricing.Money(2000), line.UnitBase, "without a cost price admin falls back to price")

	plain := pricing.CartItem{ID: "e", ProductID: id(7), ProductType: "shoes", Quantity: 2, Price: money(4000), CostPrice: money(2500)}
	require.Equal(t, pricing.Money(8000), pricing.PriceLine(plain, nil, catalog, pricing.ModeCustomer).Total)
	require.Equal(t, pricing.Money(5000), pricing.PriceLine(plain, nil, catalog, pricing.ModeAdmin).Total)
}

func TestPriceLineClampsQuantity(t *testing.T) {
	catalog := pricing.Catalog{ShirtTypes: []pricing.ShirtType{{ID: 1, Price: 2000}}}
	item := shirt("a", 1, 0)
	line := pricing.PriceLine(item, []pricing.CartItem{item}, catalog, pricing.ModeCustomer)
	require.Equal(t, 1, line.Quantity)
	require.Equal(t, pricing.Money(2000), line.Total)
}

func TestPriceLineCapsLargeQuantities(t *testing.T) {
	catalog := pricing.Catalog{ShirtTypes: []pricing.ShirtType{{ID: 1, Price: 100000}}}
	items := pricing.NormalizeAll(decodeRaw(t, `[{"product_id":1,"product_type":"tshirt","shirt_type_id":1,"quantity":100000000000000000}]`))

	summary := pricing.Aggregate(items, catalog, pricing.ModeCustomer)
	require.Equal(t, pricing.MaxQuantity, summary.Lines[0].Quantity)
	require.Equal(t, pricing.Money(pricing.MaxQuantity)*100000, summary.Subtotal)
	require.Positive(t, summary.Total)

	direct := shirt("b", 1, 1<<40)
	line := pricing.PriceLine(direct, []pricing.CartItem{direct}, catalog, pricing.ModeCustomer)
	require.Equal(t, pricing.MaxQuantity, line.Quantity)
}

func TestAggregateLargestBoundedCartStaysExact(t *testing.T) {
	items := make([]pricing.CartItem, 0, 500)
	for i := 0; i < 500; i++ {
		items = append(items, pricing.CartItem{ID: strconv.Itoa(i), ProductID: id(int64(i + 1)), ProductType: "banner", Quantity: pricing.MaxQuantity, Price: money(pricing.MaxAmount)})
	}
	summary := pricing.Aggregate(items, pricing.Catalog{}, pricing.ModeCustomer)
	want := 500 * pricing.Money(pricing.MaxQuantity) * pricing.MaxAmount
	require.Equal(t, want, summary.Subtotal)
	require.Equal(t, want, summary.Total)
}
