package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kitshop/internal/pricing"
)

func TestDecodeCollectionAcceptsArrayAndEnvelope(t *testing.T) {
	arr, err := decodeCollection[pricingConfigDTO]([]byte(`[{"key":"patch_price","price":"2.00"}]`), "pricingConfigs")
	require.NoError(t, err)
	require.Len(t, arr, 1)

	env, err := decodeCollection[pricingConfigDTO]([]byte(`{"pricingConfigs":[{"key":"a"},{"key":"b"}],"total":2}`), "pricingConfigs")
	require.NoError(t, err)
	require.Len(t, env, 2)

	missing, err := decodeCollection[pricingConfigDTO]([]byte(`{"page":1}`), "pricingConfigs")
	require.NoError(t, err)
	require.Empty(t, missing)

	_, err = decodeCollection[pricingConfigDTO]([]byte(`<html>`), "pricingConfigs")
	require.Error(t, err)
}

func TestToPacksHandlesStringifiedItems(t *testing.T) {
	dtos, err := decodeCollection[packDTO]([]byte(`{"packs":[
		{"id":1,"name":"Trio","price":"17.00","cost_price":null,
		 "items":"[{\"product_type\":\"tshirt\",\"shirt_type_id\":\"2\",\"quantity\":3}]"},
		{"id":2,"name":"Broken","price":10,"items":"not json"}
	]}`), "packs")
	require.NoError(t, err)

	packs := toPacks(dtos)
	require.Len(t, packs, 2)
	require.Equal(t, []pricing.PackItem{{ProductType: "tshirt", ShirtTypeID: 2, Quantity: 3}}, packs[0].Items)
	require.Equal(t, pricing.Money(1700), *packs[0].Price)
	require.Nil(t, packs[0].CostPrice)
	require.Empty(t, packs[1].Items)
}

func TestConversionsRoundAndSkip(t *testing.T) {
	shirts := toShirtTypes([]shirtTypeDTO{{ID: pricing.NewAmount("4"), Name: "Kids", Price: pricing.NewAmount("14.995"), CostPrice: pricing.NewAmount("6")}})
	require.Equal(t, pricing.Money(1500), shirts[0].Price)
	require.Equal(t, pricing.Money(600), *shirts[0].CostPrice)

	patches := toPatches([]patchDTO{{Image: "  "}, {Image: "liga.png", Price: pricing.NewAmount("1.5"), Units: pricing.NewAmount("2")}})
	require.Equal(t, []pricing.Patch{{Image: "liga.png", Price: 150, Units: 2}}, patches)

	configs := toPricingConfigs([]pricingConfigDTO{{Key: ""}, {Key: "name_price", Price: pricing.NewAmount("3")}})
	require.Len(t, configs, 1)
	require.Equal(t, pricing.Money(300), *configs[0].Price)
}
