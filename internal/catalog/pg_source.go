package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-kitshop/internal/pricing"
)

// PGSource reads the catalog tables directly. Numeric columns are selected as
// text and converted with the same rounding as the HTTP payloads.
type PGSource struct {
	Pool *pgxpool.Pool
}

const (
	listShirtTypesSQL     = `SELECT id, name, price::text, cost_price::text FROM shirt_types ORDER BY id`
	listPacksSQL          = `SELECT id, name, price::text, cost_price::text FROM packs ORDER BY id`
	listPackItemsSQL      = `SELECT pack_id, product_type, COALESCE(shirt_type_id, 0), quantity FROM pack_items ORDER BY pack_id, id`
	listPatchesSQL        = `SELECT id, name, image, price::text, cost_price::text, units FROM patches WHERE active ORDER BY id`
	listPricingConfigsSQL = `SELECT key, price::text, cost_price::text FROM pricing_configs ORDER BY key`
)

func amountOf(text *string) pricing.Amount {
	if text == nil {
		return pricing.Amount{}
	}
	return pricing.NewAmount(*text)
}

// ShirtTypes implements Source.
func (s *PGSource) ShirtTypes(ctx context.Context) ([]pricing.ShirtType, error) {
	rows, err := s.Pool.Query(ctx, listShirtTypesSQL)
	if err != nil {
		return nil, fmt.Errorf("query shirt types: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (pricing.ShirtType, error) {
		var (
			st          pricing.ShirtType
			price, cost *string
		)
		if err := row.Scan(&st.ID, &st.Name, &price, &cost); err != nil {
			return st, err
		}
		st.Price = centsOf(amountOf(price))
		st.CostPrice = amountOf(cost).MoneyPtr()
		return st, nil
	})
}

// Packs implements Source.
func (s *PGSource) Packs(ctx context.Context) ([]pricing.Pack, error) {
	rows, err := s.Pool.Query(ctx, listPacksSQL)
	if err != nil {
		return nil, fmt.Errorf("query packs: %w", err)
	}
	packs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (pricing.Pack, error) {
		var (
			p           pricing.Pack
			price, cost *string
		)
		if err := row.Scan(&p.ID, &p.Name, &price, &cost); err != nil {
			return p, err
		}
		p.Price = amountOf(price).MoneyPtr()
		p.CostPrice = amountOf(cost).MoneyPtr()
		p.Items = []pricing.PackItem{}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	rows, err = s.Pool.Query(ctx, listPackItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("query pack items: %w", err)
	}
	defer rows.Close()
	index := make(map[int64]int, len(packs))
	for i, p := range packs {
		index[p.ID] = i
	}
	for rows.Next() {
		var (
			packID int64
			item   pricing.PackItem
		)
		if err := rows.Scan(&packID, &item.ProductType, &item.ShirtTypeID, &item.Quantity); err != nil {
			return nil, err
		}
		if i, ok := index[packID]; ok {
			packs[i].Items = append(packs[i].Items, item)
		}
	}
	return packs, rows.Err()
}

// Patches implements Source.
func (s *PGSource) Patches(ctx context.Context) ([]pricing.Patch, error) {
	rows, err := s.Pool.Query(ctx, listPatchesSQL)
	if err != nil {
		return nil, fmt.Errorf("query patches: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (pricing.Patch, error) {
		var (
			p           pricing.Patch
			price, cost *string
		)
		if err := row.Scan(&p.ID, &p.Name, &p.Image, &price, &cost, &p.Units); err != nil {
			return p, err
		}
		p.Price = centsOf(amountOf(price))
		p.CostPrice = amountOf(cost).MoneyPtr()
		return p, nil
	})
}

// PricingConfigs implements Source.
func (s *PGSource) PricingConfigs(ctx context.Context) ([]pricing.PricingConfig, error) {
	rows, err := s.Pool.Query(ctx, listPricingConfigsSQL)
	if err != nil {
		return nil, fmt.Errorf("query pricing configs: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (pricing.PricingConfig, error) {
		var (
			c           pricing.PricingConfig
			price, cost *string
		)
		if err := row.Scan(&c.Key, &price, &cost); err != nil {
			return c, err
		}
		c.Price = amountOf(price).MoneyPtr()
		c.CostPrice = amountOf(cost).MoneyPtr()
		return c, nil
	})
}
