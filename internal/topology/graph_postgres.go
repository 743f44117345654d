package topology

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// PostgresGraph reads catalog structure from the views the catalog-authoring
// service maintains:
//
//	catalog_store_catalogs(catalog_code, store_code)
//	category_descendants(ancestor_code, category_code)
//	category_offers(category_code, offer_code)
//	offer_visibility(offer_code, store_code)
//
// A row in offer_visibility means the offer is reachable through at least
// one linked, included category in that store.
type PostgresGraph struct {
	db *sql.DB
}

func NewPostgresGraph(db *sql.DB) *PostgresGraph {
	return &PostgresGraph{db: db}
}

func (g *PostgresGraph) StoresForCatalog(ctx context.Context, catalogCode string) ([]string, error) {
	return g.queryCodes(ctx,
		`SELECT store_code FROM catalog_store_catalogs WHERE catalog_code = $1`,
		catalogCode)
}

func (g *PostgresGraph) CategoryTree(ctx context.Context, categoryCode string) ([]string, error) {
	codes, err := g.queryCodes(ctx,
		`SELECT category_code FROM category_descendants WHERE ancestor_code = $1`,
		categoryCode)
	if err != nil {
		return nil, err
	}
	return append([]string{categoryCode}, codes...), nil
}

func (g *PostgresGraph) OffersInTree(ctx context.Context, categoryCodes []string) ([]string, error) {
	return g.queryCodes(ctx,
		`SELECT DISTINCT offer_code FROM category_offers WHERE category_code = ANY($1)`,
		pq.Array(categoryCodes))
}

func (g *PostgresGraph) IsOfferVisible(ctx context.Context, offerCode, storeCode string) (bool, error) {
	var visible bool
	err := g.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM offer_visibility WHERE offer_code = $1 AND store_code = $2)`,
		offerCode, storeCode).Scan(&visible)
	return visible, err
}

func (g *PostgresGraph) queryCodes(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
