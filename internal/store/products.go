package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/erazemk/oprema/internal/model"
)

// CreateProduct adds a product to the organization's catalog.
func CreateProduct(ctx context.Context, q Querier, orgID, name string, hasUPI bool) (*model.Product, error) {
	id := uuid.NewString()
	_, err := q.ExecContext(ctx,
		`INSERT INTO products (id, organization_id, name, has_upi) VALUES (?, ?, ?, ?)`,
		id, orgID, name, hasUPI,
	)
	if isConstraint(err) {
		return nil, &model.ConflictError{Reason: fmt.Sprintf("product %q already exists", name)}
	}
	if err != nil {
		return nil, storageErr("creating product", err)
	}

	return GetProduct(ctx, q, orgID, id)
}

// GetProduct returns a product by ID, or nil if the organization has no such
// product.
func GetProduct(ctx context.Context, q Querier, orgID, id string) (*model.Product, error) {
	p := &model.Product{}
	err := q.QueryRowContext(ctx,
		`SELECT id, organization_id, name, has_upi, created_at
		 FROM products WHERE organization_id = ? AND id = ?`, orgID, id,
	).Scan(&p.ID, &p.OrganizationID, &p.Name, &p.HasUPI, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting product", err)
	}
	return p, nil
}

// ListProducts returns the organization's catalog ordered by name.
func ListProducts(ctx context.Context, q Querier, orgID string) ([]model.Product, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, organization_id, name, has_upi, created_at
		 FROM products WHERE organization_id = ? ORDER BY name`, orgID,
	)
	if err != nil {
		return nil, storageErr("listing products", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.HasUPI, &p.CreatedAt); err != nil {
			return nil, storageErr("scanning product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("listing products", err)
	}
	return products, nil
}

// GetProducts returns the requested products keyed by ID. Unknown IDs are
// simply absent from the result.
func GetProducts(ctx context.Context, q Querier, orgID string, ids []string) (map[string]model.Product, error) {
	catalog := make(map[string]model.Product, len(ids))
	if len(ids) == 0 {
		return catalog, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, orgID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	rows, err := q.QueryContext(ctx,
		`SELECT id, organization_id, name, has_upi, created_at
		 FROM products WHERE organization_id = ? AND id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, storageErr("getting products", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.HasUPI, &p.CreatedAt); err != nil {
			return nil, storageErr("scanning product", err)
		}
		catalog[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("getting products", err)
	}
	return catalog, nil
}

// DeleteProduct removes a product from the catalog. It does not check for
// inventory references; see ledger.DeleteProduct.
func DeleteProduct(ctx context.Context, q Querier, orgID, id string) error {
	res, err := q.ExecContext(ctx,
		`DELETE FROM products WHERE organization_id = ? AND id = ?`, orgID, id,
	)
	if err != nil {
		return storageErr("deleting product", err)
	}
	return expectOne(res, "deleting product", "product", id)
}
