package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/model"
)

// GetHolderInventory returns everything a holder possesses. A holder with no
// stock gets an empty, non-nil snapshot.
func GetHolderInventory(ctx context.Context, q Querier, orgID string, holder model.Holder) (*model.HolderInventory, error) {
	inv := &model.HolderInventory{
		Holder: holder,
		Bulk:   []model.BulkRecord{},
		Unique: []model.UniqueRecord{},
	}

	rows, err := q.QueryContext(ctx,
		`SELECT b.product_id, b.quantity, p.name
		 FROM bulk_inventory b
		 JOIN products p ON p.id = b.product_id
		 WHERE b.organization_id = ? AND b.holder = ?
		 ORDER BY p.name`, orgID, holder.Key(),
	)
	if err != nil {
		return nil, storageErr("getting bulk inventory", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := model.BulkRecord{Holder: holder}
		if err := rows.Scan(&r.ProductID, &r.Quantity, &r.ProductName); err != nil {
			return nil, storageErr("scanning bulk inventory", err)
		}
		inv.Bulk = append(inv.Bulk, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("getting bulk inventory", err)
	}

	rows, err = q.QueryContext(ctx,
		`SELECT u.product_id, u.upi, p.name
		 FROM unique_inventory u
		 JOIN products p ON p.id = u.product_id
		 WHERE u.organization_id = ? AND u.holder = ?
		 ORDER BY p.name, u.upi`, orgID, holder.Key(),
	)
	if err != nil {
		return nil, storageErr("getting unique inventory", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := model.UniqueRecord{Holder: holder}
		if err := rows.Scan(&r.ProductID, &r.UPI, &r.ProductName); err != nil {
			return nil, storageErr("scanning unique inventory", err)
		}
		inv.Unique = append(inv.Unique, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("getting unique inventory", err)
	}

	return inv, nil
}

// CreateBulkItem creates a bulk record. The holder must not already have one
// for the product.
func CreateBulkItem(ctx context.Context, q Querier, orgID, productID string, holder model.Holder, quantity int) error {
	if quantity <= 0 {
		return model.Invalid("quantity", "must be positive, got %d", quantity)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO bulk_inventory (organization_id, holder, product_id, quantity) VALUES (?, ?, ?, ?)`,
		orgID, holder.Key(), productID, quantity,
	)
	if isConstraint(err) {
		return &model.ConflictError{Reason: fmt.Sprintf("%s already has a bulk record for product %s", holder, productID)}
	}
	if err != nil {
		return storageErr("creating bulk item", err)
	}
	return nil
}

// UpdateBulkQuantity sets the quantity of an existing bulk record. Callers
// delete the record instead of setting it to zero.
func UpdateBulkQuantity(ctx context.Context, q Querier, orgID, productID string, holder model.Holder, quantity int) error {
	if quantity <= 0 {
		return model.Invalid("quantity", "must be positive, got %d", quantity)
	}

	res, err := q.ExecContext(ctx,
		`UPDATE bulk_inventory SET quantity = ?
		 WHERE organization_id = ? AND holder = ? AND product_id = ?`,
		quantity, orgID, holder.Key(), productID,
	)
	if err != nil {
		return storageErr("updating bulk quantity", err)
	}
	return expectOne(res, "updating bulk quantity", "bulk item", bulkID(productID, holder))
}

// DeleteBulkItem removes a bulk record.
func DeleteBulkItem(ctx context.Context, q Querier, orgID, productID string, holder model.Holder) error {
	res, err := q.ExecContext(ctx,
		`DELETE FROM bulk_inventory WHERE organization_id = ? AND holder = ? AND product_id = ?`,
		orgID, holder.Key(), productID,
	)
	if err != nil {
		return storageErr("deleting bulk item", err)
	}
	return expectOne(res, "deleting bulk item", "bulk item", bulkID(productID, holder))
}

// CreateUniqueItem records a new unit. A UPI is unique per product across the
// whole organization, whichever holder has it.
func CreateUniqueItem(ctx context.Context, q Querier, orgID, productID, upi string, holder model.Holder) error {
	if upi == "" {
		return model.Invalid("upi", "required")
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO unique_inventory (organization_id, product_id, upi, holder) VALUES (?, ?, ?, ?)`,
		orgID, productID, upi, holder.Key(),
	)
	if isConstraint(err) {
		return &model.DuplicateUPIError{ProductID: productID, UPI: upi}
	}
	if err != nil {
		return storageErr("creating unique item", err)
	}
	return nil
}

// DeleteUniqueItem removes a unit from whichever holder has it.
func DeleteUniqueItem(ctx context.Context, q Querier, orgID, productID, upi string) error {
	res, err := q.ExecContext(ctx,
		`DELETE FROM unique_inventory WHERE organization_id = ? AND product_id = ? AND upi = ?`,
		orgID, productID, upi,
	)
	if err != nil {
		return storageErr("deleting unique item", err)
	}
	return expectOne(res, "deleting unique item", "unique item", productID+"/"+upi)
}

// ReassignUniqueItemHolder hands a unit to a new holder. The row is updated in
// place, so the unit is never absent or duplicated.
func ReassignUniqueItemHolder(ctx context.Context, q Querier, orgID, productID, upi string, holder model.Holder) error {
	res, err := q.ExecContext(ctx,
		`UPDATE unique_inventory SET holder = ?
		 WHERE organization_id = ? AND product_id = ? AND upi = ?`,
		holder.Key(), orgID, productID, upi,
	)
	if err != nil {
		return storageErr("reassigning unique item", err)
	}
	return expectOne(res, "reassigning unique item", "unique item", productID+"/"+upi)
}

// FindUniqueItem returns the record for a unit, or nil if it does not exist.
func FindUniqueItem(ctx context.Context, q Querier, orgID, productID, upi string) (*model.UniqueRecord, error) {
	var key string
	err := q.QueryRowContext(ctx,
		`SELECT holder FROM unique_inventory WHERE organization_id = ? AND product_id = ? AND upi = ?`,
		orgID, productID, upi,
	).Scan(&key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("finding unique item", err)
	}

	holder, err := model.ParseHolderKey(key)
	if err != nil {
		return nil, storageErr("finding unique item", err)
	}
	return &model.UniqueRecord{ProductID: productID, UPI: upi, Holder: holder}, nil
}

// IsProductReferenced reports whether any holder in the organization has a
// bulk or unique record of the product.
func IsProductReferenced(ctx context.Context, q Querier, orgID, productID string) (bool, error) {
	var referenced bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bulk_inventory WHERE organization_id = ? AND product_id = ?)
		     OR EXISTS (SELECT 1 FROM unique_inventory WHERE organization_id = ? AND product_id = ?)`,
		orgID, productID, orgID, productID,
	).Scan(&referenced)
	if err != nil {
		return false, storageErr("checking product references", err)
	}
	return referenced, nil
}

// ProductTotals returns the total bulk quantity and unit count of a product
// across all holders of the organization.
func ProductTotals(ctx context.Context, q Querier, orgID, productID string) (bulk, units int, err error) {
	err = q.QueryRowContext(ctx,
		`SELECT (SELECT COALESCE(SUM(quantity), 0) FROM bulk_inventory WHERE organization_id = ? AND product_id = ?),
		        (SELECT COUNT(*) FROM unique_inventory WHERE organization_id = ? AND product_id = ?)`,
		orgID, productID, orgID, productID,
	).Scan(&bulk, &units)
	if err != nil {
		return 0, 0, storageErr("summing product totals", err)
	}
	return bulk, units, nil
}

func bulkID(productID string, holder model.Holder) string {
	return productID + "@" + holder.Key()
}
