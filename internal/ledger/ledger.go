// Package ledger moves stock between holders. Every read-validate-write
// sequence runs under the organization lock, validates the whole request
// against a snapshot and only then applies it in a single transaction.
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/lock"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// Ledger is the organization-scoped inventory ledger.
type Ledger struct {
	db     *sql.DB
	locker lock.Locker
}

// New creates a ledger over db, serializing mutations with locker.
func New(db *sql.DB, locker lock.Locker) *Ledger {
	return &Ledger{db: db, locker: locker}
}

// HolderInventory returns what a holder currently possesses. It does not take
// the lock and may observe a state that is about to change.
func (l *Ledger) HolderInventory(ctx context.Context, orgID string, holder model.Holder) (*model.HolderInventory, error) {
	if !holder.Valid() {
		return nil, model.Invalid("holder", "required")
	}
	return store.GetHolderInventory(ctx, l.db, orgID, holder)
}

// loadCatalog fetches the products referenced by moves and checks that each
// is requested in the right shape.
func loadCatalog(ctx context.Context, q store.Querier, orgID string, moves model.Moves) error {
	catalog, err := store.GetProducts(ctx, q, orgID, moves.ProductIDs())
	if err != nil {
		return err
	}
	return moves.CheckCatalog(catalog)
}

// checkAvailable verifies a holder's snapshot covers every move. The first
// shortfall is reported.
func checkAvailable(inv *model.HolderInventory, moves model.Moves) error {
	idx := inv.Index()
	for _, u := range moves.Unique {
		if !idx.HasUPI(u.ProductID, u.UPI) {
			return &model.ItemNotFoundError{ProductID: u.ProductID, UPI: u.UPI, Holder: inv.Holder}
		}
	}
	for _, b := range moves.Bulk {
		if b.Quantity <= 0 || b.Quantity > model.MaxQuantity {
			return model.Invalid("quantity", "product %s: must be between 1 and %d, got %d", b.ProductID, model.MaxQuantity, b.Quantity)
		}
		if have := idx.Quantity(b.ProductID); have < b.Quantity {
			return &model.InsufficientQuantityError{
				ProductID: b.ProductID,
				Holder:    inv.Holder,
				Available: have,
				Requested: b.Quantity,
			}
		}
	}
	return nil
}

// takeBulk lowers a holder's bulk quantity, deleting the record at zero.
func takeBulk(ctx context.Context, q store.Querier, orgID string, holder model.Holder, idx *model.InventoryIndex, b model.BulkMove) error {
	rest := idx.Quantity(b.ProductID) - b.Quantity
	if rest == 0 {
		return store.DeleteBulkItem(ctx, q, orgID, b.ProductID, holder)
	}
	return store.UpdateBulkQuantity(ctx, q, orgID, b.ProductID, holder, rest)
}

// putBulk raises a holder's bulk quantity, creating the record if needed.
func putBulk(ctx context.Context, q store.Querier, orgID string, holder model.Holder, idx *model.InventoryIndex, b model.BulkMove) error {
	if idx.HasBulk(b.ProductID) {
		total, ok := model.AddQuantity(idx.Quantity(b.ProductID), b.Quantity)
		if !ok {
			return &model.ConflictError{Reason: fmt.Sprintf("%s would hold more than %d of product %s", holder, model.MaxQuantity, b.ProductID)}
		}
		return store.UpdateBulkQuantity(ctx, q, orgID, b.ProductID, holder, total)
	}
	return store.CreateBulkItem(ctx, q, orgID, b.ProductID, holder, b.Quantity)
}
