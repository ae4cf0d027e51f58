package ledger

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// FinalizeFunc runs inside the transfer's transaction after every move has
// been applied. An error rolls the whole transfer back.
type FinalizeFunc func(ctx context.Context, q store.Querier) error

// Transfer moves a form's items from its source holder to its destination
// holder. Check-out forms move stock from the warehouse to the form's user,
// check-in forms move it back.
//
// Nothing is written unless the source has every requested unit and enough
// of every bulk product. finalize, if not nil, is applied in the same
// transaction so the form's own state changes together with the ledger.
func (l *Ledger) Transfer(ctx context.Context, form *model.Form, finalize FinalizeFunc) error {
	src, dst, err := form.Type.Endpoints(form.UserID)
	if err != nil {
		return err
	}
	if !src.Valid() || !dst.Valid() {
		return model.Invalid("user_id", "required")
	}

	moves, err := model.NormalizeLines(form.Items)
	if err != nil {
		return err
	}

	orgID := form.OrganizationID
	err = l.locker.WithOrganizationLock(ctx, orgID, func(ctx context.Context) error {
		from, err := store.GetHolderInventory(ctx, l.db, orgID, src)
		if err != nil {
			return err
		}
		if err := checkAvailable(from, moves); err != nil {
			return err
		}

		to, err := store.GetHolderInventory(ctx, l.db, orgID, dst)
		if err != nil {
			return err
		}
		fromIdx, toIdx := from.Index(), to.Index()

		return store.InTx(ctx, l.db, func(tx *sql.Tx) error {
			for _, u := range moves.Unique {
				if err := store.ReassignUniqueItemHolder(ctx, tx, orgID, u.ProductID, u.UPI, dst); err != nil {
					return err
				}
			}
			for _, b := range moves.Bulk {
				if err := takeBulk(ctx, tx, orgID, src, fromIdx, b); err != nil {
					return err
				}
				if err := putBulk(ctx, tx, orgID, dst, toIdx, b); err != nil {
					return err
				}
			}
			if finalize != nil {
				return finalize(ctx, tx)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	slog.Info("inventory transferred", "org", orgID, "form", form.ID,
		"from", src.String(), "to", dst.String(), "total", moves.Total())
	return nil
}
