package ledger

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// AddInventory puts new stock into the warehouse. Bulk lines merge into
// existing quantities. A UPI that already exists anywhere in the organization
// rejects the whole request before anything is written.
func (l *Ledger) AddInventory(ctx context.Context, orgID string, lines []model.Line) error {
	moves, err := model.NormalizeLines(lines)
	if err != nil {
		return err
	}

	wh := model.Warehouse()
	err = l.locker.WithOrganizationLock(ctx, orgID, func(ctx context.Context) error {
		if err := loadCatalog(ctx, l.db, orgID, moves); err != nil {
			return err
		}

		for _, u := range moves.Unique {
			existing, err := store.FindUniqueItem(ctx, l.db, orgID, u.ProductID, u.UPI)
			if err != nil {
				return err
			}
			if existing != nil {
				return &model.DuplicateUPIError{ProductID: u.ProductID, UPI: u.UPI, Holder: existing.Holder}
			}
		}

		inv, err := store.GetHolderInventory(ctx, l.db, orgID, wh)
		if err != nil {
			return err
		}
		idx := inv.Index()

		return store.InTx(ctx, l.db, func(tx *sql.Tx) error {
			for _, b := range moves.Bulk {
				if err := putBulk(ctx, tx, orgID, wh, idx, b); err != nil {
					return err
				}
			}
			for _, u := range moves.Unique {
				if err := store.CreateUniqueItem(ctx, tx, orgID, u.ProductID, u.UPI, wh); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	slog.Info("inventory added", "org", orgID, "bulk", len(moves.Bulk), "units", len(moves.Unique))
	return nil
}

// RemoveInventory takes stock out of the warehouse. Every line is checked
// against the warehouse before any record is changed.
func (l *Ledger) RemoveInventory(ctx context.Context, orgID string, lines []model.Line) error {
	moves, err := model.NormalizeLines(lines)
	if err != nil {
		return err
	}

	wh := model.Warehouse()
	err = l.locker.WithOrganizationLock(ctx, orgID, func(ctx context.Context) error {
		if err := loadCatalog(ctx, l.db, orgID, moves); err != nil {
			return err
		}

		inv, err := store.GetHolderInventory(ctx, l.db, orgID, wh)
		if err != nil {
			return err
		}
		if err := checkAvailable(inv, moves); err != nil {
			return err
		}
		idx := inv.Index()

		return store.InTx(ctx, l.db, func(tx *sql.Tx) error {
			for _, b := range moves.Bulk {
				if err := takeBulk(ctx, tx, orgID, wh, idx, b); err != nil {
					return err
				}
			}
			for _, u := range moves.Unique {
				if err := store.DeleteUniqueItem(ctx, tx, orgID, u.ProductID, u.UPI); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	slog.Info("inventory removed", "org", orgID, "bulk", len(moves.Bulk), "units", len(moves.Unique))
	return nil
}
