package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// DeleteUser removes a user that holds no stock. Like DeleteProduct it runs
// under the organization lock so a transfer cannot hand the user items
// between the check and the delete.
func (l *Ledger) DeleteUser(ctx context.Context, orgID, userID string) error {
	err := l.locker.WithOrganizationLock(ctx, orgID, func(ctx context.Context) error {
		inv, err := store.GetHolderInventory(ctx, l.db, orgID, model.UserHolder(userID))
		if err != nil {
			return err
		}
		if n := len(inv.Bulk) + len(inv.Unique); n > 0 {
			return &model.ConflictError{Reason: fmt.Sprintf("user %s still holds %d inventory records", userID, n)}
		}
		return store.DeleteUser(ctx, l.db, orgID, userID)
	})
	if err != nil {
		return err
	}

	slog.Info("user deleted", "org", orgID, "user", userID)
	return nil
}
