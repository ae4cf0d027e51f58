package lock

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/oprema/internal/model"
)

// SQLiteBackend keeps leases in the organization_locks table. Acquisition is
// a single conditional upsert: it inserts a fresh row or takes over a row
// whose lease has expired, and changes nothing while a live lease exists.
type SQLiteBackend struct {
	db  *sql.DB
	now func() time.Time
}

var _ Backend = (*SQLiteBackend)(nil)

// NewSQLiteBackend returns a lease backend over the given database.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db, now: time.Now}
}

func (b *SQLiteBackend) TryAcquire(ctx context.Context, orgID, owner string, ttl time.Duration) (bool, error) {
	now := b.now()
	res, err := b.db.ExecContext(ctx,
		`INSERT INTO organization_locks (organization_id, owner, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (organization_id) DO UPDATE
		     SET owner = excluded.owner, expires_at = excluded.expires_at
		     WHERE organization_locks.expires_at <= ?`,
		orgID, owner, now.Add(ttl).UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return false, &model.StorageError{Op: "acquiring organization lock", Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, &model.StorageError{Op: "acquiring organization lock", Err: err}
	}
	return n == 1, nil
}

func (b *SQLiteBackend) Release(ctx context.Context, orgID, owner string) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM organization_locks WHERE organization_id = ? AND owner = ?`,
		orgID, owner,
	)
	if err != nil {
		return &model.StorageError{Op: "releasing organization lock", Err: err}
	}
	return nil
}
