package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/oprema/internal/model"
)

const userColumns = `id, organization_id, username, password_hash, role, created_at, deleted_at`

// CreateUser creates a new user in an organization.
func CreateUser(ctx context.Context, q Querier, orgID, username, passwordHash, role string) (*model.User, error) {
	id := uuid.NewString()
	_, err := q.ExecContext(ctx,
		`INSERT INTO users (id, organization_id, username, password_hash, role) VALUES (?, ?, ?, ?, ?)`,
		id, orgID, username, passwordHash, role,
	)
	if isConstraint(err) {
		return nil, &model.ConflictError{Reason: fmt.Sprintf("username %q is taken", username)}
	}
	if err != nil {
		return nil, storageErr("creating user", err)
	}

	return GetUser(ctx, q, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, q Querier, id string) (*model.User, error) {
	u := &model.User{}
	err := q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.OrganizationID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting user", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username (including soft-deleted for auth checks).
func GetUserByUsername(ctx context.Context, q Querier, username string) (*model.User, error) {
	u := &model.User{}
	err := q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? ORDER BY deleted_at IS NULL DESC LIMIT 1`, username,
	).Scan(&u.ID, &u.OrganizationID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting user by username", err)
	}
	return u, nil
}

// ListUsers returns the organization's non-deleted users.
func ListUsers(ctx context.Context, q Querier, orgID string) ([]model.User, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE organization_id = ? AND deleted_at IS NULL ORDER BY username`, orgID,
	)
	if err != nil {
		return nil, storageErr("listing users", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.OrganizationID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt); err != nil {
			return nil, storageErr("scanning user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("listing users", err)
	}
	return users, nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, q Querier, orgID, id string) error {
	res, err := q.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP
		 WHERE organization_id = ? AND id = ? AND deleted_at IS NULL`,
		orgID, id,
	)
	if err != nil {
		return storageErr("deleting user", err)
	}
	return expectOne(res, "deleting user", "user", id)
}

// UpdateUserPassword replaces a user's password hash.
func UpdateUserPassword(ctx context.Context, q Querier, id, passwordHash string) error {
	res, err := q.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return storageErr("updating user password", err)
	}
	return expectOne(res, "updating user password", "user", id)
}
