package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "org1", "testuser", "hash123", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "testuser" || user.OrganizationID != "org1" {
		t.Errorf("unexpected user: %+v", user)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got == nil || got.Role != model.RoleUser {
		t.Errorf("expected role 'user', got %+v", got)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "org1", "alice", "hash", model.RoleUser)

	_, err := CreateUser(ctx, database, "org2", "alice", "hash", model.RoleUser)
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "org1", "alice", "hash", model.RoleAdmin)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("expected alice, got %+v", user)
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestListUsersScopedByOrganization(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "org1", "a", "hash", model.RoleUser)
	CreateUser(ctx, database, "org1", "b", "hash", model.RoleManager)
	CreateUser(ctx, database, "org2", "c", "hash", model.RoleUser)

	users, err := ListUsers(ctx, database, "org1")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "org1", "deleteme", "hash", model.RoleUser)
	if err := DeleteUser(ctx, database, "org1", user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	users, _ := ListUsers(ctx, database, "org1")
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}

	if err := DeleteUser(ctx, database, "org1", user.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found deleting twice, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "org1", "ana", "old", model.RoleUser)
	if err := UpdateUserPassword(ctx, database, user.ID, "new"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "new" {
		t.Errorf("expected new hash, got %q", got.PasswordHash)
	}

	if err := UpdateUserPassword(ctx, database, "missing", "x"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
