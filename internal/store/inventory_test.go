package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

const testOrg = "org1"

func newProduct(t *testing.T, database *sql.DB, name string, hasUPI bool) *model.Product {
	t.Helper()
	p, err := CreateProduct(context.Background(), database, testOrg, name, hasUPI)
	if err != nil {
		t.Fatalf("CreateProduct(%q): %v", name, err)
	}
	return p
}

func TestGetHolderInventoryEmpty(t *testing.T) {
	database := db.NewTestDB(t)

	inv, err := GetHolderInventory(context.Background(), database, testOrg, model.UserHolder("nobody"))
	if err != nil {
		t.Fatalf("GetHolderInventory: %v", err)
	}
	if inv.Bulk == nil || inv.Unique == nil {
		t.Error("expected non-nil empty slices")
	}
	if len(inv.Bulk) != 0 || len(inv.Unique) != 0 {
		t.Errorf("expected empty inventory, got %+v", inv)
	}
}

func TestBulkItemLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := newProduct(t, database, "Cable", false)
	wh := model.Warehouse()

	if err := CreateBulkItem(ctx, database, testOrg, p.ID, wh, 5); err != nil {
		t.Fatalf("CreateBulkItem: %v", err)
	}
	if err := UpdateBulkQuantity(ctx, database, testOrg, p.ID, wh, 8); err != nil {
		t.Fatalf("UpdateBulkQuantity: %v", err)
	}

	inv, _ := GetHolderInventory(ctx, database, testOrg, wh)
	if len(inv.Bulk) != 1 || inv.Bulk[0].Quantity != 8 || inv.Bulk[0].ProductName != "Cable" {
		t.Fatalf("unexpected inventory: %+v", inv.Bulk)
	}

	if err := DeleteBulkItem(ctx, database, testOrg, p.ID, wh); err != nil {
		t.Fatalf("DeleteBulkItem: %v", err)
	}
	inv, _ = GetHolderInventory(ctx, database, testOrg, wh)
	if len(inv.Bulk) != 0 {
		t.Errorf("expected no bulk records, got %+v", inv.Bulk)
	}
}

func TestBulkItemRejectsNonPositiveQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := newProduct(t, database, "Cable", false)
	wh := model.Warehouse()

	for _, qty := range []int{0, -3} {
		if err := CreateBulkItem(ctx, database, testOrg, p.ID, wh, qty); !errors.Is(err, model.ErrValidation) {
			t.Errorf("CreateBulkItem(%d): expected validation error, got %v", qty, err)
		}
	}

	CreateBulkItem(ctx, database, testOrg, p.ID, wh, 2)
	if err := UpdateBulkQuantity(ctx, database, testOrg, p.ID, wh, 0); !errors.Is(err, model.ErrValidation) {
		t.Errorf("UpdateBulkQuantity(0): expected validation error, got %v", err)
	}
}

func TestBulkItemMissingRecord(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := newProduct(t, database, "Cable", false)
	u := model.UserHolder("u1")

	if err := UpdateBulkQuantity(ctx, database, testOrg, p.ID, u, 1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("UpdateBulkQuantity: expected not found, got %v", err)
	}
	if err := DeleteBulkItem(ctx, database, testOrg, p.ID, u); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("DeleteBulkItem: expected not found, got %v", err)
	}
}

func TestUniqueItemLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := newProduct(t, database, "Laptop", true)
	wh := model.Warehouse()
	alice := model.UserHolder("alice")

	if err := CreateUniqueItem(ctx, database, testOrg, p.ID, "L-1", wh); err != nil {
		t.Fatalf("CreateUniqueItem: %v", err)
	}

	err := CreateUniqueItem(ctx, database, testOrg, p.ID, "L-1", alice)
	var dup *model.DuplicateUPIError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateUPIError, got %v", err)
	}

	if err := ReassignUniqueItemHolder(ctx, database, testOrg, p.ID, "L-1", alice); err != nil {
		t.Fatalf("ReassignUniqueItemHolder: %v", err)
	}

	rec, err := FindUniqueItem(ctx, database, testOrg, p.ID, "L-1")
	if err != nil {
		t.Fatalf("FindUniqueItem: %v", err)
	}
	if rec == nil || rec.Holder != alice {
		t.Fatalf("expected alice to hold L-1, got %+v", rec)
	}

	whInv, _ := GetHolderInventory(ctx, database, testOrg, wh)
	if len(whInv.Unique) != 0 {
		t.Errorf("expected warehouse to hold no units, got %+v", whInv.Unique)
	}

	if err := DeleteUniqueItem(ctx, database, testOrg, p.ID, "L-1"); err != nil {
		t.Fatalf("DeleteUniqueItem: %v", err)
	}
	if err := DeleteUniqueItem(ctx, database, testOrg, p.ID, "L-1"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found deleting twice, got %v", err)
	}
	if err := ReassignUniqueItemHolder(ctx, database, testOrg, p.ID, "L-1", wh); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found reassigning missing unit, got %v", err)
	}
}

func TestIsProductReferenced(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	bulk := newProduct(t, database, "Cable", false)
	unit := newProduct(t, database, "Laptop", true)
	idle := newProduct(t, database, "Chair", false)

	CreateBulkItem(ctx, database, testOrg, bulk.ID, model.UserHolder("u1"), 1)
	CreateUniqueItem(ctx, database, testOrg, unit.ID, "L-1", model.Warehouse())

	for _, tt := range []struct {
		id   string
		want bool
	}{
		{bulk.ID, true},
		{unit.ID, true},
		{idle.ID, false},
	} {
		got, err := IsProductReferenced(ctx, database, testOrg, tt.id)
		if err != nil {
			t.Fatalf("IsProductReferenced: %v", err)
		}
		if got != tt.want {
			t.Errorf("IsProductReferenced(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestInventoryScopedByOrganization(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := newProduct(t, database, "Cable", false)

	CreateBulkItem(ctx, database, testOrg, p.ID, model.Warehouse(), 4)

	other, _ := GetHolderInventory(ctx, database, "org2", model.Warehouse())
	if len(other.Bulk) != 0 {
		t.Errorf("expected org2 warehouse empty, got %+v", other.Bulk)
	}

	referenced, _ := IsProductReferenced(ctx, database, "org2", p.ID)
	if referenced {
		t.Error("product should not be referenced in org2")
	}
}

func TestProductTotals(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := newProduct(t, database, "Cable", false)

	CreateBulkItem(ctx, database, testOrg, p.ID, model.Warehouse(), 4)
	CreateBulkItem(ctx, database, testOrg, p.ID, model.UserHolder("u1"), 3)

	bulk, units, err := ProductTotals(ctx, database, testOrg, p.ID)
	if err != nil {
		t.Fatalf("ProductTotals: %v", err)
	}
	if bulk != 7 || units != 0 {
		t.Errorf("expected 7 bulk and 0 units, got %d and %d", bulk, units)
	}
}

func TestInTxRollsBack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := newProduct(t, database, "Cable", false)

	boom := errors.New("boom")
	err := InTx(ctx, database, func(tx *sql.Tx) error {
		if err := CreateBulkItem(ctx, tx, testOrg, p.ID, model.Warehouse(), 4); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	inv, _ := GetHolderInventory(ctx, database, testOrg, model.Warehouse())
	if len(inv.Bulk) != 0 {
		t.Errorf("expected rollback, got %+v", inv.Bulk)
	}
}
