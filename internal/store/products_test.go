package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

func TestCreateAndGetProduct(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p, err := CreateProduct(ctx, database, testOrg, "Laptop", true)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.Name != "Laptop" || !p.HasUPI || p.ID == "" {
		t.Errorf("unexpected product: %+v", p)
	}

	got, err := GetProduct(ctx, database, testOrg, p.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got == nil || got.ID != p.ID {
		t.Errorf("expected product %s, got %+v", p.ID, got)
	}

	// Other organizations can't see it.
	got, _ = GetProduct(ctx, database, "org2", p.ID)
	if got != nil {
		t.Error("expected nil product for another organization")
	}
}

func TestCreateProductDuplicateName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateProduct(ctx, database, testOrg, "Laptop", true)

	_, err := CreateProduct(ctx, database, testOrg, "Laptop", false)
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}

	// Same name in another organization is fine.
	if _, err := CreateProduct(ctx, database, "org2", "Laptop", true); err != nil {
		t.Errorf("CreateProduct in org2: %v", err)
	}
}

func TestListAndGetProducts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := newProduct(t, database, "Cable", false)
	b := newProduct(t, database, "Adapter", false)

	list, err := ListProducts(ctx, database, testOrg)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Adapter" {
		t.Errorf("expected 2 products ordered by name, got %+v", list)
	}

	catalog, err := GetProducts(ctx, database, testOrg, []string{a.ID, b.ID, "missing"})
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	if len(catalog) != 2 {
		t.Errorf("expected 2 catalog entries, got %d", len(catalog))
	}
	if _, ok := catalog["missing"]; ok {
		t.Error("unexpected entry for missing product")
	}
}

func TestDeleteProduct(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := newProduct(t, database, "Cable", false)
	if err := DeleteProduct(ctx, database, testOrg, p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if err := DeleteProduct(ctx, database, testOrg, p.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
