package ledger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// CreateProduct adds a product to the organization's catalog.
func (l *Ledger) CreateProduct(ctx context.Context, orgID, name string, hasUPI bool) (*model.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.Invalid("name", "required")
	}

	p, err := store.CreateProduct(ctx, l.db, orgID, name, hasUPI)
	if err != nil {
		return nil, err
	}

	slog.Info("product created", "org", orgID, "product", p.ID, "name", p.Name, "has_upi", p.HasUPI)
	return p, nil
}

// Product returns a single catalog entry.
func (l *Ledger) Product(ctx context.Context, orgID, id string) (*model.Product, error) {
	p, err := store.GetProduct(ctx, l.db, orgID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &model.NotFoundError{Kind: "product", ID: id}
	}
	return p, nil
}

// Products lists the organization's catalog.
func (l *Ledger) Products(ctx context.Context, orgID string) ([]model.Product, error) {
	products, err := store.ListProducts(ctx, l.db, orgID)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// ProductStock sums a product's stock across every holder.
func (l *Ledger) ProductStock(ctx context.Context, orgID, id string) (*model.ProductStock, error) {
	if _, err := l.Product(ctx, orgID, id); err != nil {
		return nil, err
	}

	qty, units, err := store.ProductTotals(ctx, l.db, orgID, id)
	if err != nil {
		return nil, err
	}
	return &model.ProductStock{ProductID: id, Quantity: qty, Units: units}, nil
}

// DeleteProduct removes a product that no holder has any stock of. The check
// and the delete share the organization lock with every inventory mutation,
// so stock cannot be added between them.
func (l *Ledger) DeleteProduct(ctx context.Context, orgID, id string) error {
	err := l.locker.WithOrganizationLock(ctx, orgID, func(ctx context.Context) error {
		referenced, err := store.IsProductReferenced(ctx, l.db, orgID, id)
		if err != nil {
			return err
		}
		if referenced {
			return &model.ProductInUseError{ProductID: id}
		}
		return store.DeleteProduct(ctx, l.db, orgID, id)
	})
	if err != nil {
		return err
	}

	slog.Info("product deleted", "org", orgID, "product", id)
	return nil
}
