package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

func newForm(id, userID string, created time.Time) *model.Form {
	return &model.Form{
		ID:             id,
		OrganizationID: testOrg,
		UserID:         userID,
		Type:           model.FormTypeCheckOut,
		Items:          []model.Line{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", UPIs: []string{"U1"}}},
		Status:         model.FormStatusPending,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestCreateAndGetForm(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	f := newForm("f1", "u1", time.Now())
	if err := CreateForm(ctx, database, f); err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	got, err := GetForm(ctx, database, testOrg, "f1")
	if err != nil {
		t.Fatalf("GetForm: %v", err)
	}
	if got == nil {
		t.Fatal("expected form, got nil")
	}
	if got.Status != model.FormStatusPending || got.Type != model.FormTypeCheckOut {
		t.Errorf("unexpected form: %+v", got)
	}
	if len(got.Items) != 2 || got.Items[1].UPIs[0] != "U1" {
		t.Errorf("items not preserved: %+v", got.Items)
	}
	if got.ApprovedAt != nil {
		t.Error("expected nil approved_at")
	}

	missing, _ := GetForm(ctx, database, "org2", "f1")
	if missing != nil {
		t.Error("expected nil form for another organization")
	}
}

func TestListFormsFiltered(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	base := time.Now()

	CreateForm(ctx, database, newForm("f1", "u1", base))
	CreateForm(ctx, database, newForm("f2", "u2", base.Add(time.Second)))
	rejected := newForm("f3", "u1", base.Add(2*time.Second))
	rejected.Status = model.FormStatusRejected
	CreateForm(ctx, database, rejected)

	all, _ := ListForms(ctx, database, testOrg, FormFilter{})
	if len(all) != 3 {
		t.Errorf("expected 3 forms, got %d", len(all))
	}

	mine, _ := ListForms(ctx, database, testOrg, FormFilter{UserID: "u1"})
	if len(mine) != 2 {
		t.Errorf("expected 2 forms for u1, got %d", len(mine))
	}

	pending, _ := ListForms(ctx, database, testOrg, FormFilter{Status: model.FormStatusPending})
	if len(pending) != 2 {
		t.Errorf("expected 2 pending forms, got %d", len(pending))
	}
}

func TestMarkFormApprovedOnlyOnce(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	f := newForm("f1", "u1", time.Now())
	CreateForm(ctx, database, f)

	f.Approve(model.Approval{ApprovedBy: "admin", DocumentURI: "file:///x", At: time.Now()})
	if err := MarkFormApproved(ctx, database, f); err != nil {
		t.Fatalf("MarkFormApproved: %v", err)
	}

	got, _ := GetForm(ctx, database, testOrg, "f1")
	if got.Status != model.FormStatusApproved || got.ApprovedBy != "admin" || got.ApprovedAt == nil {
		t.Errorf("unexpected approved form: %+v", got)
	}

	err := MarkFormApproved(ctx, database, f)
	var stateErr *model.InvalidStateError
	if !errors.As(err, &stateErr) || stateErr.Status != model.FormStatusApproved {
		t.Errorf("expected InvalidStateError(approved), got %v", err)
	}

	f.Status = model.FormStatusPending
	f.Reject("late", time.Now())
	if err := MarkFormRejected(ctx, database, f); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("expected invalid state rejecting approved form, got %v", err)
	}
}

func TestMarkFormMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	f := newForm("ghost", "u1", time.Now())
	f.Reject("nope", time.Now())
	if err := MarkFormRejected(ctx, database, f); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
