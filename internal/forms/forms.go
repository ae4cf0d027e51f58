// Package forms implements the check-out/check-in form workflow. A form is
// created Pending and ends either Approved, which transfers its items, or
// Rejected, which leaves the ledger alone.
package forms

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/oprema/internal/document"
	"github.com/erazemk/oprema/internal/ledger"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// Workflow creates forms and drives their transitions.
type Workflow struct {
	db        *sql.DB
	ledger    *ledger.Ledger
	generator document.Generator
	storage   document.Storage
	now       func() time.Time
}

// New creates a workflow that transfers through l and records approval
// documents with gen and storage.
func New(db *sql.DB, l *ledger.Ledger, gen document.Generator, storage document.Storage) *Workflow {
	return &Workflow{
		db:        db,
		ledger:    l,
		generator: gen,
		storage:   storage,
		now:       time.Now,
	}
}

// Create stores a new pending form for userID. Items are checked for shape
// and against the catalog; stock is only checked on approval.
func (w *Workflow) Create(ctx context.Context, orgID, userID string, formType model.FormType, items []model.Line) (*model.Form, error) {
	if _, _, err := formType.Endpoints(userID); err != nil {
		return nil, err
	}
	if _, err := w.activeUser(ctx, orgID, userID); err != nil {
		return nil, err
	}

	moves, err := model.NormalizeLines(items)
	if err != nil {
		return nil, err
	}
	catalog, err := store.GetProducts(ctx, w.db, orgID, moves.ProductIDs())
	if err != nil {
		return nil, err
	}
	if err := moves.CheckCatalog(catalog); err != nil {
		return nil, err
	}

	now := w.now().UTC()
	f := &model.Form{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		UserID:         userID,
		Type:           formType,
		Items:          items,
		Status:         model.FormStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.CreateForm(ctx, w.db, f); err != nil {
		return nil, err
	}

	slog.Info("form created", "org", orgID, "form", f.ID, "user", userID, "type", string(formType))
	return f, nil
}

// Get returns a form of the organization.
func (w *Workflow) Get(ctx context.Context, orgID, id string) (*model.Form, error) {
	f, err := store.GetForm(ctx, w.db, orgID, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, &model.NotFoundError{Kind: "form", ID: id}
	}
	return f, nil
}

// List returns the organization's forms, newest first.
func (w *Workflow) List(ctx context.Context, orgID string, filter store.FormFilter) ([]model.Form, error) {
	switch filter.Status {
	case "", model.FormStatusPending, model.FormStatusApproved, model.FormStatusRejected:
	default:
		return nil, model.Invalid("status", "unknown status %q", string(filter.Status))
	}

	forms, err := store.ListForms(ctx, w.db, orgID, filter)
	if err != nil {
		return nil, err
	}
	if forms == nil {
		forms = []model.Form{}
	}
	return forms, nil
}

// Approve signs off a pending form and transfers its items.
//
// The approval document is rendered and stored first, so an approved form
// always has one. The transfer and the status change then commit together
// under the organization lock; if either fails the form stays pending and
// the stored document is deleted again.
func (w *Workflow) Approve(ctx context.Context, orgID, formID, approverID string, signature []byte) (*model.Form, error) {
	f, err := w.Get(ctx, orgID, formID)
	if err != nil {
		return nil, err
	}
	if f.Status != model.FormStatusPending {
		return nil, &model.InvalidStateError{FormID: f.ID, Status: f.Status}
	}

	moves, err := model.NormalizeLines(f.Items)
	if err != nil {
		return nil, err
	}

	approver, err := w.activeUser(ctx, orgID, approverID)
	if err != nil {
		return nil, err
	}
	user, err := store.GetUser(ctx, w.db, f.UserID)
	if err != nil {
		return nil, err
	}
	products, err := store.GetProducts(ctx, w.db, orgID, moves.ProductIDs())
	if err != nil {
		return nil, err
	}

	at := w.now().UTC()
	doc, err := w.generator.Generate(ctx, document.Input{
		Form:      f,
		User:      user,
		Approver:  approver,
		Products:  products,
		Signature: signature,
		At:        at,
	})
	if err != nil {
		return nil, err
	}

	uri, err := w.storage.Store(ctx, doc, document.Key{
		OrganizationID: orgID,
		FormType:       f.Type,
		UserID:         f.UserID,
		FormID:         f.ID,
	})
	if errors.Is(err, model.ErrConflict) {
		// Another approval of this form got here first.
		if current, gerr := w.Get(ctx, orgID, f.ID); gerr == nil && current.Status != model.FormStatusPending {
			return nil, &model.InvalidStateError{FormID: f.ID, Status: current.Status}
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	approved := *f
	if err := approved.Approve(model.Approval{ApprovedBy: approverID, DocumentURI: uri, At: at}); err != nil {
		return nil, err
	}

	err = w.ledger.Transfer(ctx, f, func(ctx context.Context, q store.Querier) error {
		return store.MarkFormApproved(ctx, q, &approved)
	})
	if err != nil {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if derr := w.storage.Delete(dctx, uri); derr != nil {
			slog.Error("failed to delete orphaned approval document", "org", orgID, "form", f.ID, "uri", uri, "error", derr)
		}
		return nil, err
	}

	slog.Info("form approved", "org", orgID, "form", f.ID, "approver", approverID, "document", uri)
	return &approved, nil
}

// Reject closes a pending form without touching the ledger.
func (w *Workflow) Reject(ctx context.Context, orgID, formID, reason string) (*model.Form, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, model.Invalid("reason", "required")
	}

	f, err := w.Get(ctx, orgID, formID)
	if err != nil {
		return nil, err
	}
	if err := f.Reject(reason, w.now().UTC()); err != nil {
		return nil, err
	}
	if err := store.MarkFormRejected(ctx, w.db, f); err != nil {
		return nil, err
	}

	slog.Info("form rejected", "org", orgID, "form", f.ID)
	return f, nil
}

// activeUser loads a user of the organization that has not been deleted.
func (w *Workflow) activeUser(ctx context.Context, orgID, id string) (*model.User, error) {
	if id == "" {
		return nil, model.Invalid("user_id", "required")
	}
	u, err := store.GetUser(ctx, w.db, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.OrganizationID != orgID || u.DeletedAt != nil {
		return nil, &model.NotFoundError{Kind: "user", ID: id}
	}
	return u, nil
}
