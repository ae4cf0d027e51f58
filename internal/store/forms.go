package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/erazemk/oprema/internal/model"
)

const formColumns = `id, organization_id, user_id, type, items, status, created_at, updated_at,
	approved_at, approved_by, document_uri, rejection_reason`

// FormFilter narrows ListForms. Empty fields match everything.
type FormFilter struct {
	Status model.FormStatus
	UserID string
}

// CreateForm stores a new form.
func CreateForm(ctx context.Context, q Querier, f *model.Form) error {
	items, err := json.Marshal(f.Items)
	if err != nil {
		return storageErr("encoding form items", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO forms (id, organization_id, user_id, type, items, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.OrganizationID, f.UserID, string(f.Type), string(items), string(f.Status),
		f.CreatedAt.UTC(), f.UpdatedAt.UTC(),
	)
	if err != nil {
		return storageErr("creating form", err)
	}
	return nil
}

// GetForm returns a form by ID, or nil if the organization has no such form.
func GetForm(ctx context.Context, q Querier, orgID, id string) (*model.Form, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM forms WHERE organization_id = ? AND id = ?`, orgID, id,
	)
	f, err := scanForm(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting form", err)
	}
	return f, nil
}

// ListForms returns the organization's forms, newest first.
func ListForms(ctx context.Context, q Querier, orgID string, filter FormFilter) ([]model.Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms WHERE organization_id = ?`
	args := []any{orgID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("listing forms", err)
	}
	defer rows.Close()

	var forms []model.Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, storageErr("scanning form", err)
		}
		forms = append(forms, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("listing forms", err)
	}
	return forms, nil
}

// MarkFormApproved records an approval. The write only applies to a form
// that still exists and is still pending, so two racing approvals cannot
// both succeed.
func MarkFormApproved(ctx context.Context, q Querier, f *model.Form) error {
	res, err := q.ExecContext(ctx,
		`UPDATE forms SET status = ?, approved_at = ?, approved_by = ?, document_uri = ?, updated_at = ?
		 WHERE organization_id = ? AND id = ? AND status = ?`,
		string(model.FormStatusApproved), f.ApprovedAt.UTC(), f.ApprovedBy, f.DocumentURI, f.UpdatedAt.UTC(),
		f.OrganizationID, f.ID, string(model.FormStatusPending),
	)
	if err != nil {
		return storageErr("approving form", err)
	}
	return expectPending(ctx, q, res, f, "approving form")
}

// MarkFormRejected records a rejection under the same conditions as
// MarkFormApproved.
func MarkFormRejected(ctx context.Context, q Querier, f *model.Form) error {
	res, err := q.ExecContext(ctx,
		`UPDATE forms SET status = ?, rejection_reason = ?, updated_at = ?
		 WHERE organization_id = ? AND id = ? AND status = ?`,
		string(model.FormStatusRejected), f.RejectionReason, f.UpdatedAt.UTC(),
		f.OrganizationID, f.ID, string(model.FormStatusPending),
	)
	if err != nil {
		return storageErr("rejecting form", err)
	}
	return expectPending(ctx, q, res, f, "rejecting form")
}

// expectPending explains a conditional form update that matched no row.
func expectPending(ctx context.Context, q Querier, res sql.Result, f *model.Form, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if n == 1 {
		return nil
	}

	current, err := GetForm(ctx, q, f.OrganizationID, f.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return &model.NotFoundError{Kind: "form", ID: f.ID}
	}
	return &model.InvalidStateError{FormID: f.ID, Status: current.Status}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(s rowScanner) (*model.Form, error) {
	var f model.Form
	var formType, status, items string
	var approvedAt *time.Time
	var approvedBy, documentURI, rejectionReason sql.NullString
	err := s.Scan(&f.ID, &f.OrganizationID, &f.UserID, &formType, &items, &status,
		&f.CreatedAt, &f.UpdatedAt, &approvedAt, &approvedBy, &documentURI, &rejectionReason)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &f.Items); err != nil {
		return nil, err
	}
	f.Type = model.FormType(formType)
	f.Status = model.FormStatus(status)
	f.ApprovedAt = approvedAt
	f.ApprovedBy = approvedBy.String
	f.DocumentURI = documentURI.String
	f.RejectionReason = rejectionReason.String
	return &f, nil
}
