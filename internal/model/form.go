package model

import "time"

// FormType says which way a form moves stock.
type FormType string

// Form types.
const (
	FormTypeCheckOut FormType = "check_out"
	FormTypeCheckIn  FormType = "check_in"
)

// FormStatus is the state of a form. Approved and Rejected are terminal.
type FormStatus string

// Form statuses.
const (
	FormStatusPending  FormStatus = "pending"
	FormStatusApproved FormStatus = "approved"
	FormStatusRejected FormStatus = "rejected"
)

// Endpoints returns the source and destination holders for a form of type t
// submitted by userID. Check-out moves stock from the warehouse to the user,
// check-in moves it back.
func (t FormType) Endpoints(userID string) (source, destination Holder, err error) {
	switch t {
	case FormTypeCheckOut:
		return Warehouse(), UserHolder(userID), nil
	case FormTypeCheckIn:
		return UserHolder(userID), Warehouse(), nil
	default:
		return Holder{}, Holder{}, &InvalidFormTypeError{Type: t}
	}
}

// Form is a request to check items out of or into the warehouse.
type Form struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	UserID         string     `json:"user_id"`
	Type           FormType   `json:"type"`
	Items          []Line     `json:"items"`
	Status         FormStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	DocumentURI     string     `json:"document_uri,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

// Approval is the metadata recorded when a form is approved.
type Approval struct {
	ApprovedBy  string
	DocumentURI string
	At          time.Time
}

// Approve moves a pending form to Approved. Forms in any other state are
// left untouched.
func (f *Form) Approve(a Approval) error {
	if f.Status != FormStatusPending {
		return &InvalidStateError{FormID: f.ID, Status: f.Status}
	}
	at := a.At
	f.Status = FormStatusApproved
	f.ApprovedAt = &at
	f.ApprovedBy = a.ApprovedBy
	f.DocumentURI = a.DocumentURI
	f.UpdatedAt = at
	return nil
}

// Reject moves a pending form to Rejected.
func (f *Form) Reject(reason string, at time.Time) error {
	if f.Status != FormStatusPending {
		return &InvalidStateError{FormID: f.ID, Status: f.Status}
	}
	f.Status = FormStatusRejected
	f.RejectionReason = reason
	f.UpdatedAt = at
	return nil
}
