package model

import (
	"errors"
	"fmt"
)

// Error categories. Detail errors below match one of these with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrLockTimeout  = errors.New("lock timeout")
	ErrStorage      = errors.New("storage error")
)

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid is shorthand for a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an absent form, product or inventory record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientQuantityError reports a bulk request exceeding what a holder has.
type InsufficientQuantityError struct {
	ProductID string
	Holder    Holder
	Available int
	Requested int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity of product %s on %s: have %d, need %d",
		e.ProductID, e.Holder, e.Available, e.Requested)
}

func (e *InsufficientQuantityError) Is(target error) bool { return target == ErrConflict }

// ItemNotFoundError reports a requested UPI the holder does not have.
type ItemNotFoundError struct {
	ProductID string
	UPI       string
	Holder    Holder
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %s of product %s not held by %s", e.UPI, e.ProductID, e.Holder)
}

func (e *ItemNotFoundError) Is(target error) bool { return target == ErrConflict }

// DuplicateUPIError reports a UPI that already exists in the organization.
type DuplicateUPIError struct {
	ProductID string
	UPI       string
	Holder    Holder
}

func (e *DuplicateUPIError) Error() string {
	if !e.Holder.Valid() {
		return fmt.Sprintf("item %s of product %s already exists", e.UPI, e.ProductID)
	}
	return fmt.Sprintf("item %s of product %s already exists (held by %s)", e.UPI, e.ProductID, e.Holder)
}

func (e *DuplicateUPIError) Is(target error) bool { return target == ErrConflict }

// ConflictError reports a write rejected because of existing state, such as a
// duplicate product name.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ProductInUseError reports a product that is still referenced by inventory.
type ProductInUseError struct {
	ProductID string
}

func (e *ProductInUseError) Error() string {
	return fmt.Sprintf("cannot delete product %s: still referenced by inventory", e.ProductID)
}

func (e *ProductInUseError) Is(target error) bool { return target == ErrConflict }

// InvalidStateError reports a form transition attempted from a terminal status.
type InvalidStateError struct {
	FormID string
	Status FormStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("form %s is %s, not %s", e.FormID, e.Status, FormStatusPending)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// InvalidFormTypeError reports a form type other than check-out or check-in.
type InvalidFormTypeError struct {
	Type FormType
}

func (e *InvalidFormTypeError) Error() string {
	return fmt.Sprintf("invalid form type %q", string(e.Type))
}

func (e *InvalidFormTypeError) Is(target error) bool { return target == ErrValidation }

// StorageError wraps an unexpected failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
