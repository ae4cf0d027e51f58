// Package document renders and stores the receipts produced when a form is
// approved.
package document

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	"github.com/erazemk/oprema/internal/imaging"
	"github.com/erazemk/oprema/internal/model"
)

// Generator renders an approval document. It has no side effects.
type Generator interface {
	Generate(ctx context.Context, in Input) ([]byte, error)
}

// Storage persists rendered documents and returns where they can be found.
// Store fails with a conflict if the key already has a document.
type Storage interface {
	Store(ctx context.Context, data []byte, key Key) (string, error)
	Delete(ctx context.Context, uri string) error
}

// Input is everything a receipt shows.
type Input struct {
	Form      *model.Form
	User      *model.User
	Approver  *model.User
	Products  map[string]model.Product
	Signature []byte
	At        time.Time
}

// Key identifies a stored document.
type Key struct {
	OrganizationID string
	FormType       model.FormType
	UserID         string
	FormID         string
}

//go:embed templates/approval.html
var templateFS embed.FS

var approvalTmpl = template.Must(template.ParseFS(templateFS, "templates/approval.html"))

// HTMLGenerator renders a self-contained HTML receipt with the signature
// embedded as a data URI.
type HTMLGenerator struct{}

var _ Generator = HTMLGenerator{}

type receiptLine struct {
	Product  string
	Quantity int
	UPIs     []string
}

type receipt struct {
	FormID    string
	Title     string
	User      string
	Approver  string
	Date      string
	Lines     []receiptLine
	Signature template.URL
}

// Generate renders the receipt. The signature must be a JPEG or PNG image.
func (HTMLGenerator) Generate(ctx context.Context, in Input) ([]byte, error) {
	sig, err := imaging.NormalizeSignature(in.Signature)
	if err != nil {
		return nil, err
	}

	r := receipt{
		FormID:    in.Form.ID,
		Title:     title(in.Form.Type),
		User:      displayName(in.User, in.Form.UserID),
		Approver:  displayName(in.Approver, ""),
		Date:      in.At.UTC().Format("2006-01-02 15:04 MST"),
		Signature: template.URL("data:" + sig.MIME + ";base64," + base64.StdEncoding.EncodeToString(sig.Data)),
	}
	for _, l := range in.Form.Items {
		name := l.ProductID
		if p, ok := in.Products[l.ProductID]; ok {
			name = p.Name
		}
		qty := l.Quantity
		if len(l.UPIs) > 0 {
			qty = len(l.UPIs)
		}
		r.Lines = append(r.Lines, receiptLine{Product: name, Quantity: qty, UPIs: l.UPIs})
	}

	var buf bytes.Buffer
	if err := approvalTmpl.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("rendering approval document: %w", err)
	}
	return buf.Bytes(), nil
}

func title(t model.FormType) string {
	switch t {
	case model.FormTypeCheckOut:
		return "Check-out receipt"
	case model.FormTypeCheckIn:
		return "Check-in receipt"
	default:
		return "Receipt"
	}
}

func displayName(u *model.User, fallback string) string {
	if u == nil {
		return fallback
	}
	return u.Username
}
