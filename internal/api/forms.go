package api

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/erazemk/oprema/internal/forms"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// DocumentReader serves stored approval documents.
type DocumentReader interface {
	Open(uri string) ([]byte, error)
}

// FormsHandler handles check-out and check-in forms.
type FormsHandler struct {
	Workflow  *forms.Workflow
	Documents DocumentReader
}

type createFormRequest struct {
	Type   model.FormType `json:"type"`
	UserID string         `json:"user_id"`
	Items  []model.Line   `json:"items"`
}

type approveRequest struct {
	// Signature is a base64 JPEG or PNG, optionally as a data URI.
	Signature string `json:"signature"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type approveResponse struct {
	Success bool        `json:"success"`
	Form    *model.Form `json:"form"`
}

// Create handles POST /api/forms. Users file forms for themselves; managers
// may file them for anyone in the organization.
func (h *FormsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())

	var req createFormRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.UserID == "" {
		req.UserID = id.UserID
	}
	if !canActFor(id, req.UserID) {
		jsonError(w, http.StatusForbidden, "cannot file forms for other users")
		return
	}

	f, err := h.Workflow.Create(r.Context(), id.OrganizationID, req.UserID, req.Type, req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, f)
}

// List handles GET /api/forms?status=&user_id=. Users only see their own.
func (h *FormsHandler) List(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())

	filter := store.FormFilter{
		Status: model.FormStatus(r.URL.Query().Get("status")),
		UserID: r.URL.Query().Get("user_id"),
	}
	if !model.RoleAtLeast(id.Role, model.RoleManager) {
		filter.UserID = id.UserID
	}

	list, err := h.Workflow.List(r.Context(), id.OrganizationID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, list)
}

// Get handles GET /api/forms/{id}.
func (h *FormsHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, ok := h.visibleForm(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, f)
}

// Document handles GET /api/forms/{id}/document.
func (h *FormsHandler) Document(w http.ResponseWriter, r *http.Request) {
	f, ok := h.visibleForm(w, r)
	if !ok {
		return
	}
	if f.DocumentURI == "" {
		writeError(w, r, &model.NotFoundError{Kind: "document for form", ID: f.ID})
		return
	}

	data, err := h.Documents.Open(f.DocumentURI)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// Approve handles POST /api/forms/{id}/approve.
func (h *FormsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())

	var req approveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sig, err := decodeSignature(req.Signature)
	if err != nil {
		writeError(w, r, err)
		return
	}

	f, err := h.Workflow.Approve(r.Context(), id.OrganizationID, r.PathValue("id"), id.UserID, sig)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, approveResponse{Success: true, Form: f})
}

// Reject handles POST /api/forms/{id}/reject.
func (h *FormsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())

	var req rejectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	f, err := h.Workflow.Reject(r.Context(), id.OrganizationID, r.PathValue("id"), req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, f)
}

// visibleForm loads the form named in the path if the caller may see it.
// Forms of other users are reported as missing.
func (h *FormsHandler) visibleForm(w http.ResponseWriter, r *http.Request) (*model.Form, bool) {
	id := GetIdentity(r.Context())
	formID := r.PathValue("id")

	f, err := h.Workflow.Get(r.Context(), id.OrganizationID, formID)
	if err == nil && !canActFor(id, f.UserID) {
		err = &model.NotFoundError{Kind: "form", ID: formID}
	}
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return f, true
}

func decodeSignature(s string) ([]byte, error) {
	if s == "" {
		return nil, model.Invalid("signature", "required")
	}
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		_, payload, found := strings.Cut(rest, ";base64,")
		if !found {
			return nil, model.Invalid("signature", "data uri must be base64")
		}
		s = payload
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, model.Invalid("signature", "not valid base64")
	}
	return data, nil
}
