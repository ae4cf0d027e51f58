package api

import (
	"net/http"

	"github.com/erazemk/oprema/internal/ledger"
)

// ProductsHandler handles the product catalog.
type ProductsHandler struct {
	Ledger *ledger.Ledger
}

type createProductRequest struct {
	Name   string `json:"name"`
	HasUPI bool   `json:"has_upi"`
}

// List handles GET /api/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	products, err := h.Ledger.Products(r.Context(), id.OrganizationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, products)
}

// Get handles GET /api/products/{id}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	p, err := h.Ledger.Product(r.Context(), id.OrganizationID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Create handles POST /api/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())

	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.Ledger.CreateProduct(r.Context(), id.OrganizationID, req.Name, req.HasUPI)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, p)
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	if err := h.Ledger.DeleteProduct(r.Context(), id.OrganizationID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stock handles GET /api/products/{id}/stock.
func (h *ProductsHandler) Stock(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	stock, err := h.Ledger.ProductStock(r.Context(), id.OrganizationID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, stock)
}
