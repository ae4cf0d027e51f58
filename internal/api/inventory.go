package api

import (
	"net/http"

	"github.com/erazemk/oprema/internal/ledger"
	"github.com/erazemk/oprema/internal/model"
)

// InventoryHandler handles warehouse stock and holder inventory endpoints.
type InventoryHandler struct {
	Ledger *ledger.Ledger
}

type inventoryRequest struct {
	Items []model.Line `json:"items"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// Warehouse handles GET /api/inventory/warehouse.
func (h *InventoryHandler) Warehouse(w http.ResponseWriter, r *http.Request) {
	h.holder(w, r, model.Warehouse())
}

// User handles GET /api/inventory/users/{id}. Users may only see their own.
func (h *InventoryHandler) User(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if !canActFor(GetIdentity(r.Context()), userID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	h.holder(w, r, model.UserHolder(userID))
}

func (h *InventoryHandler) holder(w http.ResponseWriter, r *http.Request, holder model.Holder) {
	id := GetIdentity(r.Context())
	inv, err := h.Ledger.HolderInventory(r.Context(), id.OrganizationID, holder)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, inv)
}

// Add handles POST /api/inventory/add.
func (h *InventoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())

	var req inventoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Ledger.AddInventory(r.Context(), id.OrganizationID, req.Items); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, successResponse{Success: true})
}

// Remove handles POST /api/inventory/remove.
func (h *InventoryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())

	var req inventoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Ledger.RemoveInventory(r.Context(), id.OrganizationID, req.Items); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, successResponse{Success: true})
}
