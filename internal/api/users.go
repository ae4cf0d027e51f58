package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/ledger"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// UsersHandler handles user management endpoints (manager+).
type UsersHandler struct {
	DB     *sql.DB
	Ledger *ledger.Ledger
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	users, err := store.ListUsers(r.Context(), h.DB, id.OrganizationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users. Managers may only create plain users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())

	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}
	if req.Role != model.RoleUser && !model.RoleAtLeast(id.Role, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "only admins can create managers and admins")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, id.OrganizationID, req.Username, hash, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user created", "org", id.OrganizationID, "user", user.Username, "role", user.Role, "by", id.Username)
	jsonResponse(w, http.StatusCreated, user)
}

// Delete handles DELETE /api/users/{id}. Users still holding stock are kept.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	userID := r.PathValue("id")

	if userID == id.UserID {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if target == nil || target.OrganizationID != id.OrganizationID {
		writeError(w, r, &model.NotFoundError{Kind: "user", ID: userID})
		return
	}
	if !model.RoleAtLeast(id.Role, target.Role) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	if err := h.Ledger.DeleteUser(r.Context(), id.OrganizationID, userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
