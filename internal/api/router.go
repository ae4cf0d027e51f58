package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/oprema/internal/forms"
	"github.com/erazemk/oprema/internal/ledger"
	"github.com/erazemk/oprema/internal/model"
)

// Services are the domain components the API exposes.
type Services struct {
	DB        *sql.DB
	JWTSecret string
	Ledger    *ledger.Ledger
	Forms     *forms.Workflow
	Documents DocumentReader
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(s Services) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: s.DB, JWTSecret: s.JWTSecret}
	usersHandler := &UsersHandler{DB: s.DB, Ledger: s.Ledger}
	productsHandler := &ProductsHandler{Ledger: s.Ledger}
	inventoryHandler := &InventoryHandler{Ledger: s.Ledger}
	formsHandler := &FormsHandler{Workflow: s.Forms, Documents: s.Documents}

	authMW := AuthMiddleware(s.JWTSecret, s.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (manager+).
	mux.Handle("GET /api/users", authMW(requireManager(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireManager(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireManager(http.HandlerFunc(usersHandler.Delete))))

	// Products: read (all roles), write (admin).
	mux.Handle("GET /api/products", authMW(http.HandlerFunc(productsHandler.List)))
	mux.Handle("POST /api/products", authMW(requireAdmin(http.HandlerFunc(productsHandler.Create))))
	mux.Handle("GET /api/products/{id}", authMW(http.HandlerFunc(productsHandler.Get)))
	mux.Handle("DELETE /api/products/{id}", authMW(requireAdmin(http.HandlerFunc(productsHandler.Delete))))
	mux.Handle("GET /api/products/{id}/stock", authMW(requireManager(http.HandlerFunc(productsHandler.Stock))))

	// Inventory: read (all, own holdings for users), write (manager+).
	mux.Handle("GET /api/inventory/warehouse", authMW(http.HandlerFunc(inventoryHandler.Warehouse)))
	mux.Handle("GET /api/inventory/users/{id}", authMW(http.HandlerFunc(inventoryHandler.User)))
	mux.Handle("POST /api/inventory/add", authMW(requireManager(http.HandlerFunc(inventoryHandler.Add))))
	mux.Handle("POST /api/inventory/remove", authMW(requireManager(http.HandlerFunc(inventoryHandler.Remove))))

	// Forms: file and read (all roles), decide (manager+).
	mux.Handle("POST /api/forms", authMW(http.HandlerFunc(formsHandler.Create)))
	mux.Handle("GET /api/forms", authMW(http.HandlerFunc(formsHandler.List)))
	mux.Handle("GET /api/forms/{id}", authMW(http.HandlerFunc(formsHandler.Get)))
	mux.Handle("GET /api/forms/{id}/document", authMW(http.HandlerFunc(formsHandler.Document)))
	mux.Handle("POST /api/forms/{id}/approve", authMW(requireManager(http.HandlerFunc(formsHandler.Approve))))
	mux.Handle("POST /api/forms/{id}/reject", authMW(requireManager(http.HandlerFunc(formsHandler.Reject))))

	return mux
}
