package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Every ledger table is scoped by
// organization_id; holders are stored as model.Holder keys.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id              TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL,
    username        TEXT NOT NULL,
    password_hash   TEXT NOT NULL,
    role            TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at      DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS products (
    id              TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL,
    name            TEXT NOT NULL,
    has_upi         INTEGER NOT NULL DEFAULT 0,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_products_org_name
    ON products(organization_id, name);

CREATE TABLE IF NOT EXISTS bulk_inventory (
    organization_id TEXT NOT NULL,
    holder          TEXT NOT NULL,
    product_id      TEXT NOT NULL REFERENCES products(id),
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    PRIMARY KEY (organization_id, holder, product_id)
);

CREATE INDEX IF NOT EXISTS idx_bulk_inventory_product
    ON bulk_inventory(organization_id, product_id);

CREATE TABLE IF NOT EXISTS unique_inventory (
    organization_id TEXT NOT NULL,
    product_id      TEXT NOT NULL REFERENCES products(id),
    upi             TEXT NOT NULL,
    holder          TEXT NOT NULL,
    PRIMARY KEY (organization_id, product_id, upi)
);

CREATE INDEX IF NOT EXISTS idx_unique_inventory_holder
    ON unique_inventory(organization_id, holder);

CREATE TABLE IF NOT EXISTS forms (
    id               TEXT PRIMARY KEY,
    organization_id  TEXT NOT NULL,
    user_id          TEXT NOT NULL,
    type             TEXT NOT NULL CHECK (type IN ('check_out', 'check_in')),
    items            TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    created_at       DATETIME NOT NULL,
    updated_at       DATETIME NOT NULL,
    approved_at      DATETIME,
    approved_by      TEXT,
    document_uri     TEXT,
    rejection_reason TEXT
);

CREATE INDEX IF NOT EXISTS idx_forms_org_status
    ON forms(organization_id, status, created_at);

CREATE TABLE IF NOT EXISTS organization_locks (
    organization_id TEXT PRIMARY KEY,
    owner           TEXT NOT NULL,
    expires_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
