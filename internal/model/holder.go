package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Holder is whoever currently possesses stock: the organization's warehouse
// or a specific user. The zero value is not a valid holder.
type Holder struct {
	user      string
	warehouse bool
}

const (
	warehouseKey  = "warehouse"
	userKeyPrefix = "user:"
)

// Warehouse returns the warehouse holder.
func Warehouse() Holder {
	return Holder{warehouse: true}
}

// UserHolder returns the holder for the given user ID.
func UserHolder(userID string) Holder {
	return Holder{user: userID}
}

// IsWarehouse reports whether h is the warehouse.
func (h Holder) IsWarehouse() bool { return h.warehouse }

// UserID returns the user ID of a user holder, or "" for the warehouse.
func (h Holder) UserID() string { return h.user }

// Valid reports whether h names either the warehouse or a non-empty user.
func (h Holder) Valid() bool {
	return h.warehouse || h.user != ""
}

// Key is the storage encoding of the holder. User keys are prefixed so a
// user whose ID happens to be "warehouse" never collides with the warehouse.
func (h Holder) Key() string {
	if h.warehouse {
		return warehouseKey
	}
	return userKeyPrefix + h.user
}

func (h Holder) String() string {
	if h.warehouse {
		return warehouseKey
	}
	return "user " + h.user
}

// ParseHolderKey decodes a value produced by Holder.Key.
func ParseHolderKey(key string) (Holder, error) {
	if key == warehouseKey {
		return Warehouse(), nil
	}
	if id, ok := strings.CutPrefix(key, userKeyPrefix); ok && id != "" {
		return UserHolder(id), nil
	}
	return Holder{}, fmt.Errorf("invalid holder key %q", key)
}

type holderJSON struct {
	Kind   string `json:"kind"`
	UserID string `json:"user_id,omitempty"`
}

func (h Holder) MarshalJSON() ([]byte, error) {
	if h.warehouse {
		return json.Marshal(holderJSON{Kind: "warehouse"})
	}
	return json.Marshal(holderJSON{Kind: "user", UserID: h.user})
}

func (h *Holder) UnmarshalJSON(data []byte) error {
	var v holderJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.Kind {
	case "warehouse":
		*h = Warehouse()
	case "user":
		if v.UserID == "" {
			return fmt.Errorf("user holder requires user_id")
		}
		*h = UserHolder(v.UserID)
	default:
		return fmt.Errorf("unknown holder kind %q", v.Kind)
	}
	return nil
}
