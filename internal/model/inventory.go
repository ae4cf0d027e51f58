package model

import (
	"math"
	"strconv"
)

// MaxQuantity caps any single bulk quantity, requested or held.
const MaxQuantity = math.MaxInt32

// BulkRecord is a fungible quantity of a product held by one holder.
// Stored records always have Quantity > 0.
type BulkRecord struct {
	ProductID string `json:"product_id"`
	Holder    Holder `json:"holder"`
	Quantity  int    `json:"quantity"`

	// Joined field (not always populated).
	ProductName string `json:"product_name,omitempty"`
}

// UniqueRecord is one physical unit of a product, identified by its UPI.
type UniqueRecord struct {
	ProductID string `json:"product_id"`
	Holder    Holder `json:"holder"`
	UPI       string `json:"upi"`

	// Joined field (not always populated).
	ProductName string `json:"product_name,omitempty"`
}

// HolderInventory is a snapshot of everything one holder possesses.
type HolderInventory struct {
	Holder Holder         `json:"holder"`
	Bulk   []BulkRecord   `json:"bulk"`
	Unique []UniqueRecord `json:"unique"`
}

// Index builds lookup tables over the snapshot.
func (inv *HolderInventory) Index() *InventoryIndex {
	idx := &InventoryIndex{
		quantities: make(map[string]int, len(inv.Bulk)),
		upis:       make(map[UniqueMove]bool, len(inv.Unique)),
	}
	for _, b := range inv.Bulk {
		idx.quantities[b.ProductID] = b.Quantity
	}
	for _, u := range inv.Unique {
		idx.upis[UniqueMove{ProductID: u.ProductID, UPI: u.UPI}] = true
	}
	return idx
}

// InventoryIndex answers quantity and UPI membership questions for a snapshot.
type InventoryIndex struct {
	quantities map[string]int
	upis       map[UniqueMove]bool
}

// Quantity returns the bulk quantity of a product, 0 if the holder has none.
func (idx *InventoryIndex) Quantity(productID string) int {
	return idx.quantities[productID]
}

// HasBulk reports whether a bulk record exists for the product.
func (idx *InventoryIndex) HasBulk(productID string) bool {
	_, ok := idx.quantities[productID]
	return ok
}

// HasUPI reports whether the holder has the given unit.
func (idx *InventoryIndex) HasUPI(productID, upi string) bool {
	return idx.upis[UniqueMove{ProductID: productID, UPI: upi}]
}

// Line is one requested item as submitted by a client: a product with a
// quantity, or a product with the UPIs of the units involved.
type Line struct {
	ProductID string   `json:"product_id"`
	Quantity  int      `json:"quantity"`
	UPIs      []string `json:"upis,omitempty"`
}

// BulkMove is a requested quantity of a bulk product.
type BulkMove struct {
	ProductID string
	Quantity  int
}

// UniqueMove is one requested unit of a UPI-tracked product.
type UniqueMove struct {
	ProductID string
	UPI       string
}

// Moves is the normalized form of a list of lines. Bulk quantities for the
// same product are summed; every unit appears once.
type Moves struct {
	Bulk   []BulkMove
	Unique []UniqueMove
}

// ProductIDs returns the distinct products referenced, in first-seen order.
func (m Moves) ProductIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, b := range m.Bulk {
		if !seen[b.ProductID] {
			seen[b.ProductID] = true
			ids = append(ids, b.ProductID)
		}
	}
	for _, u := range m.Unique {
		if !seen[u.ProductID] {
			seen[u.ProductID] = true
			ids = append(ids, u.ProductID)
		}
	}
	return ids
}

// Total is the number of units across all moves.
func (m Moves) Total() int {
	n := len(m.Unique)
	for _, b := range m.Bulk {
		n += b.Quantity
	}
	return n
}

// AddQuantity returns a+b for two non-negative quantities, or false if the
// result would exceed MaxQuantity.
func AddQuantity(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > MaxQuantity-b {
		return 0, false
	}
	return a + b, true
}

// NormalizeLines validates line shapes and converts them to Moves.
// A line with UPIs must have Quantity 0 or equal to the number of UPIs.
func NormalizeLines(lines []Line) (Moves, error) {
	var moves Moves
	if len(lines) == 0 {
		return moves, Invalid("items", "at least one item required")
	}

	bulkIdx := make(map[string]int)
	seenUPI := make(map[UniqueMove]bool)

	for i, l := range lines {
		field := func(name string) string {
			return "items[" + strconv.Itoa(i) + "]." + name
		}

		if l.ProductID == "" {
			return Moves{}, Invalid(field("product_id"), "required")
		}

		if len(l.UPIs) == 0 {
			if l.Quantity <= 0 {
				return Moves{}, Invalid(field("quantity"), "must be positive, got %d", l.Quantity)
			}
			if l.Quantity > MaxQuantity {
				return Moves{}, Invalid(field("quantity"), "must not exceed %d, got %d", MaxQuantity, l.Quantity)
			}
			if j, ok := bulkIdx[l.ProductID]; ok {
				sum, ok := AddQuantity(moves.Bulk[j].Quantity, l.Quantity)
				if !ok {
					return Moves{}, Invalid(field("quantity"), "total for product %s exceeds %d", l.ProductID, MaxQuantity)
				}
				moves.Bulk[j].Quantity = sum
				continue
			}
			bulkIdx[l.ProductID] = len(moves.Bulk)
			moves.Bulk = append(moves.Bulk, BulkMove{ProductID: l.ProductID, Quantity: l.Quantity})
			continue
		}

		if l.Quantity != 0 && l.Quantity != len(l.UPIs) {
			return Moves{}, Invalid(field("quantity"), "is %d but %d upis given", l.Quantity, len(l.UPIs))
		}
		for _, upi := range l.UPIs {
			if upi == "" {
				return Moves{}, Invalid(field("upis"), "must not contain empty values")
			}
			key := UniqueMove{ProductID: l.ProductID, UPI: upi}
			if seenUPI[key] {
				return Moves{}, Invalid(field("upis"), "upi %s listed more than once", upi)
			}
			seenUPI[key] = true
			moves.Unique = append(moves.Unique, key)
		}
	}

	if len(moves.Bulk) > 0 && len(moves.Unique) > 0 {
		for _, u := range moves.Unique {
			if _, ok := bulkIdx[u.ProductID]; ok {
				return Moves{}, Invalid("items", "product %s requested both by quantity and by upi", u.ProductID)
			}
		}
	}

	return moves, nil
}

// CheckCatalog verifies every referenced product exists and is requested in
// the shape its HasUPI flag demands.
func (m Moves) CheckCatalog(catalog map[string]Product) error {
	for _, b := range m.Bulk {
		p, ok := catalog[b.ProductID]
		if !ok {
			return &NotFoundError{Kind: "product", ID: b.ProductID}
		}
		if p.HasUPI {
			return Invalid("items", "product %s is tracked by upi, upis required", p.ID)
		}
	}
	for _, u := range m.Unique {
		p, ok := catalog[u.ProductID]
		if !ok {
			return &NotFoundError{Kind: "product", ID: u.ProductID}
		}
		if !p.HasUPI {
			return Invalid("items", "product %s is not tracked by upi", p.ID)
		}
	}
	return nil
}
