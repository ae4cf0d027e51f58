package model

import "time"

// Product is a catalog entry. HasUPI decides whether its stock is tracked as a
// bulk quantity or as individually identified units.
type Product struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	HasUPI         bool      `json:"has_upi"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProductStock is the organization-wide amount of a product: the summed bulk
// quantity across every holder plus the number of units.
type ProductStock struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Units     int    `json:"units"`
}
