package models

import "time"

// Product is a vendor listing. The suspension engine bulk-deletes a vendor's
// products on the second suspension and on permanent ban; everything else is
// ordinary CRUD owned by the product handlers.
type Product struct {
	ID          string
	VendorID    string
	Name        string
	Description string
	Category    string
	PriceCents  int64
	Unit        string // e.g. "kg", "bundle", "piece"
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
