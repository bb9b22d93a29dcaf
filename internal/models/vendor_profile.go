package models

import "time"

// VendorProfile holds shop metadata for a vendor account. One per user with
// role VENDOR. IsVerified is cleared by the suspension engine and set by the
// admin verification workflow.
type VendorProfile struct {
	UserID               string
	ShopName             string
	ShopDescription      string
	BusinessPermitNumber string
	ContactNumber        string
	PickupAddress        string
	City                 string
	IsVerified           bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
