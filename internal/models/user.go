package models

import (
	"time"
)

// Role is the closed set of marketplace account roles.
type Role string

const (
	RoleVendor   Role = "VENDOR"
	RoleConsumer Role = "CONSUMER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleVendor || r == RoleConsumer
}

// MaxSuspensionLevel is the level at which a suspension becomes a permanent
// ban. SuspensionCount values beyond it behave identically to it.
const MaxSuspensionLevel = 3

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	TokenKey     string // Per-user secret for composite token signing
	Role         Role
	IsStaff      bool // grants access to the moderation and admin endpoints
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Moderation state. Mutated only by the suspension and moderation
	// engines.
	WarningCount        int
	SuspensionCount     int
	IsSuspended         bool
	SuspensionEndDate   *time.Time // nil while unsuspended or permanently banned
	IsPermanentlyBanned bool
	IsActive            bool // login gate; false while suspended or banned
}

// SuspensionExpired reports whether a timed suspension has run out and is
// waiting for the expiry gate to lift it. Always false for permanent bans,
// which carry no end date.
func (u *User) SuspensionExpired(now time.Time) bool {
	if u.IsPermanentlyBanned || !u.IsSuspended || u.SuspensionEndDate == nil {
		return false
	}
	return !now.Before(*u.SuspensionEndDate)
}

// CanAddEditProducts is the posting eligibility predicate. Only a verified,
// unsuspended, unbanned vendor may list products. A missing vendor profile
// means no.
func CanAddEditProducts(u *User, vp *VendorProfile) bool {
	if u.Role != RoleVendor {
		return false
	}
	if u.IsPermanentlyBanned || u.IsSuspended {
		return false
	}
	if vp == nil {
		return false
	}
	return vp.IsVerified
}

// CanCheckout is the checkout eligibility predicate. A first-level
// suspension does not block checkout; the second and third do.
func CanCheckout(u *User) bool {
	if u.IsPermanentlyBanned {
		return false
	}
	if u.IsSuspended && u.SuspensionCount >= 2 {
		return false
	}
	return true
}
