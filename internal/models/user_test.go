package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanAddEditProducts_VerifiedVendor(t *testing.T) {
	user := &User{Role: RoleVendor, IsActive: true}
	profile := &VendorProfile{UserID: "v1", IsVerified: true}

	assert.True(t, CanAddEditProducts(user, profile))
}

func TestCanAddEditProducts_UnverifiedVendor(t *testing.T) {
	// Not suspended, not banned, but unverified: still no.
	user := &User{Role: RoleVendor, IsActive: true}
	profile := &VendorProfile{UserID: "v1", IsVerified: false}

	assert.False(t, CanAddEditProducts(user, profile))
}

func TestCanAddEditProducts_SuspendedVendor(t *testing.T) {
	user := &User{Role: RoleVendor, IsSuspended: true, SuspensionCount: 1}
	profile := &VendorProfile{UserID: "v1", IsVerified: true}

	assert.False(t, CanAddEditProducts(user, profile))
}

func TestCanAddEditProducts_BannedVendor(t *testing.T) {
	user := &User{Role: RoleVendor, IsPermanentlyBanned: true}
	profile := &VendorProfile{UserID: "v1", IsVerified: true}

	assert.False(t, CanAddEditProducts(user, profile))
}

func TestCanAddEditProducts_MissingProfile(t *testing.T) {
	user := &User{Role: RoleVendor}

	assert.False(t, CanAddEditProducts(user, nil))
}

func TestCanAddEditProducts_Consumer(t *testing.T) {
	user := &User{Role: RoleConsumer}

	assert.False(t, CanAddEditProducts(user, &VendorProfile{IsVerified: true}))
}

func TestCanCheckout_FirstSuspensionDoesNotBlock(t *testing.T) {
	user := &User{Role: RoleConsumer, IsSuspended: true, SuspensionCount: 1}

	assert.True(t, CanCheckout(user))
}

func TestCanCheckout_SecondSuspensionBlocks(t *testing.T) {
	user := &User{Role: RoleConsumer, IsSuspended: true, SuspensionCount: 2}

	assert.False(t, CanCheckout(user))
}

func TestCanCheckout_PermanentBanBlocks(t *testing.T) {
	user := &User{Role: RoleConsumer, IsPermanentlyBanned: true}

	assert.False(t, CanCheckout(user))
}

func TestCanCheckout_CleanAccount(t *testing.T) {
	user := &User{Role: RoleConsumer}

	assert.True(t, CanCheckout(user))
}

func TestSuspensionExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := &User{IsSuspended: true, SuspensionEndDate: &past}
	active := &User{IsSuspended: true, SuspensionEndDate: &future}
	banned := &User{IsPermanentlyBanned: true}
	clean := &User{}

	assert.True(t, expired.SuspensionExpired(now))
	assert.False(t, active.SuspensionExpired(now))
	assert.False(t, banned.SuspensionExpired(now))
	assert.False(t, clean.SuspensionExpired(now))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleVendor.Valid())
	assert.True(t, RoleConsumer.Valid())
	assert.False(t, Role("ADMIN").Valid())
	assert.False(t, Role("").Valid())
}
