package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid strong password", password: "SecureP@ss123", wantErr: false},
		{name: "too short", password: "Pass@1", wantErr: true},
		{name: "too long", password: "Aa1@" + strings.Repeat("x", 130), wantErr: true},
		{name: "missing uppercase", password: "securepass@123", wantErr: true},
		{name: "missing lowercase", password: "SECUREPASS@123", wantErr: true},
		{name: "missing digit", password: "SecurePass@xyz", wantErr: true},
		{name: "missing special character", password: "SecurePass123", wantErr: true},
		{name: "common password rejected", password: "Password123!", wantErr: true},
		{name: "valid with multiple special chars", password: "Secure#P@ssw0rd", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				// The outward-facing message stays generic
				assert.Equal(t, "invalid password", err.Error())

				var vErr *PasswordValidationError
				require.ErrorAs(t, err, &vErr)
				assert.NotEmpty(t, vErr.Errors)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHashAndComparePassword(t *testing.T) {
	password := "SecureP@ss123"

	hash, err := HashPassword(password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.NoError(t, ComparePassword(hash, password))
	assert.Error(t, ComparePassword(hash, "WrongPassword123!"))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestGenerateTokenKey(t *testing.T) {
	first, err := GenerateTokenKey()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := GenerateTokenKey()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
