package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordService_HashAndVerify(t *testing.T) {
	p := NewPasswordService(bcrypt.MinCost)

	hash, err := p.Hash("MySecurePassword123!")
	require.NoError(t, err)
	assert.NotEqual(t, "MySecurePassword123!", hash)

	assert.True(t, p.Verify("MySecurePassword123!", hash))
	assert.False(t, p.Verify("wrong-password", hash))
}

func TestPasswordService_VerifyFailsClosed(t *testing.T) {
	p := NewPasswordService(bcrypt.MinCost)

	// Malformed hashes must read as "does not match", never panic or error out.
	assert.False(t, p.Verify("password", ""))
	assert.False(t, p.Verify("password", "not-a-bcrypt-hash"))
	assert.False(t, p.Verify("", "$2a$10$truncated"))
}

func TestPasswordService_InvalidCostFallsBack(t *testing.T) {
	p := NewPasswordService(99)

	hash, err := p.Hash("password")
	require.NoError(t, err)
	assert.True(t, p.Verify("password", hash))
}

func TestPasswordService_CheckStrength(t *testing.T) {
	p := NewPasswordService(bcrypt.MinCost)

	tests := []struct {
		name         string
		password     string
		strong       bool
		missingCount int
	}{
		{"strong password", "MyPassword123!", true, 0},
		{"too short", "Ab1!", false, 1},
		{"no uppercase", "mypassword123!", false, 1},
		{"no digit or special", "MyPasswordOnly", false, 2},
		{"empty", "", false, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strong, missing := p.CheckStrength(tt.password)
			assert.Equal(t, tt.strong, strong)
			assert.Len(t, missing, tt.missingCount)
		})
	}
}

func TestPasswordService_StrengthScore(t *testing.T) {
	p := NewPasswordService(bcrypt.MinCost)

	assert.Equal(t, 5, p.StrengthScore("MyPassword123!"))
	assert.Equal(t, 0, p.StrengthScore(""))
	assert.Equal(t, 2, p.StrengthScore("abcdefgh"))
}
