package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBranch(t *testing.T) {
	branch, err := NewBranch(" MAIN ", " Main Branch ")
	require.NoError(t, err)
	assert.Equal(t, "MAIN", branch.Code)
	assert.Equal(t, "Main Branch", branch.Name)
	assert.Equal(t, BranchStatusActive, branch.Status)
	assert.True(t, branch.IsActive())
}

func TestNewBranchValidation(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"too short", "A"},
		{"empty", ""},
		{"spaces inside", "MA IN"},
		{"punctuation", "MAIN!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBranch(tt.code, "Name")
			assert.Error(t, err)
		})
	}

	_, err := NewBranch("MAIN", "")
	assert.Error(t, err)
}

func TestNewUser(t *testing.T) {
	user, err := NewUser("Alex Doe", " Alex@Example.COM ", "long-enough-pw", RolePharmacist)
	require.NoError(t, err)
	assert.Equal(t, "alex@example.com", user.Email)
	assert.Equal(t, UserStatusActive, user.Status)
	assert.True(t, user.IsActive())
	assert.False(t, user.IsAdmin())

	// The hash verifies the original password and nothing else.
	assert.True(t, user.CheckPassword("long-enough-pw"))
	assert.False(t, user.CheckPassword("wrong"))
	assert.NotContains(t, user.PasswordHash, "long-enough-pw")
}

func TestNewUserValidation(t *testing.T) {
	_, err := NewUser("", "a@b.co", "long-enough-pw", RoleCashier)
	assert.Error(t, err)
	_, err = NewUser("Name", "not-an-email", "long-enough-pw", RoleCashier)
	assert.Error(t, err)
	_, err = NewUser("Name", "a@b.co", "short", RoleCashier)
	assert.Error(t, err)
}
