package partner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer(" Jamie Doe ", " 555-0101 ")
	require.NoError(t, err)
	assert.Equal(t, "Jamie Doe", c.Name)
	assert.Equal(t, "555-0101", c.Phone)
	assert.True(t, c.CreditBalance.IsZero())

	_, err = NewCustomer("  ", "555")
	assert.Error(t, err)
}

func TestAddLoyaltyPoints(t *testing.T) {
	c, err := NewCustomer("Jamie Doe", "")
	require.NoError(t, err)

	c.AddLoyaltyPoints(10)
	c.AddLoyaltyPoints(5)
	assert.Equal(t, int64(15), c.LoyaltyPoints)

	// Non-positive awards are ignored rather than clawing points back.
	c.AddLoyaltyPoints(0)
	c.AddLoyaltyPoints(-3)
	assert.Equal(t, int64(15), c.LoyaltyPoints)
}
