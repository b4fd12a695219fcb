package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestZeroCustomerFee(t *testing.T) {
	fee := ZeroCustomerFee()
	assert.True(t, fee.IsZero())
	assert.Equal(t, "PHP", fee.Currency)
}

func TestCustomerFee_Add(t *testing.T) {
	base := CustomerFee{Amount: decimal.RequireFromString("10"), Currency: "PHP"}
	other := CustomerFee{Amount: decimal.RequireFromString("2.50"), Currency: "USD"}

	sum := base.Add(other)

	assert.True(t, sum.Amount.Equal(decimal.RequireFromString("12.50")))
	// Left operand's currency wins.
	assert.Equal(t, "PHP", sum.Currency)
	assert.Nil(t, sum.SubscriptionID)
}

func TestVendorFee_Add(t *testing.T) {
	base := VendorFee{Amount: decimal.RequireFromString("5"), Currency: "PHP"}

	sum := base.Add(ZeroVendorFee())

	assert.True(t, sum.Amount.Equal(decimal.RequireFromString("5")))
	assert.False(t, sum.IsZero())
}
