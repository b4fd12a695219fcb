package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerFee is the customer-facing fee for a transaction. A zero fee
// (amount 0) is the identity used on reversal and failure paths.
type CustomerFee struct {
	ID             string          `json:"id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	SubscriptionID *uuid.UUID      `json:"subscription_id,omitempty"`
	PostingID      string          `json:"posting_id,omitempty"`
	BatchID        string          `json:"batch_id,omitempty"`
}

func ZeroCustomerFee() CustomerFee {
	return CustomerFee{Amount: decimal.Zero, Currency: "PHP"}
}

func (f CustomerFee) IsZero() bool {
	return f.Amount.IsZero()
}

// Add accumulates fee amounts across adjustment events. The left
// operand's currency wins and the subscription linkage is dropped.
func (f CustomerFee) Add(other CustomerFee) CustomerFee {
	return CustomerFee{
		Amount:   f.Amount.Add(other.Amount),
		Currency: f.Currency,
	}
}

// VendorFee is charged by the payment provider, distinct from the
// customer-facing fee.
type VendorFee struct {
	ID        string          `json:"id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	PostingID string          `json:"posting_id,omitempty"`
	BatchID   string          `json:"batch_id,omitempty"`
}

func ZeroVendorFee() VendorFee {
	return VendorFee{Amount: decimal.Zero, Currency: "PHP"}
}

func (f VendorFee) IsZero() bool {
	return f.Amount.IsZero()
}

func (f VendorFee) Add(other VendorFee) VendorFee {
	return VendorFee{
		Amount:   f.Amount.Add(other.Amount),
		Currency: f.Currency,
	}
}

type FeeService interface {
	CalculateCustomerFee(ctx context.Context, tx *Transaction) (CustomerFee, error)
	CalculateVendorFee(ctx context.Context, tx *Transaction) (VendorFee, error)
	RevertCustomerFee(ctx context.Context, fee CustomerFee) error
}
