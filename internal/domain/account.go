package domain

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-transaction-manager/internal/errors"
)

var accountNumberPattern = regexp.MustCompile(`^\d{10}$`)

// AccountNumber is a validated 10-digit account identifier.
type AccountNumber string

func NewAccountNumber(value string) (AccountNumber, error) {
	if !accountNumberPattern.MatchString(value) {
		return "", errors.NewValidationError("Illegal account number format")
	}
	return AccountNumber(value), nil
}

func (n AccountNumber) String() string {
	return string(n)
}

type AccountDetails struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	AccountNumber AccountNumber
	Active        bool
	Balance       decimal.Decimal
	Currency      string
}

// AccountService resolves customer accounts. A nil result means the
// account does not exist.
type AccountService interface {
	GetAccountDetails(ctx context.Context, accountNumber AccountNumber) (*AccountDetails, error)
}
