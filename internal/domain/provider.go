package domain

import (
	"context"

	"github.com/google/uuid"
)

type ProviderResult struct {
	TransactionID uuid.UUID
	ProviderID    string
	Status        ProviderStatus
}

// ProviderService submits payments to one external payment provider.
type ProviderService interface {
	Name() string
	UsableForTransaction(txType TransactionType, merchantCode string) bool
	InitiatePayment(ctx context.Context, tx *Transaction) (*ProviderResult, error)
}
