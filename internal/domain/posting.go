package domain

import (
	"context"

	"github.com/google/uuid"
)

type PostingResult struct {
	BatchID uuid.UUID
}

// PostingService asks the ledger to reserve, settle or release funds
// against the sender account. Each call opens a new posting batch; the
// outcome arrives later as an asynchronous posting response.
type PostingService interface {
	ReserveTransactionAmount(ctx context.Context, tx *Transaction) (*PostingResult, error)
	SettleAmount(ctx context.Context, tx *Transaction) (*PostingResult, error)
	ReleaseAmount(ctx context.Context, tx *Transaction) (*PostingResult, error)
}
