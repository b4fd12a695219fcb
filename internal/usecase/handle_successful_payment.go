package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

// HandleSuccessfulPayment reacts to the provider confirming a payment:
// the reserved funds are sent for settlement and the transaction waits
// for the ledger's settlement response.
type HandleSuccessfulPayment struct {
	repo    domain.TransactionRepo
	events  domain.EventService
	posting domain.PostingService
	logger  *slog.Logger
}

func NewHandleSuccessfulPayment(
	repo domain.TransactionRepo,
	events domain.EventService,
	posting domain.PostingService,
	logger *slog.Logger,
) *HandleSuccessfulPayment {
	return &HandleSuccessfulPayment{
		repo:    repo,
		events:  events,
		posting: posting,
		logger:  logger,
	}
}

func (uc *HandleSuccessfulPayment) Invoke(ctx context.Context, transactionID uuid.UUID) error {
	uc.logger.Info("Handling successful provider payment", "transaction_id", transactionID)

	tx, err := uc.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	if tx == nil {
		return &errors.TransactionNotFoundError{ID: transactionID.String()}
	}

	if err := validateProviderCallback(tx); err != nil {
		return err
	}

	pending := *tx
	pending.Status = domain.StatusPendingSettlement
	pending.ProviderDetails.ProviderStatus = domain.ProviderSuccess

	result, err := uc.posting.SettleAmount(ctx, &pending)
	if err != nil {
		return err
	}

	// The settlement opens a fresh posting batch; the previous
	// reservation acknowledgment no longer applies.
	pending.PostingDetails = &domain.PostingDetails{
		BatchID: result.BatchID,
		Status:  domain.PostingPendingSettlement,
	}

	updated, err := uc.repo.UpdateTransaction(ctx, &pending)
	if err != nil {
		return err
	}
	uc.events.SendTransactionPendingSettlementEvent(ctx, updated)
	return nil
}

// validateProviderCallback batches the provider-response preconditions
// shared by the success and failure handlers.
func validateProviderCallback(tx *domain.Transaction) error {
	var violations []string

	if tx.Status != domain.StatusSentToProvider {
		violations = append(violations, fmt.Sprintf("Transaction (%s) Status should be %s", tx.ID, domain.StatusSentToProvider))
	}
	if tx.PostingDetails == nil {
		violations = append(violations, fmt.Sprintf("Transaction (%s) posting details should not be null", tx.ID))
	}

	if len(violations) > 0 {
		return errors.NewValidationError(violations...)
	}
	return nil
}
