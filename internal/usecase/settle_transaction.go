package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

// SettleTransaction finalizes the happy path once the ledger confirms
// settlement: PENDING_SETTLEMENT becomes the terminal SUCCESS.
type SettleTransaction struct {
	repo   domain.TransactionRepo
	events domain.EventService
	logger *slog.Logger
}

func NewSettleTransaction(repo domain.TransactionRepo, events domain.EventService, logger *slog.Logger) *SettleTransaction {
	return &SettleTransaction{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

func (uc *SettleTransaction) Invoke(ctx context.Context, result *domain.SettleTransactionResult) error {
	uc.logger.Info("Handling settlement response",
		"transaction_id", result.TransactionID, "posting_id", result.PostingID)

	tx, err := uc.repo.GetTransaction(ctx, result.TransactionID)
	if err != nil {
		return err
	}
	if tx == nil {
		return &errors.TransactionNotFoundError{ID: result.TransactionID.String()}
	}

	if err := uc.validate(tx); err != nil {
		return err
	}

	now := time.Now().UTC()
	postingID := result.PostingID
	settled := *tx
	settled.Status = domain.StatusSuccess
	details := *tx.PostingDetails
	details.PostingID = &postingID
	details.PostedAt = &now
	details.Status = domain.PostingSettled
	settled.PostingDetails = &details

	updated, err := uc.repo.UpdateTransaction(ctx, &settled)
	if err != nil {
		return err
	}
	uc.events.SendTransactionSuccessEvent(ctx, updated)
	return nil
}

func (uc *SettleTransaction) validate(tx *domain.Transaction) error {
	var violations []string

	if tx.Status != domain.StatusPendingSettlement {
		violations = append(violations, fmt.Sprintf("Transaction (%s) Status should be pending settlement", tx.ID))
	}
	if tx.PostingDetails == nil {
		violations = append(violations, fmt.Sprintf("Transaction (%s) posting details should not be null", tx.ID))
	}

	if len(violations) > 0 {
		return errors.NewValidationError(violations...)
	}
	return nil
}
