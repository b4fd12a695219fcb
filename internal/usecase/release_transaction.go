package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

// ReleaseTransaction closes the failure path once the ledger confirms
// the reservation was released: the customer fee is reverted, both fees
// zeroed and the transaction ends FAILED.
type ReleaseTransaction struct {
	repo   domain.TransactionRepo
	events domain.EventService
	fees   domain.FeeService
	logger *slog.Logger
}

func NewReleaseTransaction(
	repo domain.TransactionRepo,
	events domain.EventService,
	fees domain.FeeService,
	logger *slog.Logger,
) *ReleaseTransaction {
	return &ReleaseTransaction{
		repo:   repo,
		events: events,
		fees:   fees,
		logger: logger,
	}
}

func (uc *ReleaseTransaction) Invoke(ctx context.Context, result *domain.ReleaseTransactionResult) error {
	uc.logger.Info("Handling release response",
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

	if err := uc.fees.RevertCustomerFee(ctx, tx.CustomerFee); err != nil {
		return err
	}

	now := time.Now().UTC()
	postingID := result.PostingID
	released := *tx
	released.Status = domain.StatusFailed
	released.CustomerFee = domain.ZeroCustomerFee()
	released.VendorFee = domain.ZeroVendorFee()
	details := *tx.PostingDetails
	details.PostingID = &postingID
	details.PostedAt = &now
	details.Status = domain.PostingReleased
	released.PostingDetails = &details

	updated, err := uc.repo.UpdateTransaction(ctx, &released)
	if err != nil {
		return err
	}
	uc.events.SendTransactionReleasedEvent(ctx, updated)
	return nil
}

func (uc *ReleaseTransaction) validate(tx *domain.Transaction) error {
	var violations []string

	if tx.Status != domain.StatusPendingRelease {
		violations = append(violations, fmt.Sprintf("Transaction (%s) Status should be %s", tx.ID, domain.StatusPendingRelease))
	}
	if tx.PostingDetails == nil {
		violations = append(violations, fmt.Sprintf("Transaction (%s) posting details should not be null", tx.ID))
	}

	if len(violations) > 0 {
		return errors.NewValidationError(violations...)
	}
	return nil
}
