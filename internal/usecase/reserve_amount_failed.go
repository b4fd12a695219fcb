package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

// ReserveAmountFailed handles the ledger rejecting a reservation. The
// customer fee is reverted before the failed state becomes visible: a
// caller re-querying after completion must never see FAILED with a
// still-active fee subscription.
type ReserveAmountFailed struct {
	repo   domain.TransactionRepo
	events domain.EventService
	fees   domain.FeeService
	logger *slog.Logger
}

func NewReserveAmountFailed(
	repo domain.TransactionRepo,
	events domain.EventService,
	fees domain.FeeService,
	logger *slog.Logger,
) *ReserveAmountFailed {
	return &ReserveAmountFailed{
		repo:   repo,
		events: events,
		fees:   fees,
		logger: logger,
	}
}

func (uc *ReserveAmountFailed) Invoke(ctx context.Context, req *domain.ReserveTransactionRequest) error {
	uc.logger.Info("Handling reservation failure",
		"transaction_id", req.TransactionID, "posting_id", req.PostingID)

	tx, err := uc.repo.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		return err
	}
	if tx == nil {
		return &errors.TransactionNotFoundError{ID: req.TransactionID.String()}
	}

	if err := uc.validate(tx); err != nil {
		return err
	}

	// Revert before persisting; a fee-reversal failure leaves the
	// transaction untouched.
	if err := uc.fees.RevertCustomerFee(ctx, tx.CustomerFee); err != nil {
		return err
	}

	failed := *tx
	failed.Status = domain.StatusFailed
	failed.CustomerFee = domain.ZeroCustomerFee()
	failed.VendorFee = domain.ZeroVendorFee()
	details := *tx.PostingDetails
	details.Status = domain.PostingFailed
	failed.PostingDetails = &details

	updated, err := uc.repo.UpdateTransaction(ctx, &failed)
	if err != nil {
		return err
	}
	uc.events.SendTransactionFailedEvent(ctx, updated)
	return nil
}

func (uc *ReserveAmountFailed) validate(tx *domain.Transaction) error {
	var violations []string

	switch tx.Status {
	case domain.StatusPending, domain.StatusWaitingForApproval:
	default:
		violations = append(violations, fmt.Sprintf("Transaction (%s) Status should be pending", tx.ID))
	}
	if tx.PostingDetails == nil {
		violations = append(violations, fmt.Sprintf("Transaction (%s) posting details should not be null", tx.ID))
	}

	if len(violations) > 0 {
		return errors.NewValidationError(violations...)
	}
	return nil
}
