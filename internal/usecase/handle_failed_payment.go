package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

// HandleFailedPayment reacts to the provider rejecting a payment: fees
// are zeroed, the reservation is sent for release and the transaction
// waits for the ledger's release response.
type HandleFailedPayment struct {
	repo    domain.TransactionRepo
	events  domain.EventService
	posting domain.PostingService
	logger  *slog.Logger
}

func NewHandleFailedPayment(
	repo domain.TransactionRepo,
	events domain.EventService,
	posting domain.PostingService,
	logger *slog.Logger,
) *HandleFailedPayment {
	return &HandleFailedPayment{
		repo:    repo,
		events:  events,
		posting: posting,
		logger:  logger,
	}
}

func (uc *HandleFailedPayment) Invoke(ctx context.Context, transactionID uuid.UUID) error {
	uc.logger.Info("Handling failed provider payment", "transaction_id", transactionID)

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
	pending.Status = domain.StatusPendingRelease
	pending.CustomerFee = domain.ZeroCustomerFee()
	pending.VendorFee = domain.ZeroVendorFee()
	pending.ProviderDetails.ProviderStatus = domain.ProviderFailed

	result, err := uc.posting.ReleaseAmount(ctx, &pending)
	if err != nil {
		return err
	}

	details := *tx.PostingDetails
	details.BatchID = result.BatchID
	details.Status = domain.PostingPendingRelease
	pending.PostingDetails = &details

	updated, err := uc.repo.UpdateTransaction(ctx, &pending)
	if err != nil {
		return err
	}
	uc.events.SendTransactionFailedEvent(ctx, updated)
	return nil
}
