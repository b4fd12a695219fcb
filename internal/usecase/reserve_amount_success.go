package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

// ReserveAmountSuccess handles the ledger acknowledging a reservation:
// it records the posting and, unless the transaction is gated behind
// manual approval, submits the payment to the provider.
type ReserveAmountSuccess struct {
	repo      domain.TransactionRepo
	providers []domain.ProviderService
	events    domain.EventService
	logger    *slog.Logger
}

func NewReserveAmountSuccess(
	repo domain.TransactionRepo,
	providers []domain.ProviderService,
	events domain.EventService,
	logger *slog.Logger,
) *ReserveAmountSuccess {
	return &ReserveAmountSuccess{
		repo:      repo,
		providers: providers,
		events:    events,
		logger:    logger,
	}
}

func (uc *ReserveAmountSuccess) Invoke(ctx context.Context, req *domain.ReserveTransactionRequest) error {
	uc.logger.Info("Handling reservation success",
		"transaction_id", req.TransactionID, "posting_id", req.PostingID)

	tx, err := uc.repo.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		return err
	}
	if tx == nil {
		return &errors.TransactionNotFoundError{ID: req.TransactionID.String()}
	}

	if err := validateReservationCallback(tx, fmt.Sprintf(
		"Transaction (%s) Status should be %s or %s", tx.ID, domain.StatusPending, domain.StatusWaitingForApproval,
	)); err != nil {
		return err
	}

	now := time.Now().UTC()
	postingID := req.PostingID
	reserved := *tx
	details := *tx.PostingDetails
	details.PostingID = &postingID
	details.PostedAt = &now
	details.Status = domain.PostingReserved
	reserved.PostingDetails = &details

	updated, err := uc.repo.UpdateTransaction(ctx, &reserved)
	if err != nil {
		return err
	}
	uc.events.SendTransactionReservedEvent(ctx, updated)

	// The manual approval gate has not cleared yet; the provider
	// submission waits for an external approval workflow.
	if updated.Status != domain.StatusPending {
		return nil
	}

	provider, err := uc.providerByName(updated.ProviderDetails.Provider)
	if err != nil {
		return err
	}

	uc.logger.Info("Initiating provider payment",
		"transaction_id", updated.ID, "provider", provider.Name())
	result, err := provider.InitiatePayment(ctx, updated)
	if err != nil {
		return err
	}

	sent := *updated
	sent.Status = domain.StatusSentToProvider
	sent.ProviderDetails.ProviderID = result.ProviderID
	sent.ProviderDetails.ProviderStatus = result.Status

	final, err := uc.repo.UpdateTransaction(ctx, &sent)
	if err != nil {
		return err
	}
	uc.events.SendTransactionSentToProviderEvent(ctx, final)
	return nil
}

func (uc *ReserveAmountSuccess) providerByName(name string) (domain.ProviderService, error) {
	for _, p := range uc.providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, &errors.InvalidProviderError{Code: name}
}

// validateReservationCallback batches the reservation-callback
// preconditions; both checks are always evaluated.
func validateReservationCallback(tx *domain.Transaction, statusViolation string) error {
	var violations []string

	switch tx.Status {
	case domain.StatusPending, domain.StatusWaitingForApproval:
	default:
		violations = append(violations, statusViolation)
	}
	if tx.PostingDetails == nil {
		violations = append(violations, fmt.Sprintf("Transaction (%s) should have posting details", tx.ID))
	}

	if len(violations) > 0 {
		return errors.NewValidationError(violations...)
	}
	return nil
}
