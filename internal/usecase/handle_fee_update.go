package usecase

import (
	"context"
	"log/slog"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

// HandleCustomerFeeUpdate records the ledger-side correlation of a
// customer fee posting on the transaction. The ledger acknowledges fee
// postings separately from the main amount; this keeps the fee's
// posting and batch ids auditable without touching amounts or status.
type HandleCustomerFeeUpdate struct {
	repo   domain.TransactionRepo
	logger *slog.Logger
}

func NewHandleCustomerFeeUpdate(repo domain.TransactionRepo, logger *slog.Logger) *HandleCustomerFeeUpdate {
	return &HandleCustomerFeeUpdate{repo: repo, logger: logger}
}

func (uc *HandleCustomerFeeUpdate) Invoke(ctx context.Context, update *domain.CustomerFeeUpdateResult) error {
	uc.logger.Info("Handling customer fee posting update",
		"transaction_id", update.TransactionID, "posting_id", update.PostingID, "batch_id", update.BatchID)

	tx, err := uc.repo.GetTransaction(ctx, update.TransactionID)
	if err != nil {
		return err
	}
	if tx == nil {
		return &errors.TransactionNotFoundError{ID: update.TransactionID.String()}
	}

	if tx.CustomerFee.PostingID == update.PostingID {
		return nil
	}

	updated := *tx
	updated.CustomerFee.PostingID = update.PostingID
	updated.CustomerFee.BatchID = update.BatchID

	_, err = uc.repo.UpdateTransaction(ctx, &updated)
	return err
}

// HandleVendorFeeUpdate is the vendor-fee counterpart of
// HandleCustomerFeeUpdate.
type HandleVendorFeeUpdate struct {
	repo   domain.TransactionRepo
	logger *slog.Logger
}

func NewHandleVendorFeeUpdate(repo domain.TransactionRepo, logger *slog.Logger) *HandleVendorFeeUpdate {
	return &HandleVendorFeeUpdate{repo: repo, logger: logger}
}

func (uc *HandleVendorFeeUpdate) Invoke(ctx context.Context, update *domain.VendorFeeUpdateResult) error {
	uc.logger.Info("Handling vendor fee posting update",
		"transaction_id", update.TransactionID, "posting_id", update.PostingID, "batch_id", update.BatchID)

	tx, err := uc.repo.GetTransaction(ctx, update.TransactionID)
	if err != nil {
		return err
	}
	if tx == nil {
		return &errors.TransactionNotFoundError{ID: update.TransactionID.String()}
	}

	if tx.VendorFee.PostingID == update.PostingID {
		return nil
	}

	updated := *tx
	updated.VendorFee.PostingID = update.PostingID
	updated.VendorFee.BatchID = update.BatchID

	_, err = uc.repo.UpdateTransaction(ctx, &updated)
	return err
}
