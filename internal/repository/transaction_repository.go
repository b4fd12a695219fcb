package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewTransactionRepository(db SQLExecutor, logger *slog.Logger) domain.TransactionRepo {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

const transactionColumns = `
	id, amount, currency, type, status,
	sender_account_id, sender_customer_id, sender_account_number,
	fraud_status,
	customer_fee_id, customer_fee_amount, customer_fee_currency, customer_fee_subscription_id, customer_fee_posting_id, customer_fee_batch_id,
	vendor_fee_id, vendor_fee_amount, vendor_fee_currency, vendor_fee_posting_id, vendor_fee_batch_id,
	provider_name, provider_merchant_code, provider_merchant_name, provider_id, provider_status,
	posting_batch_id, posting_id, posted_at, posting_status,
	created_at, updated_at, version
`

func (r *transactionRepository) SaveTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	query := `
		INSERT INTO payment_transaction (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)
	`

	now := time.Now().UTC()
	saved := *tx
	saved.Version = 0
	saved.CreatedAt = now
	saved.UpdatedAt = now

	args := []interface{}{
		saved.ID,
		saved.Amount.String(),
		saved.Currency,
		string(saved.Type),
		string(saved.Status),
		saved.SenderDetails.AccountID,
		saved.SenderDetails.CustomerID,
		saved.SenderDetails.AccountNumber.String(),
		string(saved.FraudStatus),
	}
	args = append(args, feeArgs(&saved)...)
	args = append(args, providerArgs(&saved)...)
	args = append(args, postingArgs(&saved)...)
	args = append(args, now, now, saved.Version)

	if _, err := r.db.Exec(query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			r.logger.Warn("Duplicate transaction id", "transaction_id", saved.ID)
			return nil, errors.ErrDuplicateTransaction
		}
		r.logger.Error("Failed to save transaction", "transaction_id", saved.ID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to save transaction").WithDetails(err.Error())
	}

	r.logger.Info("Transaction saved", "transaction_id", saved.ID, "status", saved.Status)
	return &saved, nil
}

// UpdateTransaction is a compare-and-swap on the version column: a
// write based on a stale read fails instead of clobbering a newer
// transition.
func (r *transactionRepository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	query := `
		UPDATE payment_transaction SET
			status = $1, fraud_status = $2,
			customer_fee_id = $3, customer_fee_amount = $4, customer_fee_currency = $5,
			customer_fee_subscription_id = $6, customer_fee_posting_id = $7, customer_fee_batch_id = $8,
			vendor_fee_id = $9, vendor_fee_amount = $10, vendor_fee_currency = $11,
			vendor_fee_posting_id = $12, vendor_fee_batch_id = $13,
			provider_id = $14, provider_status = $15,
			posting_batch_id = $16, posting_id = $17, posted_at = $18, posting_status = $19,
			updated_at = $20, version = version + 1
		WHERE id = $21 AND version = $22
	`

	now := time.Now().UTC()
	updated := *tx

	args := []interface{}{
		string(updated.Status),
		string(updated.FraudStatus),
		nullString(updated.CustomerFee.ID),
		updated.CustomerFee.Amount.String(),
		updated.CustomerFee.Currency,
		uuidOrNil(updated.CustomerFee.SubscriptionID),
		nullString(updated.CustomerFee.PostingID),
		nullString(updated.CustomerFee.BatchID),
		nullString(updated.VendorFee.ID),
		updated.VendorFee.Amount.String(),
		updated.VendorFee.Currency,
		nullString(updated.VendorFee.PostingID),
		nullString(updated.VendorFee.BatchID),
		nullString(updated.ProviderDetails.ProviderID),
		string(updated.ProviderDetails.ProviderStatus),
	}
	args = append(args, postingArgs(&updated)...)
	args = append(args, now, updated.ID, updated.Version)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		r.logger.Error("Failed to update transaction", "transaction_id", updated.ID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to update transaction").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		existing, getErr := r.GetTransaction(ctx, updated.ID)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil {
			r.logger.Warn("No transaction found to update", "transaction_id", updated.ID)
			return nil, &errors.TransactionNotFoundError{ID: updated.ID.String()}
		}
		r.logger.Warn("Stale transaction write rejected",
			"transaction_id", updated.ID,
			"stale_version", updated.Version,
			"current_version", existing.Version)
		return nil, errors.ErrStaleTransaction
	}

	updated.Version++
	updated.UpdatedAt = now
	r.logger.Info("Transaction updated",
		"transaction_id", updated.ID, "status", updated.Status, "version", updated.Version)
	return &updated, nil
}

func (r *transactionRepository) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transaction WHERE id = $1`

	var (
		tx                        domain.Transaction
		amountStr                 string
		txType, status            string
		accountNumber             string
		fraudStatus               string
		custFeeID                 sql.NullString
		custFeeAmountStr          string
		custFeeCurrency           string
		custFeeSubscriptionID     sql.NullString
		custFeePostingID          sql.NullString
		custFeeBatchID            sql.NullString
		vendFeeID                 sql.NullString
		vendFeeAmountStr          string
		vendFeeCurrency           string
		vendFeePostingID          sql.NullString
		vendFeeBatchID            sql.NullString
		providerID                sql.NullString
		providerStatus            string
		postingBatchID, postingID sql.NullString
		postedAt                  sql.NullTime
		postingStatus             sql.NullString
	)

	err := r.db.QueryRow(query, id).Scan(
		&tx.ID,
		&amountStr,
		&tx.Currency,
		&txType,
		&status,
		&tx.SenderDetails.AccountID,
		&tx.SenderDetails.CustomerID,
		&accountNumber,
		&fraudStatus,
		&custFeeID,
		&custFeeAmountStr,
		&custFeeCurrency,
		&custFeeSubscriptionID,
		&custFeePostingID,
		&custFeeBatchID,
		&vendFeeID,
		&vendFeeAmountStr,
		&vendFeeCurrency,
		&vendFeePostingID,
		&vendFeeBatchID,
		&tx.ProviderDetails.Provider,
		&tx.ProviderDetails.MerchantCode,
		&tx.ProviderDetails.MerchantName,
		&providerID,
		&providerStatus,
		&postingBatchID,
		&postingID,
		&postedAt,
		&postingStatus,
		&tx.CreatedAt,
		&tx.UpdatedAt,
		&tx.Version,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction", "transaction_id", id, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get transaction").WithDetails(err.Error())
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
	}
	custFeeAmount, err := decimal.NewFromString(custFeeAmountStr)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to parse customer fee amount").WithDetails(err.Error())
	}
	vendFeeAmount, err := decimal.NewFromString(vendFeeAmountStr)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to parse vendor fee amount").WithDetails(err.Error())
	}

	tx.Amount = amount
	tx.Type = domain.TransactionType(txType)
	tx.Status = domain.TransactionStatus(status)
	tx.SenderDetails.AccountNumber = domain.AccountNumber(accountNumber)
	tx.FraudStatus = domain.FraudStatus(fraudStatus)
	tx.CustomerFee = domain.CustomerFee{
		ID:        custFeeID.String,
		Amount:    custFeeAmount,
		Currency:  custFeeCurrency,
		PostingID: custFeePostingID.String,
		BatchID:   custFeeBatchID.String,
	}
	if custFeeSubscriptionID.Valid {
		subID, err := uuid.Parse(custFeeSubscriptionID.String)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse subscription id").WithDetails(err.Error())
		}
		tx.CustomerFee.SubscriptionID = &subID
	}
	tx.VendorFee = domain.VendorFee{
		ID:        vendFeeID.String,
		Amount:    vendFeeAmount,
		Currency:  vendFeeCurrency,
		PostingID: vendFeePostingID.String,
		BatchID:   vendFeeBatchID.String,
	}
	tx.ProviderDetails.ProviderID = providerID.String
	tx.ProviderDetails.ProviderStatus = domain.ProviderStatus(providerStatus)

	if postingBatchID.Valid {
		batchID, err := uuid.Parse(postingBatchID.String)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse posting batch id").WithDetails(err.Error())
		}
		details := &domain.PostingDetails{BatchID: batchID}
		if postingID.Valid {
			pid, err := uuid.Parse(postingID.String)
			if err != nil {
				return nil, errors.NewAppError(errors.InternalError, "failed to parse posting id").WithDetails(err.Error())
			}
			details.PostingID = &pid
		}
		if postedAt.Valid {
			t := postedAt.Time
			details.PostedAt = &t
		}
		if postingStatus.Valid {
			details.Status = domain.PostingStatus(postingStatus.String)
		}
		tx.PostingDetails = details
	}

	return &tx, nil
}

func feeArgs(tx *domain.Transaction) []interface{} {
	return []interface{}{
		nullString(tx.CustomerFee.ID),
		tx.CustomerFee.Amount.String(),
		tx.CustomerFee.Currency,
		uuidOrNil(tx.CustomerFee.SubscriptionID),
		nullString(tx.CustomerFee.PostingID),
		nullString(tx.CustomerFee.BatchID),
		nullString(tx.VendorFee.ID),
		tx.VendorFee.Amount.String(),
		tx.VendorFee.Currency,
		nullString(tx.VendorFee.PostingID),
		nullString(tx.VendorFee.BatchID),
	}
}

func providerArgs(tx *domain.Transaction) []interface{} {
	return []interface{}{
		tx.ProviderDetails.Provider,
		tx.ProviderDetails.MerchantCode,
		tx.ProviderDetails.MerchantName,
		nullString(tx.ProviderDetails.ProviderID),
		string(tx.ProviderDetails.ProviderStatus),
	}
}

func postingArgs(tx *domain.Transaction) []interface{} {
	if tx.PostingDetails == nil {
		return []interface{}{nil, nil, nil, nil}
	}
	d := tx.PostingDetails
	var postingID interface{}
	if d.PostingID != nil {
		postingID = *d.PostingID
	}
	var postedAt interface{}
	if d.PostedAt != nil {
		postedAt = *d.PostedAt
	}
	var status interface{}
	if d.Status != "" {
		status = string(d.Status)
	}
	return []interface{}{d.BatchID, postingID, postedAt, status}
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func uuidOrNil(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
