package event

import (
	"time"

	"payment-transaction-manager/internal/domain"
)

type Type string

const (
	TypeCreated           Type = "transaction.created"
	TypeApproved          Type = "transaction.approved"
	TypeFailed            Type = "transaction.failed"
	TypeReserved          Type = "transaction.reserved"
	TypeSentToProvider    Type = "transaction.sent_to_provider"
	TypePendingSettlement Type = "transaction.pending_settlement"
	TypeReleased          Type = "transaction.released"
	TypeSuccess           Type = "transaction.success"
)

// TransactionEvent is the outward-facing projection of a transaction's
// state at one lifecycle transition.
type TransactionEvent struct {
	Type            Type                     `json:"type"`
	TransactionID   string                   `json:"transaction_id"`
	TransactionType domain.TransactionType   `json:"transaction_type"`
	Status          domain.TransactionStatus `json:"status"`
	Amount          string                   `json:"amount"`
	Currency        string                   `json:"currency"`
	AccountID       string                   `json:"account_id"`
	CustomerID      string                   `json:"customer_id"`
	FraudStatus     domain.FraudStatus       `json:"fraud_status"`
	CustomerFee     string                   `json:"customer_fee"`
	VendorFee       string                   `json:"vendor_fee"`
	Provider        string                   `json:"provider"`
	MerchantCode    string                   `json:"merchant_code"`
	ProviderStatus  domain.ProviderStatus    `json:"provider_status"`
	BatchID         string                   `json:"batch_id,omitempty"`
	PostingStatus   domain.PostingStatus     `json:"posting_status,omitempty"`
	OccurredAt      time.Time                `json:"occurred_at"`
}

// NewTransactionEvent maps a transaction to its event payload. It is a
// pure function of the transaction; no orchestration happens here.
func NewTransactionEvent(t Type, tx *domain.Transaction) TransactionEvent {
	ev := TransactionEvent{
		Type:            t,
		TransactionID:   tx.ID.String(),
		TransactionType: tx.Type,
		Status:          tx.Status,
		Amount:          tx.Amount.String(),
		Currency:        tx.Currency,
		AccountID:       tx.SenderDetails.AccountID.String(),
		CustomerID:      tx.SenderDetails.CustomerID.String(),
		FraudStatus:     tx.FraudStatus,
		CustomerFee:     tx.CustomerFee.Amount.String(),
		VendorFee:       tx.VendorFee.Amount.String(),
		Provider:        tx.ProviderDetails.Provider,
		MerchantCode:    tx.ProviderDetails.MerchantCode,
		ProviderStatus:  tx.ProviderDetails.ProviderStatus,
		OccurredAt:      time.Now().UTC(),
	}
	if tx.PostingDetails != nil {
		ev.BatchID = tx.PostingDetails.BatchID.String()
		ev.PostingStatus = tx.PostingDetails.Status
	}
	return ev
}
