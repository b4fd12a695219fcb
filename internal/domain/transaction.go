package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeBillPayment TransactionType = "BILL_PAYMENT"
	TypeAirtimeLoad TransactionType = "AIRTIME_LOAD"
)

type TransactionStatus string

const (
	StatusInitiated          TransactionStatus = "INITIATED"
	StatusPending            TransactionStatus = "PENDING"
	StatusFailed             TransactionStatus = "FAILED"
	StatusSentToProvider     TransactionStatus = "SENT_TO_PROVIDER"
	StatusWaitingForApproval TransactionStatus = "WAITING_FOR_APPROVAL"
	StatusPendingRelease     TransactionStatus = "PENDING_RELEASE"
	StatusPendingSettlement  TransactionStatus = "PENDING_SETTLEMENT"
	StatusSuccess            TransactionStatus = "SUCCESS"
	StatusCancelled          TransactionStatus = "CANCELLED"
	StatusExpired            TransactionStatus = "EXPIRED"
)

type PostingStatus string

const (
	PostingSuccess           PostingStatus = "SUCCESS"
	PostingFailed            PostingStatus = "FAILED"
	PostingReserved          PostingStatus = "RESERVED"
	PostingPendingRelease    PostingStatus = "PENDING_RELEASE"
	PostingPendingSettlement PostingStatus = "PENDING_SETTLEMENT"
	PostingReleased          PostingStatus = "RELEASED"
	PostingSettled           PostingStatus = "SETTLED"
)

type ProviderStatus string

const (
	ProviderNotSent ProviderStatus = "NOT_SENT"
	ProviderPending ProviderStatus = "PENDING"
	ProviderSuccess ProviderStatus = "SUCCESS"
	ProviderFailed  ProviderStatus = "FAILED"
	ProviderUnknown ProviderStatus = "UNKNOWN"
)

// Transaction is the aggregate root for a single bill-payment or
// airtime-load. It is never deleted; FAILED and SUCCESS are terminal.
type Transaction struct {
	ID              uuid.UUID         `json:"id"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	Type            TransactionType   `json:"type"`
	Status          TransactionStatus `json:"status"`
	SenderDetails   SenderDetails     `json:"sender_details"`
	FraudStatus     FraudStatus       `json:"fraud_status"`
	CustomerFee     CustomerFee       `json:"customer_fee"`
	VendorFee       VendorFee         `json:"vendor_fee"`
	ProviderDetails ProviderDetails   `json:"provider_details"`
	PostingDetails  *PostingDetails   `json:"posting_details,omitempty"`
	Version         int64             `json:"version"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// SenderDetails is immutable once set at creation.
type SenderDetails struct {
	AccountID     uuid.UUID     `json:"account_id"`
	CustomerID    uuid.UUID     `json:"customer_id"`
	AccountNumber AccountNumber `json:"account_number"`
}

type ProviderDetails struct {
	Provider       string         `json:"provider"`
	MerchantCode   string         `json:"merchant_code"`
	MerchantName   string         `json:"merchant_name"`
	ProviderID     string         `json:"provider_id,omitempty"`
	ProviderStatus ProviderStatus `json:"provider_status"`
}

// PostingDetails tracks ledger-side progress independently of the
// top-level transaction status: ledger acknowledgment and the business
// transition are two separate events.
type PostingDetails struct {
	BatchID   uuid.UUID     `json:"batch_id"`
	PostingID *uuid.UUID    `json:"posting_id,omitempty"`
	PostedAt  *time.Time    `json:"posted_at,omitempty"`
	Status    PostingStatus `json:"status,omitempty"`
}

type TransactionResult struct {
	TransactionID     uuid.UUID         `json:"transaction_id"`
	TransactionStatus TransactionStatus `json:"transaction_status"`
}

// ReserveTransactionRequest carries a posting-system reservation response
// into the reserve success/failure use cases.
type ReserveTransactionRequest struct {
	TransactionID uuid.UUID
	PostingID     uuid.UUID
}

type SettleTransactionResult struct {
	TransactionID uuid.UUID
	PostingID     uuid.UUID
}

type ReleaseTransactionResult struct {
	TransactionID uuid.UUID
	PostingID     uuid.UUID
}

type CustomerFeeUpdateResult struct {
	TransactionID uuid.UUID
	PostingID     string
	BatchID       string
}

type VendorFeeUpdateResult struct {
	TransactionID uuid.UUID
	PostingID     string
	BatchID       string
}

// TransactionRepo persists the aggregate. SaveTransaction fails on a
// duplicate id. UpdateTransaction performs a compare-and-swap on the
// version column and fails on a stale read instead of overwriting.
// GetTransaction returns (nil, nil) when the id is unknown.
type TransactionRepo interface {
	SaveTransaction(ctx context.Context, tx *Transaction) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) (*Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
}
