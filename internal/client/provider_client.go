package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-transaction-manager/internal/domain"
)

// ProviderClient talks to one external payment provider. Which
// transactions it accepts is configuration: a set of transaction types
// and, optionally, an explicit merchant code allowlist.
type ProviderClient struct {
	name          string
	types         map[domain.TransactionType]struct{}
	merchantCodes map[string]struct{}
	http          *httpClient
}

func NewProviderClient(name, baseURL string, timeout time.Duration, types []domain.TransactionType, merchantCodes []string) *ProviderClient {
	typeSet := make(map[domain.TransactionType]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}
	var codeSet map[string]struct{}
	if len(merchantCodes) > 0 {
		codeSet = make(map[string]struct{}, len(merchantCodes))
		for _, c := range merchantCodes {
			codeSet[c] = struct{}{}
		}
	}
	return &ProviderClient{
		name:          name,
		types:         typeSet,
		merchantCodes: codeSet,
		http:          newHTTPClient(baseURL, timeout),
	}
}

func (c *ProviderClient) Name() string {
	return c.name
}

// UsableForTransaction reports whether this provider handles the given
// transaction type and merchant. A nil allowlist accepts every merchant
// of a supported type.
func (c *ProviderClient) UsableForTransaction(txType domain.TransactionType, merchantCode string) bool {
	if _, ok := c.types[txType]; !ok {
		return false
	}
	if c.merchantCodes == nil {
		return true
	}
	_, ok := c.merchantCodes[merchantCode]
	return ok
}

type providerPaymentRequest struct {
	TransactionID uuid.UUID       `json:"transactionId"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	MerchantCode  string          `json:"merchantCode"`
	AccountNumber string          `json:"accountNumber"`
}

type providerPaymentResponse struct {
	ProviderID string `json:"providerId"`
	Status     string `json:"status"`
}

func (c *ProviderClient) InitiatePayment(ctx context.Context, tx *domain.Transaction) (*domain.ProviderResult, error) {
	req := providerPaymentRequest{
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		MerchantCode:  tx.ProviderDetails.MerchantCode,
		AccountNumber: string(tx.SenderDetails.AccountNumber),
	}

	var resp providerPaymentResponse
	if err := c.http.postJSON(ctx, "/payments", req, &resp); err != nil {
		return nil, err
	}

	status := domain.ProviderStatus(resp.Status)
	if status == "" {
		status = domain.ProviderPending
	}
	return &domain.ProviderResult{
		TransactionID: tx.ID,
		ProviderID:    resp.ProviderID,
		Status:        status,
	}, nil
}
