package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

type FraudClient struct {
	http *httpClient
}

func NewFraudClient(baseURL string, timeout time.Duration) *FraudClient {
	return &FraudClient{http: newHTTPClient(baseURL, timeout)}
}

type fraudScreeningRequest struct {
	TransactionID uuid.UUID       `json:"transactionId"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	AccountNumber string          `json:"accountNumber"`
	CustomerID    uuid.UUID       `json:"customerId"`
	MerchantCode  string          `json:"merchantCode"`
}

type fraudScreeningResponse struct {
	Status string `json:"status"`
}

// DetermineFraudStatus screens a transaction exactly once. Screening an
// already-screened transaction is a caller bug, not a remote call.
func (c *FraudClient) DetermineFraudStatus(ctx context.Context, tx *domain.Transaction) (domain.FraudStatus, error) {
	if tx.FraudStatus != domain.FraudUnknown {
		return domain.FraudUnknown, errors.NewAppErrorf(errors.InvalidInput,
			"transaction %s already screened with status %s", tx.ID, tx.FraudStatus)
	}

	req := fraudScreeningRequest{
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		AccountNumber: string(tx.SenderDetails.AccountNumber),
		CustomerID:    tx.SenderDetails.CustomerID,
		MerchantCode:  tx.ProviderDetails.MerchantCode,
	}

	var resp fraudScreeningResponse
	if err := c.http.postJSON(ctx, "/screenings", req, &resp); err != nil {
		return domain.FraudUnknown, err
	}
	return domain.FraudStatus(resp.Status), nil
}
