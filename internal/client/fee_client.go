package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-transaction-manager/internal/domain"
)

type FeeClient struct {
	http *httpClient
}

func NewFeeClient(baseURL string, timeout time.Duration) *FeeClient {
	return &FeeClient{http: newHTTPClient(baseURL, timeout)}
}

type feeCalculationRequest struct {
	TransactionID uuid.UUID       `json:"transactionId"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CustomerID    uuid.UUID       `json:"customerId"`
	MerchantCode  string          `json:"merchantCode"`
	Provider      string          `json:"provider"`
}

type feeResponse struct {
	ID             string          `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	SubscriptionID *uuid.UUID      `json:"subscriptionId,omitempty"`
}

type feeReversalRequest struct {
	FeeID          string          `json:"feeId"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	SubscriptionID *uuid.UUID      `json:"subscriptionId,omitempty"`
}

func (c *FeeClient) CalculateCustomerFee(ctx context.Context, tx *domain.Transaction) (domain.CustomerFee, error) {
	var resp feeResponse
	if err := c.http.postJSON(ctx, "/fees/customer", feeRequestFor(tx), &resp); err != nil {
		return domain.CustomerFee{}, err
	}
	return domain.CustomerFee{
		ID:             resp.ID,
		Amount:         resp.Amount,
		Currency:       resp.Currency,
		SubscriptionID: resp.SubscriptionID,
	}, nil
}

func (c *FeeClient) CalculateVendorFee(ctx context.Context, tx *domain.Transaction) (domain.VendorFee, error) {
	var resp feeResponse
	if err := c.http.postJSON(ctx, "/fees/vendor", feeRequestFor(tx), &resp); err != nil {
		return domain.VendorFee{}, err
	}
	return domain.VendorFee{
		ID:       resp.ID,
		Amount:   resp.Amount,
		Currency: resp.Currency,
	}, nil
}

// RevertCustomerFee refunds a previously charged customer fee. Zero fees
// never reach the wire.
func (c *FeeClient) RevertCustomerFee(ctx context.Context, fee domain.CustomerFee) error {
	if fee.IsZero() {
		return nil
	}
	req := feeReversalRequest{
		FeeID:          fee.ID,
		Amount:         fee.Amount,
		Currency:       fee.Currency,
		SubscriptionID: fee.SubscriptionID,
	}
	return c.http.postJSON(ctx, "/fees/customer/reversals", req, nil)
}

func feeRequestFor(tx *domain.Transaction) feeCalculationRequest {
	return feeCalculationRequest{
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		CustomerID:    tx.SenderDetails.CustomerID,
		MerchantCode:  tx.ProviderDetails.MerchantCode,
		Provider:      tx.ProviderDetails.Provider,
	}
}
