package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-transaction-manager/internal/domain"
)

type PostingClient struct {
	http *httpClient
}

func NewPostingClient(baseURL string, timeout time.Duration) *PostingClient {
	return &PostingClient{http: newHTTPClient(baseURL, timeout)}
}

type postingBatchRequest struct {
	TransactionID     uuid.UUID       `json:"transactionId"`
	AccountNumber     string          `json:"accountNumber"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	CustomerFeeAmount decimal.Decimal `json:"customerFeeAmount"`
	VendorFeeAmount   decimal.Decimal `json:"vendorFeeAmount"`
	Product           string          `json:"product"`
	Provider          string          `json:"provider"`
}

type postingBatchResponse struct {
	BatchID uuid.UUID `json:"batchId"`
}

func (c *PostingClient) ReserveTransactionAmount(ctx context.Context, tx *domain.Transaction) (*domain.PostingResult, error) {
	return c.openBatch(ctx, "/postings/reservations", tx)
}

func (c *PostingClient) SettleAmount(ctx context.Context, tx *domain.Transaction) (*domain.PostingResult, error) {
	return c.openBatch(ctx, "/postings/settlements", tx)
}

func (c *PostingClient) ReleaseAmount(ctx context.Context, tx *domain.Transaction) (*domain.PostingResult, error) {
	return c.openBatch(ctx, "/postings/releases", tx)
}

func (c *PostingClient) openBatch(ctx context.Context, path string, tx *domain.Transaction) (*domain.PostingResult, error) {
	req := postingBatchRequest{
		TransactionID:     tx.ID,
		AccountNumber:     string(tx.SenderDetails.AccountNumber),
		Amount:            tx.Amount,
		Currency:          tx.Currency,
		CustomerFeeAmount: tx.CustomerFee.Amount,
		VendorFeeAmount:   tx.VendorFee.Amount,
		Product:           string(tx.Type),
		Provider:          tx.ProviderDetails.Provider,
	}

	var resp postingBatchResponse
	if err := c.http.postJSON(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &domain.PostingResult{BatchID: resp.BatchID}, nil
}
