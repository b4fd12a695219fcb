package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-transaction-manager/internal/domain"
)

type AccountClient struct {
	http *httpClient
}

func NewAccountClient(baseURL string, timeout time.Duration) *AccountClient {
	return &AccountClient{http: newHTTPClient(baseURL, timeout)}
}

type accountResponse struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customerId"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	Active        bool            `json:"active"`
}

func (c *AccountClient) GetAccountDetails(ctx context.Context, number domain.AccountNumber) (*domain.AccountDetails, error) {
	var resp accountResponse
	found, err := c.http.getJSON(ctx, fmt.Sprintf("/accounts/%s", number), &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &domain.AccountDetails{
		ID:            resp.ID,
		CustomerID:    resp.CustomerID,
		AccountNumber: domain.AccountNumber(resp.AccountNumber),
		Balance:       resp.Balance,
		Currency:      resp.Currency,
		Active:        resp.Active,
	}, nil
}
