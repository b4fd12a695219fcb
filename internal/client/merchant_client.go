package client

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"payment-transaction-manager/internal/domain"
)

type MerchantClient struct {
	http *httpClient
}

func NewMerchantClient(baseURL string, timeout time.Duration) *MerchantClient {
	return &MerchantClient{http: newHTTPClient(baseURL, timeout)}
}

type merchantResponse struct {
	Name         string           `json:"name"`
	Code         string           `json:"code"`
	MinimumLimit decimal.Decimal  `json:"minimumLimit"`
	MaximumLimit *decimal.Decimal `json:"maximumLimit,omitempty"`
}

type productResponse struct {
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	ProviderName string          `json:"providerName"`
}

func (c *MerchantClient) GetMerchantDetails(ctx context.Context, merchantCode string) (*domain.MerchantDetails, error) {
	var resp merchantResponse
	found, err := c.http.getJSON(ctx, fmt.Sprintf("/merchants/%s", merchantCode), &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &domain.MerchantDetails{
		Name:         resp.Name,
		Code:         resp.Code,
		MinimumLimit: resp.MinimumLimit,
		MaximumLimit: resp.MaximumLimit,
	}, nil
}

func (c *MerchantClient) GetProduct(ctx context.Context, productCode string) (*domain.ProductDetails, error) {
	var resp productResponse
	found, err := c.http.getJSON(ctx, fmt.Sprintf("/products/%s", productCode), &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &domain.ProductDetails{
		Name:         resp.Name,
		Code:         resp.Code,
		SellingPrice: resp.SellingPrice,
		ProviderName: resp.ProviderName,
	}, nil
}
