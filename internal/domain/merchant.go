package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type MerchantDetails struct {
	Name         string
	Code         string
	MinimumLimit decimal.Decimal
	MaximumLimit *decimal.Decimal
}

type ProductDetails struct {
	Name         string
	Code         string
	SellingPrice decimal.Decimal
	ProviderName string
}

// MerchantService looks up billers and airtime products. A nil result
// means the code is unknown.
type MerchantService interface {
	GetMerchantDetails(ctx context.Context, merchantCode string) (*MerchantDetails, error)
	GetProduct(ctx context.Context, productCode string) (*ProductDetails, error)
}
