package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

type AirtimeLoadRequest struct {
	ID              uuid.UUID
	AccountNumber   domain.AccountNumber
	Amount          decimal.Decimal
	Currency        string
	Product         string
	RecipientName   string
	RecipientMobile string
}

// CreateAirtimeLoad mirrors CreateBillPayment for prepaid airtime: the
// product catalogue replaces the biller directory and the request amount
// must match the product selling price exactly.
type CreateAirtimeLoad struct {
	accounts  domain.AccountService
	merchants domain.MerchantService
	fraud     domain.FraudService
	fees      domain.FeeService
	posting   domain.PostingService
	providers []domain.ProviderService
	events    domain.EventService
	repo      domain.TransactionRepo
	tasks     *TaskRunner
	logger    *slog.Logger
}

func NewCreateAirtimeLoad(
	accounts domain.AccountService,
	merchants domain.MerchantService,
	fraud domain.FraudService,
	fees domain.FeeService,
	posting domain.PostingService,
	providers []domain.ProviderService,
	events domain.EventService,
	repo domain.TransactionRepo,
	tasks *TaskRunner,
	logger *slog.Logger,
) *CreateAirtimeLoad {
	return &CreateAirtimeLoad{
		accounts:  accounts,
		merchants: merchants,
		fraud:     fraud,
		fees:      fees,
		posting:   posting,
		providers: providers,
		events:    events,
		repo:      repo,
		tasks:     tasks,
		logger:    logger,
	}
}

func (uc *CreateAirtimeLoad) Invoke(ctx context.Context, req *AirtimeLoadRequest) (*domain.TransactionResult, error) {
	uc.logger.Info("Creating airtime load",
		"transaction_id", req.ID,
		"product", req.Product,
		"amount", req.Amount)

	accountCh := make(chan accountLookup, 1)
	go func() {
		details, err := uc.accounts.GetAccountDetails(ctx, req.AccountNumber)
		accountCh <- accountLookup{details: details, err: err}
	}()

	provider, err := selectProvider(uc.providers, domain.TypeAirtimeLoad, req.Product)
	if err != nil {
		<-accountCh
		return nil, err
	}

	product, err := uc.merchants.GetProduct(ctx, req.Product)
	if err != nil {
		<-accountCh
		return nil, err
	}
	if product == nil {
		<-accountCh
		return nil, errors.NewValidationError(fmt.Sprintf("Product %s does not exist", req.Product))
	}

	lookup := <-accountCh
	if lookup.err != nil {
		return nil, lookup.err
	}
	if lookup.details == nil {
		return nil, errors.NewValidationError(fmt.Sprintf("Account %s does not exist", req.AccountNumber))
	}
	account := lookup.details

	if err := validateAirtimeLoad(req, account, product); err != nil {
		return nil, err
	}

	newTx := &domain.Transaction{
		ID:       req.ID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Type:     domain.TypeAirtimeLoad,
		Status:   domain.StatusInitiated,
		SenderDetails: domain.SenderDetails{
			AccountID:     account.ID,
			CustomerID:    account.CustomerID,
			AccountNumber: account.AccountNumber,
		},
		FraudStatus: domain.FraudUnknown,
		CustomerFee: domain.ZeroCustomerFee(),
		VendorFee:   domain.ZeroVendorFee(),
		ProviderDetails: domain.ProviderDetails{
			Provider:       provider.Name(),
			MerchantCode:   product.Code,
			MerchantName:   product.Name,
			ProviderStatus: domain.ProviderNotSent,
		},
	}

	saved, err := uc.screenAndPersist(ctx, newTx)
	if err != nil {
		return nil, err
	}

	return &domain.TransactionResult{
		TransactionID:     saved.ID,
		TransactionStatus: saved.Status,
	}, nil
}

func (uc *CreateAirtimeLoad) screenAndPersist(ctx context.Context, newTx *domain.Transaction) (*domain.Transaction, error) {
	fraudStatus, err := uc.fraud.DetermineFraudStatus(ctx, newTx)
	if err != nil {
		return nil, err
	}

	switch {
	case fraudStatus == domain.FraudRejected:
		if _, err := uc.saveNew(ctx, failedCopy(newTx, fraudStatus)); err != nil {
			return nil, err
		}
		return nil, errors.ErrFraudRejected

	case fraudStatus.IsStepUp():
		if _, err := uc.saveNew(ctx, failedCopy(newTx, fraudStatus)); err != nil {
			return nil, err
		}
		return nil, &errors.StepUpError{Level: string(fraudStatus)}

	case fraudStatus == domain.FraudApproved || fraudStatus == domain.FraudManualApproval:
		customerFee, vendorFee, err := calculateFees(ctx, uc.fees, newTx)
		if err != nil {
			return nil, err
		}

		pending := *newTx
		pending.FraudStatus = fraudStatus
		pending.Status = domain.StatusPending
		pending.CustomerFee = customerFee
		pending.VendorFee = vendorFee

		saved, err := uc.saveNew(ctx, &pending)
		if err != nil {
			return nil, err
		}

		uc.tasks.Go("reserve-transaction-amount", func() {
			reserveTransactionAmount(context.WithoutCancel(ctx), uc.posting, uc.repo, uc.events, uc.logger, saved)
		})
		return saved, nil

	default:
		return nil, &errors.UnknownStatusError{
			Message: fmt.Sprintf("Unknown fraud status for transaction %s", newTx.ID),
		}
	}
}

func (uc *CreateAirtimeLoad) saveNew(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	saved, err := uc.repo.SaveTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	uc.events.SendTransactionCreatedEvent(ctx, saved)
	return saved, nil
}

func validateAirtimeLoad(req *AirtimeLoadRequest, account *domain.AccountDetails, product *domain.ProductDetails) error {
	var violations []string

	if account.Balance.LessThan(req.Amount) {
		violations = append(violations, fmt.Sprintf("Account %s has insufficient balance", account.AccountNumber))
	}
	if !account.Active {
		violations = append(violations, fmt.Sprintf("Account %s is not active", account.AccountNumber))
	}
	if !product.SellingPrice.Equal(req.Amount) {
		violations = append(violations, fmt.Sprintf("Request amount %s is not equal to product selling price %s",
			req.Amount, product.SellingPrice))
	}

	if len(violations) > 0 {
		return errors.NewValidationError(violations...)
	}
	return nil
}
