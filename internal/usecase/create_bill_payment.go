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

type BillPaymentRequest struct {
	ID            uuid.UUID
	AccountNumber domain.AccountNumber
	Amount        decimal.Decimal
	Currency      string
	BillerCode    string
}

// CreateBillPayment drives a bill payment from request to a persisted,
// risk-scored transaction and detaches the ledger reservation so the
// caller never waits on posting latency.
type CreateBillPayment struct {
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

func NewCreateBillPayment(
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
) *CreateBillPayment {
	return &CreateBillPayment{
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

type accountLookup struct {
	details *domain.AccountDetails
	err     error
}

func (uc *CreateBillPayment) Invoke(ctx context.Context, req *BillPaymentRequest) (*domain.TransactionResult, error) {
	uc.logger.Info("Creating bill payment",
		"transaction_id", req.ID,
		"biller_code", req.BillerCode,
		"amount", req.Amount)

	// The account and biller lookups have no data dependency; issue them
	// concurrently and join before validating.
	accountCh := make(chan accountLookup, 1)
	go func() {
		details, err := uc.accounts.GetAccountDetails(ctx, req.AccountNumber)
		accountCh <- accountLookup{details: details, err: err}
	}()

	merchant, err := uc.merchants.GetMerchantDetails(ctx, req.BillerCode)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, errors.NewValidationError(fmt.Sprintf("Biller %s does not exist", req.BillerCode))
	}

	lookup := <-accountCh
	if lookup.err != nil {
		return nil, lookup.err
	}
	if lookup.details == nil {
		return nil, errors.NewValidationError(fmt.Sprintf("Account %s does not exist", req.AccountNumber))
	}
	account := lookup.details

	if err := validateBillPayment(req, account, merchant); err != nil {
		return nil, err
	}

	provider, err := selectProvider(uc.providers, domain.TypeBillPayment, req.BillerCode)
	if err != nil {
		return nil, err
	}

	newTx := &domain.Transaction{
		ID:       req.ID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Type:     domain.TypeBillPayment,
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
			MerchantCode:   merchant.Code,
			MerchantName:   merchant.Name,
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

// screenAndPersist runs fraud screening and branches on the decision.
// Rejections and step-ups are persisted as FAILED before the error
// propagates so the outcome is recorded, not silently dropped.
func (uc *CreateBillPayment) screenAndPersist(ctx context.Context, newTx *domain.Transaction) (*domain.Transaction, error) {
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
		return uc.approve(ctx, newTx, fraudStatus)

	default:
		return nil, &errors.UnknownStatusError{
			Message: fmt.Sprintf("Unknown fraud status for transaction %s", newTx.ID),
		}
	}
}

func (uc *CreateBillPayment) approve(ctx context.Context, newTx *domain.Transaction, fraudStatus domain.FraudStatus) (*domain.Transaction, error) {
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
}

func (uc *CreateBillPayment) saveNew(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	saved, err := uc.repo.SaveTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	uc.events.SendTransactionCreatedEvent(ctx, saved)
	return saved, nil
}

func validateBillPayment(req *BillPaymentRequest, account *domain.AccountDetails, merchant *domain.MerchantDetails) error {
	var violations []string

	if account.Balance.LessThan(req.Amount) {
		violations = append(violations, fmt.Sprintf("Account %s has insufficient balance", account.AccountNumber))
	}
	if !account.Active {
		violations = append(violations, fmt.Sprintf("Account %s is not active", account.AccountNumber))
	}
	if req.Amount.LessThan(merchant.MinimumLimit) {
		violations = append(violations, fmt.Sprintf("Payment amount is less than Biller %s minimumLimit", merchant.Code))
	}
	if merchant.MaximumLimit != nil && req.Amount.GreaterThan(*merchant.MaximumLimit) {
		violations = append(violations, fmt.Sprintf("Payment amount is greater than Biller %s maximumLimit", merchant.Code))
	}

	if len(violations) > 0 {
		return errors.NewValidationError(violations...)
	}
	return nil
}

// selectProvider requires exactly one usable provider; zero or several
// matches is an operational misconfiguration surfaced to the caller.
func selectProvider(providers []domain.ProviderService, txType domain.TransactionType, code string) (domain.ProviderService, error) {
	var matches []domain.ProviderService
	for _, p := range providers {
		if p.UsableForTransaction(txType, code) {
			matches = append(matches, p)
		}
	}
	if len(matches) != 1 {
		return nil, &errors.InvalidProviderError{Code: code}
	}
	return matches[0], nil
}

func failedCopy(tx *domain.Transaction, fraudStatus domain.FraudStatus) *domain.Transaction {
	failed := *tx
	failed.Status = domain.StatusFailed
	failed.FraudStatus = fraudStatus
	return &failed
}

// calculateFees issues the vendor and customer fee calculations
// concurrently; the two calls are independent lookups.
func calculateFees(ctx context.Context, fees domain.FeeService, tx *domain.Transaction) (domain.CustomerFee, domain.VendorFee, error) {
	type vendorResult struct {
		fee domain.VendorFee
		err error
	}
	vendorCh := make(chan vendorResult, 1)
	go func() {
		fee, err := fees.CalculateVendorFee(ctx, tx)
		vendorCh <- vendorResult{fee: fee, err: err}
	}()

	customerFee, err := fees.CalculateCustomerFee(ctx, tx)
	vendor := <-vendorCh
	if err != nil {
		return domain.CustomerFee{}, domain.VendorFee{}, err
	}
	if vendor.err != nil {
		return domain.CustomerFee{}, domain.VendorFee{}, vendor.err
	}
	return customerFee, vendor.fee, nil
}

// reserveTransactionAmount is the detached tail of both creation flows:
// it opens the ledger reservation batch, records it and emits the
// approved event. Errors are logged and the transaction stays PENDING
// for later reconciliation.
func reserveTransactionAmount(
	ctx context.Context,
	posting domain.PostingService,
	repo domain.TransactionRepo,
	events domain.EventService,
	logger *slog.Logger,
	tx *domain.Transaction,
) {
	result, err := posting.ReserveTransactionAmount(ctx, tx)
	if err != nil {
		logger.Error("Failed to reserve transaction amount",
			"transaction_id", tx.ID, "error", err)
		return
	}

	updated := *tx
	updated.PostingDetails = &domain.PostingDetails{BatchID: result.BatchID}

	saved, err := repo.UpdateTransaction(ctx, &updated)
	if err != nil {
		logger.Error("Failed to record reservation batch",
			"transaction_id", tx.ID, "batch_id", result.BatchID, "error", err)
		return
	}
	events.SendTransactionApprovedEvent(ctx, saved)
}
