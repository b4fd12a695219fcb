package usecase

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

var errCollaboratorDown = stderrors.New("collaborator unavailable")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRepo struct {
	mu           sync.Mutex
	transactions map[uuid.UUID]*domain.Transaction
	saveErr      error
	updateErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *fakeRepo) SaveTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	if _, ok := r.transactions[tx.ID]; ok {
		return nil, errors.ErrDuplicateTransaction
	}
	saved := *tx
	saved.Version = 0
	r.transactions[tx.ID] = &saved
	copy := saved
	return &copy, nil
}

func (r *fakeRepo) UpdateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	current, ok := r.transactions[tx.ID]
	if !ok {
		return nil, &errors.TransactionNotFoundError{ID: tx.ID.String()}
	}
	if current.Version != tx.Version {
		return nil, errors.ErrStaleTransaction
	}
	updated := *tx
	updated.Version = tx.Version + 1
	r.transactions[tx.ID] = &updated
	copy := updated
	return &copy, nil
}

func (r *fakeRepo) GetTransaction(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	copy := *tx
	return &copy, nil
}

func (r *fakeRepo) stored(id uuid.UUID) *domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transactions[id]
}

func (r *fakeRepo) put(tx *domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions[tx.ID] = tx
}

type fakeAccounts struct {
	accounts map[domain.AccountNumber]*domain.AccountDetails
	err      error
}

func (f *fakeAccounts) GetAccountDetails(_ context.Context, number domain.AccountNumber) (*domain.AccountDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.accounts[number], nil
}

type fakeMerchants struct {
	merchants map[string]*domain.MerchantDetails
	products  map[string]*domain.ProductDetails
}

func (f *fakeMerchants) GetMerchantDetails(_ context.Context, code string) (*domain.MerchantDetails, error) {
	return f.merchants[code], nil
}

func (f *fakeMerchants) GetProduct(_ context.Context, code string) (*domain.ProductDetails, error) {
	return f.products[code], nil
}

type fakeFraud struct {
	status domain.FraudStatus
	err    error
}

func (f *fakeFraud) DetermineFraudStatus(context.Context, *domain.Transaction) (domain.FraudStatus, error) {
	return f.status, f.err
}

type fakeFees struct {
	mu          sync.Mutex
	customerFee domain.CustomerFee
	vendorFee   domain.VendorFee
	reverted    []domain.CustomerFee
	revertErr   error
}

func (f *fakeFees) CalculateCustomerFee(context.Context, *domain.Transaction) (domain.CustomerFee, error) {
	return f.customerFee, nil
}

func (f *fakeFees) CalculateVendorFee(context.Context, *domain.Transaction) (domain.VendorFee, error) {
	return f.vendorFee, nil
}

func (f *fakeFees) RevertCustomerFee(_ context.Context, fee domain.CustomerFee) error {
	if f.revertErr != nil {
		return f.revertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reverted = append(f.reverted, fee)
	return nil
}

type fakePosting struct {
	mu       sync.Mutex
	batchID  uuid.UUID
	err      error
	reserves int
	settles  int
	releases int
}

func (f *fakePosting) ReserveTransactionAmount(context.Context, *domain.Transaction) (*domain.PostingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.reserves++
	return &domain.PostingResult{BatchID: f.batchID}, nil
}

func (f *fakePosting) SettleAmount(context.Context, *domain.Transaction) (*domain.PostingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.settles++
	return &domain.PostingResult{BatchID: f.batchID}, nil
}

func (f *fakePosting) ReleaseAmount(context.Context, *domain.Transaction) (*domain.PostingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.releases++
	return &domain.PostingResult{BatchID: f.batchID}, nil
}

type fakeProvider struct {
	name      string
	usable    bool
	result    *domain.ProviderResult
	err       error
	initiated int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) UsableForTransaction(domain.TransactionType, string) bool {
	return f.usable
}

func (f *fakeProvider) InitiatePayment(_ context.Context, tx *domain.Transaction) (*domain.ProviderResult, error) {
	f.initiated++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.ProviderResult{
		TransactionID: tx.ID,
		ProviderID:    "provider-ref-1",
		Status:        domain.ProviderPending,
	}, nil
}

// recordingEvents captures every emitted event with a snapshot of the
// transaction at emission time, in order.
type recordingEvents struct {
	mu     sync.Mutex
	events []emitted
}

type emitted struct {
	name string
	tx   domain.Transaction
}

func (r *recordingEvents) record(name string, tx *domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{name: name, tx: *tx})
}

func (r *recordingEvents) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.name
	}
	return names
}

func (r *recordingEvents) SendTransactionCreatedEvent(_ context.Context, tx *domain.Transaction) {
	r.record("created", tx)
}

func (r *recordingEvents) SendTransactionApprovedEvent(_ context.Context, tx *domain.Transaction) {
	r.record("approved", tx)
}

func (r *recordingEvents) SendTransactionFailedEvent(_ context.Context, tx *domain.Transaction) {
	r.record("failed", tx)
}

func (r *recordingEvents) SendTransactionReservedEvent(_ context.Context, tx *domain.Transaction) {
	r.record("reserved", tx)
}

func (r *recordingEvents) SendTransactionSentToProviderEvent(_ context.Context, tx *domain.Transaction) {
	r.record("sent-to-provider", tx)
}

func (r *recordingEvents) SendTransactionPendingSettlementEvent(_ context.Context, tx *domain.Transaction) {
	r.record("pending-settlement", tx)
}

func (r *recordingEvents) SendTransactionReleasedEvent(_ context.Context, tx *domain.Transaction) {
	r.record("released", tx)
}

func (r *recordingEvents) SendTransactionSuccessEvent(_ context.Context, tx *domain.Transaction) {
	r.record("success", tx)
}

func activeAccountDetails(number domain.AccountNumber, balance string) *domain.AccountDetails {
	return &domain.AccountDetails{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		AccountNumber: number,
		Active:        true,
		Balance:       decimal.RequireFromString(balance),
		Currency:      "PHP",
	}
}
