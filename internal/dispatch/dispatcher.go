package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
	"payment-transaction-manager/internal/idempotency"
	"payment-transaction-manager/internal/usecase"
)

// FlowName keys every inbound posting response into one idempotency
// flow; distinct business actions run as distinct phases under it.
const FlowName = "response-listener-flow"

type BatchStatus string

const (
	BatchAccepted BatchStatus = "ACCEPTED"
	BatchRejected BatchStatus = "REJECTED"
)

// Kind names the business action an inbound posting response belongs
// to. One generic handler serves each kind regardless of the product
// and provider combination that produced the message.
type Kind string

const (
	KindReservation Kind = "reservation"
	KindSettlement  Kind = "settlement"
	KindRelease     Kind = "release"
	KindCustomerFee Kind = "customer-fee"
	KindVendorFee   Kind = "vendor-fee"
)

var phaseNames = map[Kind]string{
	KindReservation: "payment-reserve-amount",
	KindSettlement:  "payment-settle-amount",
	KindRelease:     "payment-release-amount",
	KindCustomerFee: "payment-customer-fee-update",
	KindVendorFee:   "payment-vendor-fee-update",
}

// Response is one asynchronous posting-system response. RequestID is
// the posting system's delivery identifier and the idempotency key;
// redelivery reuses it.
type Response struct {
	RequestID     string
	TransactionID uuid.UUID
	BatchID       string
	BatchStatus   BatchStatus
	Product       domain.TransactionType
	Provider      string
}

// Store yields repositories bound to a single database transaction.
// The fee-update phases run through it so the phase mark and the fee
// write commit together.
type Store interface {
	InTransaction(fn func(domain.TransactionRepo, idempotency.Store) error) error
}

type routeKey struct {
	product  domain.TransactionType
	provider string
}

// Dispatcher feeds posting responses into the matching use case,
// wrapped in the idempotency flow so duplicated deliveries re-execute
// nothing. Accepted (product, provider) combinations are registered up
// front instead of being encoded as one listener type per combination.
type Dispatcher struct {
	idem           *idempotency.Service
	store          Store
	reserveSuccess *usecase.ReserveAmountSuccess
	reserveFailed  *usecase.ReserveAmountFailed
	settle         *usecase.SettleTransaction
	release        *usecase.ReleaseTransaction
	routes         map[routeKey]struct{}
	logger         *slog.Logger
}

func NewDispatcher(
	idem *idempotency.Service,
	store Store,
	reserveSuccess *usecase.ReserveAmountSuccess,
	reserveFailed *usecase.ReserveAmountFailed,
	settle *usecase.SettleTransaction,
	release *usecase.ReleaseTransaction,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		idem:           idem,
		store:          store,
		reserveSuccess: reserveSuccess,
		reserveFailed:  reserveFailed,
		settle:         settle,
		release:        release,
		routes:         make(map[routeKey]struct{}),
		logger:         logger,
	}
}

// Register allows posting responses for one product type and provider
// combination. Responses for unregistered combinations are rejected.
func (d *Dispatcher) Register(product domain.TransactionType, provider string) {
	d.routes[routeKey{product: product, provider: provider}] = struct{}{}
}

func (d *Dispatcher) Dispatch(ctx context.Context, kind Kind, resp *Response) error {
	phase, ok := phaseNames[kind]
	if !ok {
		return errors.NewValidationError(fmt.Sprintf("Unknown posting response kind %q", kind))
	}
	if _, ok := d.routes[routeKey{product: resp.Product, provider: resp.Provider}]; !ok {
		return errors.NewValidationError(fmt.Sprintf(
			"No listener registered for product %s and provider %s", resp.Product, resp.Provider))
	}

	d.logger.Info("Received posting response",
		"kind", kind,
		"request_id", resp.RequestID,
		"transaction_id", resp.TransactionID,
		"batch_id", resp.BatchID,
		"batch_status", resp.BatchStatus)

	// Fee updates touch nothing outside the database, so their phase
	// mark and fee write share one transaction. The remaining kinds
	// call external services and emit events mid-phase and cannot be
	// held inside a database transaction.
	if kind == KindCustomerFee || kind == KindVendorFee {
		return d.store.InTransaction(func(repo domain.TransactionRepo, phases idempotency.Store) error {
			idem := idempotency.NewService(phases, d.logger)
			return idem.RunFlow(ctx, FlowName, resp.RequestID, func(f *idempotency.Flow) error {
				return f.Phase(phase, func(ctx context.Context) error {
					return d.invokeFeeUpdate(ctx, repo, kind, resp)
				})
			})
		})
	}

	return d.idem.RunFlow(ctx, FlowName, resp.RequestID, func(f *idempotency.Flow) error {
		return f.Phase(phase, func(ctx context.Context) error {
			return d.invoke(ctx, kind, resp)
		})
	})
}

func (d *Dispatcher) invoke(ctx context.Context, kind Kind, resp *Response) error {
	switch kind {
	case KindReservation:
		postingID, err := uuid.Parse(resp.RequestID)
		if err != nil {
			return errors.NewValidationError(fmt.Sprintf("Invalid request id %q", resp.RequestID))
		}
		req := &domain.ReserveTransactionRequest{
			TransactionID: resp.TransactionID,
			PostingID:     postingID,
		}
		switch resp.BatchStatus {
		case BatchAccepted:
			return d.reserveSuccess.Invoke(ctx, req)
		case BatchRejected:
			return d.reserveFailed.Invoke(ctx, req)
		default:
			return errors.NewValidationError(fmt.Sprintf("Invalid batch status for transaction %s", resp.TransactionID))
		}

	case KindSettlement:
		postingID, err := uuid.Parse(resp.RequestID)
		if err != nil {
			return errors.NewValidationError(fmt.Sprintf("Invalid request id %q", resp.RequestID))
		}
		return d.settle.Invoke(ctx, &domain.SettleTransactionResult{
			TransactionID: resp.TransactionID,
			PostingID:     postingID,
		})

	case KindRelease:
		postingID, err := uuid.Parse(resp.RequestID)
		if err != nil {
			return errors.NewValidationError(fmt.Sprintf("Invalid request id %q", resp.RequestID))
		}
		return d.release.Invoke(ctx, &domain.ReleaseTransactionResult{
			TransactionID: resp.TransactionID,
			PostingID:     postingID,
		})
	}
	return nil
}

func (d *Dispatcher) invokeFeeUpdate(ctx context.Context, repo domain.TransactionRepo, kind Kind, resp *Response) error {
	if kind == KindCustomerFee {
		uc := usecase.NewHandleCustomerFeeUpdate(repo, d.logger)
		return uc.Invoke(ctx, &domain.CustomerFeeUpdateResult{
			TransactionID: resp.TransactionID,
			PostingID:     resp.RequestID,
			BatchID:       resp.BatchID,
		})
	}
	uc := usecase.NewHandleVendorFeeUpdate(repo, d.logger)
	return uc.Invoke(ctx, &domain.VendorFeeUpdateResult{
		TransactionID: resp.TransactionID,
		PostingID:     resp.RequestID,
		BatchID:       resp.BatchID,
	})
}
