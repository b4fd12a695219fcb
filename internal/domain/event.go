package domain

import "context"

// EventService fires one-way lifecycle notifications. Delivery is
// best-effort: implementations log failures and never propagate them,
// so a failed emission cannot mask an already durable state change.
type EventService interface {
	SendTransactionCreatedEvent(ctx context.Context, tx *Transaction)
	SendTransactionApprovedEvent(ctx context.Context, tx *Transaction)
	SendTransactionFailedEvent(ctx context.Context, tx *Transaction)
	SendTransactionReservedEvent(ctx context.Context, tx *Transaction)
	SendTransactionSentToProviderEvent(ctx context.Context, tx *Transaction)
	SendTransactionPendingSettlementEvent(ctx context.Context, tx *Transaction)
	SendTransactionReleasedEvent(ctx context.Context, tx *Transaction)
	SendTransactionSuccessEvent(ctx context.Context, tx *Transaction)
}
