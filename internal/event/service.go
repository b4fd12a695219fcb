package event

import (
	"context"
	"log/slog"

	"payment-transaction-manager/internal/domain"
)

// Publisher delivers one event to the outside world.
type Publisher interface {
	Publish(ctx context.Context, ev TransactionEvent) error
}

// Service implements domain.EventService on top of a Publisher.
// Emission is best-effort: publish failures are logged and swallowed so
// they can never mask an already persisted state change.
type Service struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewService(publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) send(ctx context.Context, t Type, tx *domain.Transaction) {
	ev := NewTransactionEvent(t, tx)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Error("Failed to publish transaction event",
			"type", t, "transaction_id", tx.ID, "error", err)
	}
}

func (s *Service) SendTransactionCreatedEvent(ctx context.Context, tx *domain.Transaction) {
	s.send(ctx, TypeCreated, tx)
}

func (s *Service) SendTransactionApprovedEvent(ctx context.Context, tx *domain.Transaction) {
	s.send(ctx, TypeApproved, tx)
}

func (s *Service) SendTransactionFailedEvent(ctx context.Context, tx *domain.Transaction) {
	s.send(ctx, TypeFailed, tx)
}

func (s *Service) SendTransactionReservedEvent(ctx context.Context, tx *domain.Transaction) {
	s.send(ctx, TypeReserved, tx)
}

func (s *Service) SendTransactionSentToProviderEvent(ctx context.Context, tx *domain.Transaction) {
	s.send(ctx, TypeSentToProvider, tx)
}

func (s *Service) SendTransactionPendingSettlementEvent(ctx context.Context, tx *domain.Transaction) {
	s.send(ctx, TypePendingSettlement, tx)
}

func (s *Service) SendTransactionReleasedEvent(ctx context.Context, tx *domain.Transaction) {
	s.send(ctx, TypeReleased, tx)
}

func (s *Service) SendTransactionSuccessEvent(ctx context.Context, tx *domain.Transaction) {
	s.send(ctx, TypeSuccess, tx)
}
