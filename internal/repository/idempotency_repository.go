package repository

import (
	"context"
	"log/slog"
	"time"

	"payment-transaction-manager/internal/errors"
	"payment-transaction-manager/internal/idempotency"
)

type idempotencyRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

// NewIdempotencyRepository returns a Postgres-backed phase store. The
// unique (flow_name, request_id, phase) index makes marking a phase
// complete atomic across concurrent deliveries of the same message.
func NewIdempotencyRepository(db SQLExecutor, logger *slog.Logger) idempotency.Store {
	return &idempotencyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *idempotencyRepository) PhaseCompleted(ctx context.Context, flow, requestID, phase string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM idempotent_phase
			WHERE flow_name = $1 AND request_id = $2 AND phase = $3
		)
	`

	var completed bool
	if err := r.db.QueryRow(query, flow, requestID, phase).Scan(&completed); err != nil {
		r.logger.Error("Failed to check phase completion",
			"flow", flow, "request_id", requestID, "phase", phase, "error", err)
		return false, errors.NewAppError(errors.InternalError, "failed to check phase completion").WithDetails(err.Error())
	}
	return completed, nil
}

func (r *idempotencyRepository) MarkPhaseCompleted(ctx context.Context, flow, requestID, phase string) error {
	query := `
		INSERT INTO idempotent_phase (flow_name, request_id, phase, completed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (flow_name, request_id, phase) DO NOTHING
	`

	if _, err := r.db.Exec(query, flow, requestID, phase, time.Now().UTC()); err != nil {
		r.logger.Error("Failed to mark phase completed",
			"flow", flow, "request_id", requestID, "phase", phase, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to mark phase completed").WithDetails(err.Error())
	}
	return nil
}
