package repository

import (
	"database/sql"
	"log/slog"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
	"payment-transaction-manager/internal/idempotency"
)

// Store provides a unified interface for all repository operations with transaction support
type Store struct {
	executor SQLExecutor
	logger   *slog.Logger
}

// NewStore creates a new Store instance
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		executor: db,
		logger:   logger,
	}
}

// Transactions returns a TransactionRepo using the current executor
func (s *Store) Transactions() domain.TransactionRepo {
	return NewTransactionRepository(s.executor, s.logger)
}

// Idempotency returns the phase store using the current executor
func (s *Store) Idempotency() idempotency.Store {
	return NewIdempotencyRepository(s.executor, s.logger)
}

// InTransaction runs fn against repositories bound to a single database
// transaction, so a transaction write and an idempotency phase mark
// commit or roll back together.
func (s *Store) InTransaction(fn func(domain.TransactionRepo, idempotency.Store) error) error {
	return s.WithTransaction(func(tx *Store) error {
		return fn(tx.Transactions(), tx.Idempotency())
	})
}

// WithTransaction executes a function within a database transaction
func (s *Store) WithTransaction(fn func(*Store) error) error {
	// Only sql.DB can begin transactions
	db, ok := s.executor.(*sql.DB)
	if !ok {
		return errors.NewAppError(errors.InternalError, "cannot begin transaction from within a transaction")
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	txStore := &Store{
		executor: &TxWrapper{Tx: tx},
		logger:   s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
