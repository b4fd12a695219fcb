package idempotency

import (
	"context"
	"log/slog"
	"sync"
)

// Store records completed phases of request-id-keyed flows. Marking is
// atomic per (flow, requestID, phase): marking an already completed
// phase is a no-op.
type Store interface {
	PhaseCompleted(ctx context.Context, flow, requestID, phase string) (bool, error)
	MarkPhaseCompleted(ctx context.Context, flow, requestID, phase string) error
}

// Service wraps inbound asynchronous responses so that redelivery of
// the same logical message executes each phase's side effects at most
// once. A failed phase stays unmarked, so a retried delivery re-attempts
// only the work that never completed.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// RunFlow executes fn within a named flow keyed by the inbound request
// identifier. fn subdivides its work into named phases via Flow.Phase.
func (s *Service) RunFlow(ctx context.Context, flow, requestID string, fn func(f *Flow) error) error {
	return fn(&Flow{
		service:   s,
		ctx:       ctx,
		flow:      flow,
		requestID: requestID,
	})
}

// Flow is one execution of a named flow for one request id.
type Flow struct {
	service   *Service
	ctx       context.Context
	flow      string
	requestID string
}

// Phase runs fn unless the phase already completed for this request id.
// Completion is recorded only after fn succeeds.
func (f *Flow) Phase(name string, fn func(ctx context.Context) error) error {
	done, err := f.service.store.PhaseCompleted(f.ctx, f.flow, f.requestID, name)
	if err != nil {
		return err
	}
	if done {
		f.service.logger.Info("Skipping completed phase",
			"flow", f.flow, "request_id", f.requestID, "phase", name)
		return nil
	}

	if err := fn(f.ctx); err != nil {
		return err
	}

	return f.service.store.MarkPhaseCompleted(f.ctx, f.flow, f.requestID, name)
}

// MemoryStore is a mutex-guarded in-memory Store for tests and local
// runs.
type MemoryStore struct {
	mu        sync.Mutex
	completed map[phaseKey]struct{}
}

type phaseKey struct {
	flow      string
	requestID string
	phase     string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{completed: make(map[phaseKey]struct{})}
}

func (s *MemoryStore) PhaseCompleted(_ context.Context, flow, requestID, phase string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.completed[phaseKey{flow, requestID, phase}]
	return ok, nil
}

func (s *MemoryStore) MarkPhaseCompleted(_ context.Context, flow, requestID, phase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[phaseKey{flow, requestID, phase}] = struct{}{}
	return nil
}
