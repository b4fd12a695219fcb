package usecase

import (
	"log/slog"
	"sync"
)

// TaskRunner runs fire-and-forget work detached from the request that
// spawned it. Failures are logged and never reach the caller; Wait lets
// shutdown and tests drain in-flight tasks.
type TaskRunner struct {
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewTaskRunner(logger *slog.Logger) *TaskRunner {
	return &TaskRunner{logger: logger}
}

func (r *TaskRunner) Go(name string, fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("background task panicked", "task", name, "panic", p)
			}
		}()
		fn()
	}()
}

func (r *TaskRunner) Wait() {
	r.wg.Wait()
}
