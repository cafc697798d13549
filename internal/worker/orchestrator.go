package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Worker is a periodic background job
type Worker interface {
	Name() string
	Schedule() string
	Ready(now time.Time) bool
	Execute(ctx context.Context)
}

// Orchestrator runs every worker on its cron schedule
type Orchestrator struct {
	workers []Worker
	logger  *zap.Logger
	cron    *cron.Cron
}

func NewOrchestrator(workers []Worker, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{workers: workers, logger: logger.Named("orchestrator")}
}

// Start registers the workers and starts the scheduler. Jobs run with ctx
// and stop picking up work once it is cancelled.
func (o *Orchestrator) Start(ctx context.Context) error {
	c := cron.New()
	for _, w := range o.workers {
		_, err := c.AddFunc(w.Schedule(), func() {
			if ctx.Err() != nil || !w.Ready(time.Now()) {
				return
			}
			w.Execute(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s worker: %w", w.Name(), err)
		}
		o.logger.Info("worker scheduled", zap.String("worker", w.Name()), zap.String("schedule", w.Schedule()))
	}
	c.Start()
	o.cron = c
	return nil
}

// Stop stops the scheduler and waits for running jobs up to ctx's deadline
func (o *Orchestrator) Stop(ctx context.Context) {
	if o.cron == nil {
		return
	}
	select {
	case <-o.cron.Stop().Done():
	case <-ctx.Done():
		o.logger.Warn("workers still running at shutdown")
	}
}

// busyFlag keeps a worker from overlapping with itself
type busyFlag struct {
	busy atomic.Bool
}

func (b *busyFlag) Ready(time.Time) bool { return !b.busy.Load() }

func (b *busyFlag) acquire() bool { return b.busy.CompareAndSwap(false, true) }

func (b *busyFlag) release() { b.busy.Store(false) }
