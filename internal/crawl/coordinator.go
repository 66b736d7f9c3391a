package crawl

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pultar/gamepass-service/internal/catalog"
	"github.com/pultar/gamepass-service/internal/metrics"
)

// ErrAlreadyRunning is returned by Start while a crawl is in progress.
var ErrAlreadyRunning = errors.New("a crawl is already in progress")

// Status is the externally visible run state.
type Status struct {
	IsRunning   bool       `json:"isRunning"`
	LastRunDate *time.Time `json:"lastRunDate"`
}

// Notifier receives the default-locale stubs after a run.
type Notifier interface {
	Notify(ctx context.Context, stubs []catalog.GameStub) error
}

// Coordinator owns the singleton crawl run state. At most one run is
// active at a time; Start, Cancel, and Status are safe for concurrent
// use. The crawl body itself runs in a background goroutine outside the
// coordinator's lock.
type Coordinator struct {
	pipeline *Pipeline
	notifier Notifier
	clock    Clock
	logger   *zap.Logger

	mu          sync.Mutex
	running     bool
	lastRunDate *time.Time
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(pipeline *Pipeline, notifier Notifier, clock Clock, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		pipeline: pipeline,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// Start launches a crawl in the background. It returns ErrAlreadyRunning
// without side effects when a run is active.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(ctx, c.done)
	return nil
}

// Cancel signals the active run, if any. Cancellation is cooperative:
// the phases observe it at their per-pair and per-chunk checkpoints.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Status reports the current run state without blocking on the crawl.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{IsRunning: c.running, LastRunDate: c.lastRunDate}
}

func (c *Coordinator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		// Cleanup runs on every exit path: the run slot is freed and the
		// completion time recorded regardless of outcome.
		now := c.clock.Now()
		c.mu.Lock()
		c.running = false
		c.lastRunDate = &now
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		c.mu.Unlock()
	}()

	c.logger.Info("crawl started")
	stubs, err := c.pipeline.Run(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		metrics.ObserveRun("canceled")
		c.logger.Warn("crawl canceled", zap.Error(err))
	case err != nil:
		metrics.ObserveRun("failed")
		c.logger.Error("crawl failed", zap.Error(err))
	default:
		metrics.ObserveRun("succeeded")
		c.logger.Info("crawl completed successfully")
	}

	// The notification is best-effort and deliberately outside the run's
	// cancellation scope: data captured before cancellation still ships.
	if len(stubs) > 0 {
		if err := c.notifier.Notify(context.Background(), stubs); err != nil {
			c.logger.Error("metadata notification failed", zap.Error(err))
		}
	}
}

// wait blocks until the active run finishes. Test helper.
func (c *Coordinator) wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}
