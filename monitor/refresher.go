package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/omni/bridge-explorer/entity"
	"github.com/omni/bridge-explorer/logging"
)

const DefaultInterval = 10 * time.Second

// Reconciler is the part of the store driven by the refresher.
type Reconciler interface {
	IsLoading() bool
	Len() int
	Reload(ctx context.Context) (*entity.Diff, error)
	Merge(ctx context.Context) (*entity.Diff, error)
}

type TickOutcome string

const (
	TickSkipped  TickOutcome = "skipped"
	TickReplaced TickOutcome = "replaced"
	TickMerged   TickOutcome = "merged"
	TickFailed   TickOutcome = "failed"
)

// Refresher periodically keeps the store in sync with the indexer.
type Refresher struct {
	store    Reconciler
	interval time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRefresher(store Reconciler, interval time.Duration, logger logging.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logging.New()
	}
	return &Refresher{
		store:    store,
		interval: interval,
		logger:   logger.WithField("component", "refresher"),
	}
}

func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Start launches the refresh loop. It reports false if the loop is already running.
func (r *Refresher) Start(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	go func() {
		defer close(done)
		r.run(ctx)
	}()
	r.logger.WithField("interval", r.interval).Info("started periodic refresh")
	return true
}

// Stop halts the refresh loop and waits for an in-flight tick to return.
// It reports false if the loop was not running.
func (r *Refresher) Stop() bool {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	<-done
	r.logger.Info("stopped periodic refresh")
	return true
}

func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

func (r *Refresher) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick performs one refresh iteration.
func (r *Refresher) Tick(ctx context.Context) TickOutcome {
	if r.store.IsLoading() {
		r.logger.Debug("fetch already in flight, skipping refresh tick")
		return r.observe(TickSkipped)
	}

	start := time.Now()
	outcome := TickMerged
	var (
		diff *entity.Diff
		err  error
	)
	if r.store.Len() == 0 {
		outcome = TickReplaced
		diff, err = r.store.Reload(ctx)
	} else {
		diff, err = r.store.Merge(ctx)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, entity.ErrSuperseded) || errors.Is(err, entity.ErrBusy) {
			r.logger.WithError(err).Debug("refresh tick abandoned")
			return r.observe(TickSkipped)
		}
		r.logger.WithError(err).Error("failed to refresh bridge transactions")
		return r.observe(TickFailed)
	}
	r.logger.WithFields(logrus.Fields{
		"mode":     diff.Mode,
		"inserted": len(diff.Inserted),
		"updated":  len(diff.Updated),
		"evicted":  len(diff.Evicted),
		"duration": time.Since(start),
	}).Info("refreshed bridge transactions")
	return r.observe(outcome)
}

func (r *Refresher) observe(outcome TickOutcome) TickOutcome {
	RefreshTicks.WithLabelValues(string(outcome)).Inc()
	return outcome
}
