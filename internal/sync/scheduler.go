package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/shutterspot/backend/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultStaleThreshold is how old a connection's last sync may be before
	// the scheduler picks it up again.
	DefaultStaleThreshold = 24 * time.Hour

	// DefaultTickInterval is how often the background loop checks for stale
	// connections.
	DefaultTickInterval = 15 * time.Minute
)

// Scheduler drives the reconciler over every auto-sync connection that has
// gone stale. Failures are isolated per connection.
type Scheduler struct {
	store          store.Store
	reconciler     *Reconciler
	staleThreshold time.Duration
	tickInterval   time.Duration
	log            *logrus.Logger

	stopCh    chan struct{}
	wg        gosync.WaitGroup
	mu        gosync.Mutex
	isRunning bool
}

// SchedulerConfig holds scheduler tuning.
type SchedulerConfig struct {
	StaleThreshold time.Duration
	TickInterval   time.Duration
}

// NewScheduler creates a Scheduler. A nil config uses the defaults.
func NewScheduler(st store.Store, reconciler *Reconciler, config *SchedulerConfig, log *logrus.Logger) *Scheduler {
	s := &Scheduler{
		store:          st,
		reconciler:     reconciler,
		staleThreshold: DefaultStaleThreshold,
		tickInterval:   DefaultTickInterval,
		log:            log,
		stopCh:         make(chan struct{}),
	}
	if config != nil {
		if config.StaleThreshold > 0 {
			s.staleThreshold = config.StaleThreshold
		}
		if config.TickInterval > 0 {
			s.tickInterval = config.TickInterval
		}
	}
	return s
}

// RunScheduledSyncs selects every eligible connection and reconciles each in
// turn. A failing connection is logged and skipped; the rest of the batch
// still runs. Returns the count of connections attempted, not the count that
// succeeded — per-connection outcomes are only in the logs.
func (s *Scheduler) RunScheduledSyncs(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.staleThreshold)
	conns, err := s.store.ListEligibleForAutoSync(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, conn := range conns {
		if _, err := s.reconciler.Reconcile(ctx, conn.ID); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"connection_id": conn.ID,
				"user_id":       conn.UserID,
			}).Error("scheduled sync failed")
		}
	}

	return len(conns), nil
}

// Start launches the background loop. Safe to call once; a second call while
// running is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.log.WithField("tick_interval", s.tickInterval).Info("sync scheduler started")
}

// Stop stops the background loop and waits for an in-flight batch to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	s.log.Info("sync scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			attempted, err := s.RunScheduledSyncs(ctx)
			if err != nil {
				s.log.WithError(err).Error("failed to select connections for sync")
				continue
			}
			if attempted > 0 {
				s.log.WithField("attempted", attempted).Info("scheduled sync batch finished")
			}
		}
	}
}
