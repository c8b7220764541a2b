// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/projecta/backend/internal/infrastructure/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SubscriptionSyncer refreshes the billing status of every sponsorship
// period that has a subscription.
type SubscriptionSyncer interface {
	SyncAllSubscriptions(ctx context.Context) (synced, failed int, err error)
}

// SubscriptionSyncScheduler re-syncs sponsorship subscriptions on a cron spec
type SubscriptionSyncScheduler struct {
	syncer   SubscriptionSyncer
	spec     string
	schedule cron.Schedule
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	entryID cron.EntryID
}

// NewSubscriptionSyncScheduler creates the scheduler. The spec is validated
// here so a bad config fails at startup.
func NewSubscriptionSyncScheduler(syncer SubscriptionSyncer, cfg config.SchedulerConfig, logger *zap.Logger) (*SubscriptionSyncScheduler, error) {
	if syncer == nil {
		return nil, fmt.Errorf("%w: syncer is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	schedule, err := cron.ParseStandard(cfg.SubscriptionSyncCron)
	if err != nil {
		return nil, fmt.Errorf("%w: subscription sync cron %q: %v", ErrInvalidConfig, cfg.SubscriptionSyncCron, err)
	}
	timeout := cfg.SubscriptionSyncTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	logger = logger.With(zap.String("component", "subscription_sync"))
	cl := cronLogger{logger: logger.Sugar()}
	return &SubscriptionSyncScheduler{
		syncer:   syncer,
		spec:     cfg.SubscriptionSyncCron,
		schedule: schedule,
		timeout:  timeout,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}, nil
}

// Start registers the job and starts the cron loop
func (s *SubscriptionSyncScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	s.entryID = s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.RunNow(context.Background()) }))
	s.cron.Start()
	s.running = true

	s.logger.Info("Subscription sync scheduler started",
		zap.String("cron", s.spec),
		zap.Time("next_run", s.NextRun(time.Now())))
	return nil
}

// Stop stops scheduling and waits for a running job until ctx is done
func (s *SubscriptionSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Subscription sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun returns the first scheduled run after t
func (s *SubscriptionSyncScheduler) NextRun(t time.Time) time.Time {
	return s.schedule.Next(t.In(time.UTC))
}

// RunNow runs one sync immediately
func (s *SubscriptionSyncScheduler) RunNow(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	synced, failed, err := s.syncer.SyncAllSubscriptions(ctx)
	if err != nil {
		s.logger.Error("Subscription sync failed",
			zap.Int("synced", synced),
			zap.Int("failed", failed),
			zap.Error(err))
		return
	}
	s.logger.Info("Subscription sync completed",
		zap.Int("synced", synced),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

var _ cron.Logger = cronLogger{}
