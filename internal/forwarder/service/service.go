package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/forwarder/delivery"
	"github.com/evijayan2/smsmonitor/internal/forwarder/metrics"
	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
	"github.com/evijayan2/smsmonitor/pkg/retry"
)

const (
	defaultWorkerCount   = 4
	defaultBatchSize     = 32
	defaultPollInterval  = 2 * time.Second
	defaultRetryWindow   = 24 * time.Hour
	defaultRetention     = 7 * 24 * time.Hour
	defaultPruneInterval = time.Hour
)

type Store interface {
	InsertTask(ctx context.Context, record model.Record, now time.Time) (model.DeliveryTask, error)
	SelectDue(ctx context.Context, now time.Time, limit int) ([]model.DeliveryTask, error)
	MarkSucceeded(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, now time.Time, reason string, countAttempt bool) error
	Reschedule(ctx context.Context, id uuid.UUID, next, now time.Time, reason string) error
	PruneTerminal(ctx context.Context, cutoff time.Time) (int64, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, record model.Record) error
}

type DelivererFunc func(ctx context.Context, record model.Record) error

func (f DelivererFunc) Deliver(ctx context.Context, record model.Record) error {
	return f(ctx, record)
}

type Config struct {
	WorkerCount   int
	BatchSize     int
	PollInterval  time.Duration
	Backoff       retry.Backoff
	RetryWindow   time.Duration
	Retention     time.Duration
	PruneInterval time.Duration
}

// Service is the delivery scheduler. It polls due tasks and hands them to a fixed worker pool.
type Service struct {
	log       *zap.Logger
	cfg       Config
	store     Store
	deliverer Deliverer
	probe     Connectivity
	metrics   *metrics.Metrics
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
	wake     chan struct{}
}

type Option func(s *Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithConnectivity(probe Connectivity) Option {
	return func(s *Service) {
		s.probe = probe
	}
}

func NewService(log *zap.Logger, cfg Config, store Store, deliverer Deliverer, m *metrics.Metrics, opts ...Option) *Service {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.RetryWindow <= 0 {
		cfg.RetryWindow = defaultRetryWindow
	}

	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}

	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = defaultPruneInterval
	}

	s := &Service{
		log:       log,
		cfg:       cfg,
		store:     store,
		deliverer: deliverer,
		probe:     AlwaysOnline{},
		metrics:   m,
		now:       time.Now,
		inFlight:  make(map[uuid.UUID]struct{}),
		wake:      make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Enqueue persists a record as a pending task and nudges the scheduler.
func (s *Service) Enqueue(ctx context.Context, record model.Record) error {
	task, err := s.store.InsertTask(ctx, record, s.now())
	if err != nil {
		return fmt.Errorf("failed to enqueue record: %w", err)
	}

	s.metrics.Enqueued()
	s.log.Debug("Task enqueued", zap.String("task_id", task.ID.String()), zap.String("source", string(record.Source)))

	select {
	case s.wake <- struct{}{}:
	default:
	}

	return nil
}

// Run resumes pending tasks and keeps delivering until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	taskPipe := make(chan model.DeliveryTask, s.cfg.BatchSize)

	var wg sync.WaitGroup
	for i := range s.cfg.WorkerCount {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()
			s.worker(ctx, id, taskPipe)
		}(i)
	}

	pollTicker := time.NewTicker(s.cfg.PollInterval)
	defer pollTicker.Stop()

	pruneTicker := time.NewTicker(s.cfg.PruneInterval)
	defer pruneTicker.Stop()

	s.log.Info("Delivery scheduler started",
		zap.Int("workers", s.cfg.WorkerCount),
		zap.Duration("poll_interval", s.cfg.PollInterval),
	)

	s.prune(ctx)
	s.poll(ctx, taskPipe)

	for {
		select {
		case <-ctx.Done():
			close(taskPipe)
			wg.Wait()

			s.log.Info("Delivery scheduler stopped")

			return nil
		case <-pollTicker.C:
			s.poll(ctx, taskPipe)
		case <-s.wake:
			s.poll(ctx, taskPipe)
		case <-pruneTicker.C:
			s.prune(ctx)
		}
	}
}

// poll hands due tasks that are not already claimed to the workers.
func (s *Service) poll(ctx context.Context, taskPipe chan<- model.DeliveryTask) int {
	if !s.probe.Online(ctx) {
		s.metrics.OfflinePoll()
		s.log.Debug("Offline, skipping poll")

		return 0
	}

	tasks, err := s.store.SelectDue(ctx, s.now(), s.cfg.BatchSize+s.inFlightCount())
	if err != nil {
		s.log.Error("Failed to select due tasks", zap.Error(err))
		return 0
	}

	dispatched := 0
	for _, task := range tasks {
		if !s.claim(task.ID) {
			continue
		}

		select {
		case taskPipe <- task:
			dispatched++
		case <-ctx.Done():
			s.release(task.ID)
			return dispatched
		default:
			// workers are saturated, the task stays due for the next poll
			s.release(task.ID)
			return dispatched
		}
	}

	return dispatched
}

func (s *Service) worker(ctx context.Context, id int, taskPipe <-chan model.DeliveryTask) {
	s.log.Debug("Worker started", zap.Int("id", id))

	for task := range taskPipe {
		s.attempt(ctx, task)
		s.release(task.ID)
	}

	s.log.Debug("Worker stopped", zap.Int("id", id))
}

// attempt performs exactly one delivery and records the outcome.
func (s *Service) attempt(ctx context.Context, task model.DeliveryTask) {
	if ctx.Err() != nil {
		return
	}

	err := s.deliverer.Deliver(ctx, task.Record)
	now := s.now()
	storeCtx := context.WithoutCancel(ctx)
	taskID := zap.String("task_id", task.ID.String())

	switch {
	case err == nil:
		if err := s.store.MarkSucceeded(storeCtx, task.ID, now); err != nil {
			s.log.Error("Failed to mark task as delivered", taskID, zap.Error(err))
		}

		s.metrics.Delivered()
		s.log.Debug("Message delivered", taskID, zap.Int("attempts", task.Attempts+1))
	case delivery.IsTerminal(err):
		s.fail(storeCtx, task, now, err, false)
	case ctx.Err() != nil:
		s.log.Debug("Attempt interrupted by shutdown", taskID)
	case now.Sub(task.CreatedAt) > s.cfg.RetryWindow:
		s.fail(storeCtx, task, now, fmt.Errorf("retry window exhausted: %w", err), true)
	default:
		next := now.Add(s.cfg.Backoff.Delay(task.Attempts + 1))
		if err := s.store.Reschedule(storeCtx, task.ID, next, now, err.Error()); err != nil {
			s.log.Error("Failed to reschedule task", taskID, zap.Error(err))
			return
		}

		s.metrics.Retried()
		s.log.Warn("Delivery failed, will retry",
			taskID,
			zap.Int("attempts", task.Attempts+1),
			zap.Time("next_attempt_at", next),
			zap.Error(err),
		)
	}
}

func (s *Service) fail(ctx context.Context, task model.DeliveryTask, now time.Time, cause error, countAttempt bool) {
	taskID := zap.String("task_id", task.ID.String())

	if err := s.store.MarkFailed(ctx, task.ID, now, cause.Error(), countAttempt); err != nil {
		s.log.Error("Failed to mark task as failed", taskID, zap.Error(err))
		return
	}

	s.metrics.Failed()
	s.log.Error("Delivery failed permanently", taskID, zap.Error(cause))
}

func (s *Service) prune(ctx context.Context) {
	pruned, err := s.store.PruneTerminal(ctx, s.now().Add(-s.cfg.Retention))
	if err != nil {
		s.log.Error("Failed to prune delivery tasks", zap.Error(err))
		return
	}

	if pruned > 0 {
		s.log.Info("Pruned finished delivery tasks", zap.Int64("count", pruned))
	}
}

func (s *Service) claim(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inFlight[id]; ok {
		return false
	}

	s.inFlight[id] = struct{}{}

	return true
}

func (s *Service) release(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, id)
}

func (s *Service) inFlightCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.inFlight)
}
