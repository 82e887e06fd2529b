package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/model"
	"github.com/evijayan2/smsmonitor/internal/repository"
	"github.com/evijayan2/smsmonitor/pkg/kafka"
)

type Repository interface {
	UpdateAsSent(ctx context.Context, ext repository.RepoExtension, messageID uuid.UUID) error
	IncrementAttempts(ctx context.Context, ext repository.RepoExtension, messageID uuid.UUID) error
	SelectUnsentBatch(ctx context.Context, ext repository.RepoExtension, batchSize int) ([]model.OutboxMessage, error)
}

type Config struct {
	Name         string
	WorkerCount  int
	PollInterval time.Duration
	BatchSize    int
}

// Publisher relays outbox rows to Kafka. Delivery is at least once; consumers dedupe on the message key.
type Publisher struct {
	l          *zap.Logger
	cfg        Config
	producer   kafka.Producer
	outboxRepo Repository
}

func NewPublisher(l *zap.Logger, cfg Config, producer kafka.Producer, outboxRepo Repository) *Publisher {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	return &Publisher{
		l:          l,
		cfg:        cfg,
		producer:   producer,
		outboxRepo: outboxRepo,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	p.l.Info("Outbox publisher started", zap.String("name", p.cfg.Name), zap.Int("workers", p.cfg.WorkerCount))

	for {
		select {
		case <-ctx.Done():
			p.l.Info("Outbox publisher stopped", zap.String("name", p.cfg.Name))
			return
		case <-ticker.C:
			p.PublishBatch(ctx)
		}
	}
}

// PublishBatch sends one batch and waits for it, so the next poll never picks up a row still in flight.
func (p *Publisher) PublishBatch(ctx context.Context) int {
	messages, err := p.outboxRepo.SelectUnsentBatch(ctx, nil, p.cfg.BatchSize)
	if err != nil {
		p.l.Error("Failed to select unsent messages", zap.Error(err))
		return 0
	}

	if len(messages) == 0 {
		return 0
	}

	messagePipe := make(chan model.OutboxMessage)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sent int
	)

	for i := range min(p.cfg.WorkerCount, len(messages)) {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			for msg := range messagePipe {
				if p.worker(ctx, id, msg) {
					mu.Lock()
					sent++
					mu.Unlock()
				}
			}
		}(i)
	}

feed:
	for _, msg := range messages {
		select {
		case <-ctx.Done():
			break feed
		case messagePipe <- msg:
		}
	}

	close(messagePipe)
	wg.Wait()

	return sent
}

func (p *Publisher) worker(ctx context.Context, id int, msg model.OutboxMessage) bool {
	partition, offset, err := p.sendAndMark(ctx, msg)
	if err != nil {
		p.l.Error("Failed to send message",
			zap.Int("worker", id),
			zap.String("message_id", msg.ID.String()),
			zap.Int("attempts", msg.Attempts+1),
			zap.Error(err),
		)

		if err := p.outboxRepo.IncrementAttempts(ctx, nil, msg.ID); err != nil {
			p.l.Warn("Failed to record attempt", zap.String("message_id", msg.ID.String()), zap.Error(err))
		}

		return false
	}

	p.l.Debug("Message sent",
		zap.String("message_id", msg.ID.String()),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return true
}

func (p *Publisher) sendAndMark(ctx context.Context, message model.OutboxMessage) (partition int32, offset int64, err error) {
	key, err := message.AggregateID.MarshalText()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to marshal aggregate id: %w", err)
	}

	partition, offset, err = p.producer.PushMessage(ctx, key, message.Payload, message.Topic)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to push message: %w", err)
	}

	if err := p.outboxRepo.UpdateAsSent(ctx, nil, message.ID); err != nil {
		return 0, 0, fmt.Errorf("failed to update as sent: %w", err)
	}

	return partition, offset, nil
}
