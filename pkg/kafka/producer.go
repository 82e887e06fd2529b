package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
)

type Balancer int

const (
	RoundRobin Balancer = iota
	Hash
	Random
)

type RequiredAcks int

const (
	NoResponse RequiredAcks = iota
	WaitForLocal
	RequireAll
)

type Producer interface {
	PushMessage(ctx context.Context, key, value []byte, topic string) (partition int32, offset int64, err error)
	Close() error
}

type ProducerOption func(cfg *sarama.Config)

func WithBalancer(b Balancer) ProducerOption {
	return func(cfg *sarama.Config) {
		switch b {
		case Hash:
			cfg.Producer.Partitioner = sarama.NewHashPartitioner
		case Random:
			cfg.Producer.Partitioner = sarama.NewRandomPartitioner
		default:
			cfg.Producer.Partitioner = sarama.NewRoundRobinPartitioner
		}
	}
}

func WithRequiredAcks(acks RequiredAcks) ProducerOption {
	return func(cfg *sarama.Config) {
		switch acks {
		case NoResponse:
			cfg.Producer.RequiredAcks = sarama.NoResponse
		case WaitForLocal:
			cfg.Producer.RequiredAcks = sarama.WaitForLocal
		default:
			cfg.Producer.RequiredAcks = sarama.WaitForAll
		}
	}
}

func WithClientID(id string) ProducerOption {
	return func(cfg *sarama.Config) {
		if id != "" {
			cfg.ClientID = id
		}
	}
}

type producer struct {
	sync sarama.SyncProducer
}

// NewConfig returns the sarama config a sync producer needs, with opts applied.
func NewConfig(opts ...ProducerOption) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Retry.Max = 5

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

func NewProducer(brokers []string, opts ...ProducerOption) (Producer, error) {
	syncProducer, err := sarama.NewSyncProducer(brokers, NewConfig(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	return &producer{sync: syncProducer}, nil
}

// NewProducerFromSync wraps an existing sarama producer, e.g. sarama/mocks in tests.
func NewProducerFromSync(syncProducer sarama.SyncProducer) Producer {
	return &producer{sync: syncProducer}
}

func (p *producer) PushMessage(ctx context.Context, key, value []byte, topic string) (int32, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	partition, offset, err := p.sync.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to send message: %w", err)
	}

	return partition, offset, nil
}

func (p *producer) Close() error {
	return p.sync.Close()
}
