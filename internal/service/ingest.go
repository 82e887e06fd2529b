package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/apperrors"
	"github.com/evijayan2/smsmonitor/internal/model"
	"github.com/evijayan2/smsmonitor/internal/repository"
	"github.com/evijayan2/smsmonitor/pkg/encryption"
)

type MessageRepository interface {
	Pool() *pgxpool.Pool

	InsertMessage(ctx context.Context, ext repository.RepoExtension, message *model.Message) (*model.Message, error)
	SelectLatest(ctx context.Context, ext repository.RepoExtension, limit int) ([]model.Message, error)
	SelectMessageByID(ctx context.Context, ext repository.RepoExtension, id uuid.UUID) (*model.Message, error)
	UpdateAsRead(ctx context.Context, ext repository.RepoExtension, id uuid.UUID) (*model.Message, error)
}

type OutboxRepository interface {
	InsertMessage(ctx context.Context, ext repository.RepoExtension, message model.OutboxMessage) error
}

type DedupRepository interface {
	Claim(ctx context.Context, fingerprint string, id uuid.UUID, ttl time.Duration) (uuid.UUID, bool, error)
	Release(ctx context.Context, fingerprint string) error
}

type IngestOption func(s *IngestService)

// WithOutbox records an sms.ingested event in the same transaction as each message.
func WithOutbox(repo OutboxRepository, topic string) IngestOption {
	return func(s *IngestService) {
		s.outboxRepo = repo
		s.topic = topic
	}
}

// WithDedup collapses identical submissions seen within window into the first stored message.
func WithDedup(repo DedupRepository, window time.Duration) IngestOption {
	return func(s *IngestService) {
		s.dedupRepo = repo
		s.dedupWindow = window
	}
}

func WithClock(now func() time.Time) IngestOption {
	return func(s *IngestService) {
		s.now = now
	}
}

type IngestService struct {
	log         *zap.Logger
	codec       encryption.Codec
	messageRepo MessageRepository
	outboxRepo  OutboxRepository
	topic       string
	dedupRepo   DedupRepository
	dedupWindow time.Duration
	now         func() time.Time
}

func NewIngestService(log *zap.Logger, codec encryption.Codec, messageRepo MessageRepository, opts ...IngestOption) *IngestService {
	s := &IngestService{
		log:         log,
		codec:       codec,
		messageRepo: messageRepo,
		topic:       model.TopicMessageIngested,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Ingest validates, encrypts and stores one message and returns its id.
func (s *IngestService) Ingest(ctx context.Context, req model.IngestRequest) (uuid.UUID, error) {
	if req.Sender == "" || req.Content == "" {
		return uuid.Nil, apperrors.ErrMissingFields
	}

	now := s.now()

	timestamp, err := ParseTimestamp(req.Timestamp, now)
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()

	var fingerprint string
	if s.dedupRepo != nil {
		fingerprint = repository.Fingerprint(req.Sender, req.Content, timestamp)

		owner, claimed, err := s.dedupRepo.Claim(ctx, fingerprint, id, s.dedupWindow)
		switch {
		case err != nil:
			s.log.Warn("Dedup unavailable, storing without it", zap.Error(err))
			fingerprint = ""
		case !claimed:
			return s.collapse(ctx, owner)
		}
	}

	message, err := s.seal(id, req, timestamp)
	if err != nil {
		s.release(ctx, fingerprint)
		return uuid.Nil, err
	}

	if err := s.persist(ctx, message, now); err != nil {
		s.release(ctx, fingerprint)
		return uuid.Nil, err
	}

	s.log.Debug("Message stored", zap.String("message_id", id.String()))

	return id, nil
}

// collapse answers a duplicate with the id of the first copy, but only once that copy is committed.
// Until then the caller must retry, since the first insert may still fail.
func (s *IngestService) collapse(ctx context.Context, owner uuid.UUID) (uuid.UUID, error) {
	if _, err := s.messageRepo.SelectMessageByID(ctx, nil, owner); err != nil {
		if errors.Is(err, apperrors.ErrMessageNotFound) {
			s.log.Info("Duplicate of an uncommitted message", zap.String("message_id", owner.String()))
			return uuid.Nil, apperrors.ErrDuplicateInFlight
		}

		return uuid.Nil, fmt.Errorf("failed to look up original message: %w", err)
	}

	s.log.Info("Duplicate message collapsed", zap.String("message_id", owner.String()))

	return owner, nil
}

func (s *IngestService) seal(id uuid.UUID, req model.IngestRequest, timestamp time.Time) (*model.Message, error) {
	sender, err := s.codec.Encrypt(req.Sender)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrEncryptionFailed, err)
	}

	content, err := s.codec.Encrypt(req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrEncryptionFailed, err)
	}

	var receiver *string
	if req.Receiver != "" {
		receiver = &req.Receiver
	}

	return &model.Message{
		ID:        id,
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
		Timestamp: timestamp,
	}, nil
}

func (s *IngestService) persist(ctx context.Context, message *model.Message, now time.Time) error {
	if s.outboxRepo == nil {
		if _, err := s.messageRepo.InsertMessage(ctx, nil, message); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		return nil
	}

	tx, err := s.messageRepo.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := s.messageRepo.InsertMessage(ctx, tx, message); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	event := model.IngestedEvent{
		ID:         message.ID,
		Timestamp:  message.Timestamp,
		ReceivedAt: now,
	}
	if message.Receiver != nil {
		event.Receiver = *message.Receiver
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.outboxRepo.InsertMessage(ctx, tx, model.OutboxMessage{
		ID:          uuid.New(),
		AggregateID: message.ID,
		Topic:       s.topic,
		Payload:     payload,
	}); err != nil {
		return fmt.Errorf("failed to insert outbox message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func (s *IngestService) release(ctx context.Context, fingerprint string) {
	if fingerprint == "" {
		return
	}

	if err := s.dedupRepo.Release(ctx, fingerprint); err != nil {
		s.log.Warn("Failed to release dedup claim", zap.Error(err))
	}
}

// maxTimestampMillis is 9999-12-31T23:59:59.999Z.
const maxTimestampMillis = 253402300799999

// ParseTimestamp accepts epoch millis as a JSON number or numeric string, or an RFC 3339 string.
// Absent, null and zero values fall back to now.
func ParseTimestamp(raw json.RawMessage, now time.Time) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return now, nil
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return time.Time{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidTimestamp, err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			return now, nil
		}
	} else {
		text = string(raw)
	}

	if millis, err := strconv.ParseFloat(text, 64); err == nil {
		if millis <= 0 {
			return now, nil
		}

		if math.IsNaN(millis) || millis > maxTimestampMillis {
			return time.Time{}, fmt.Errorf("%w: %q out of range", apperrors.ErrInvalidTimestamp, text)
		}

		return time.UnixMilli(int64(millis)), nil
	}

	if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidTimestamp, text)
}
