package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/model"
	"github.com/evijayan2/smsmonitor/pkg/encryption"
)

const (
	DefaultPageSize = 100
	DefaultMaxPage  = 500
)

type MessageService struct {
	log         *zap.Logger
	codec       encryption.Codec
	messageRepo MessageRepository
	pageSize    int
	maxPageSize int
}

func NewMessageService(log *zap.Logger, codec encryption.Codec, messageRepo MessageRepository, pageSize, maxPageSize int) *MessageService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	if maxPageSize < pageSize {
		maxPageSize = max(pageSize, DefaultMaxPage)
	}

	return &MessageService{
		log:         log,
		codec:       codec,
		messageRepo: messageRepo,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
	}
}

// ListLatest returns the newest messages by received time, decrypted. limit <= 0 means the default page.
func (s *MessageService) ListLatest(ctx context.Context, limit int) ([]model.MessageView, error) {
	if limit <= 0 {
		limit = s.pageSize
	}

	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	messages, err := s.messageRepo.SelectLatest(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}

	views := make([]model.MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, s.view(&messages[i]))
	}

	return views, nil
}

func (s *MessageService) GetMessage(ctx context.Context, id uuid.UUID) (*model.MessageView, error) {
	message, err := s.messageRepo.SelectMessageByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	view := s.view(message)

	return &view, nil
}

// MarkAsRead is idempotent: repeating it returns the same message.
func (s *MessageService) MarkAsRead(ctx context.Context, id uuid.UUID) (*model.MessageView, error) {
	message, err := s.messageRepo.UpdateAsRead(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	s.log.Debug("Message marked as read", zap.String("message_id", id.String()))

	view := s.view(message)

	return &view, nil
}

func (s *MessageService) view(m *model.Message) model.MessageView {
	view := model.MessageView{
		ID:         m.ID,
		Sender:     s.codec.Decrypt(m.Sender),
		Content:    s.codec.Decrypt(m.Content),
		Timestamp:  m.Timestamp,
		ReceivedAt: m.ReceivedAt,
		IsRead:     m.IsRead,
	}

	if m.Receiver != nil {
		view.Receiver = *m.Receiver
	}

	return view
}

// FilterMessages keeps messages whose sender, content or receiver contains query, ignoring case.
func FilterMessages(messages []model.MessageView, query string) []model.MessageView {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return messages
	}

	filtered := make([]model.MessageView, 0, len(messages))

	for _, m := range messages {
		if strings.Contains(strings.ToLower(m.Sender), query) ||
			strings.Contains(strings.ToLower(m.Content), query) ||
			strings.Contains(strings.ToLower(m.Receiver), query) {
			filtered = append(filtered, m)
		}
	}

	return filtered
}

// GroupByReceiver buckets messages by receiving line in order of first appearance.
func GroupByReceiver(messages []model.MessageView) []model.ReceiverGroup {
	index := make(map[string]int)

	var groups []model.ReceiverGroup

	for _, m := range messages {
		key := m.Receiver
		if key == "" {
			key = model.UnknownReceiver
		}

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, model.ReceiverGroup{Receiver: key})
		}

		groups[i].Messages = append(groups[i].Messages, m)
	}

	return groups
}
