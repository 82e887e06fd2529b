package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evijayan2/smsmonitor/internal/apperrors"
	"github.com/evijayan2/smsmonitor/internal/model"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{
		db: db,
	}
}

func (r *MessageRepository) Pool() *pgxpool.Pool {
	return r.db
}

func (r *MessageRepository) InsertMessage(ctx context.Context, ext RepoExtension, message *model.Message) (*model.Message, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO sms.messages (id, sender, receiver, content, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING received_at, is_read;
	`

	if err := ext.QueryRow(ctx, query,
		message.ID,
		message.Sender,
		message.Receiver,
		message.Content,
		message.Timestamp,
	).Scan(&message.ReceivedAt, &message.IsRead); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	return message, nil
}

func (r *MessageRepository) SelectLatest(ctx context.Context, ext RepoExtension, limit int) ([]model.Message, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, sender, receiver, content, timestamp, received_at, is_read
		FROM sms.messages
		ORDER BY received_at DESC, id
		LIMIT $1;
	`

	rows, err := ext.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	messages := make([]model.Message, 0, limit)

	for rows.Next() {
		var message model.Message
		if err := rows.Scan(
			&message.ID,
			&message.Sender,
			&message.Receiver,
			&message.Content,
			&message.Timestamp,
			&message.ReceivedAt,
			&message.IsRead,
		); err != nil {
			return nil, err
		}

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *MessageRepository) SelectMessageByID(ctx context.Context, ext RepoExtension, id uuid.UUID) (*model.Message, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, sender, receiver, content, timestamp, received_at, is_read
		FROM sms.messages
		WHERE id = $1;
	`

	var message model.Message

	if err := ext.QueryRow(ctx, query, id).Scan(
		&message.ID,
		&message.Sender,
		&message.Receiver,
		&message.Content,
		&message.Timestamp,
		&message.ReceivedAt,
		&message.IsRead,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}

		return nil, err
	}

	return &message, nil
}

// UpdateAsRead only ever flips is_read to true, so concurrent calls commute.
func (r *MessageRepository) UpdateAsRead(ctx context.Context, ext RepoExtension, id uuid.UUID) (*model.Message, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		UPDATE sms.messages
		SET is_read = true
		WHERE id = $1
		RETURNING id, sender, receiver, content, timestamp, received_at, is_read;
	`

	var message model.Message

	if err := ext.QueryRow(ctx, query, id).Scan(
		&message.ID,
		&message.Sender,
		&message.Receiver,
		&message.Content,
		&message.Timestamp,
		&message.ReceivedAt,
		&message.IsRead,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}

		return nil, err
	}

	return &message, nil
}
