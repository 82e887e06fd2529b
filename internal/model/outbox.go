package model

import (
	"time"

	"github.com/google/uuid"
)

const TopicMessageIngested = "sms.ingested"

// OutboxMessage is an event written in the same transaction as the message it describes.
type OutboxMessage struct {
	ID          uuid.UUID  `db:"id"`
	AggregateID uuid.UUID  `db:"aggregate_id"`
	Topic       string     `db:"topic"`
	Payload     []byte     `db:"payload"`
	CreatedAt   time.Time  `db:"created_at"`
	Attempts    int        `db:"attempts"`
	Sent        bool       `db:"sent"`
	SentAt      *time.Time `db:"sent_at"`
}
