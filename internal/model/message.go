package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const UnknownReceiver = "Unknown"

// Message is a row of sms.messages. Sender and Content hold encrypted tokens.
type Message struct {
	ID         uuid.UUID `db:"id"`
	Sender     string    `db:"sender"`
	Receiver   *string   `db:"receiver"`
	Content    string    `db:"content"`
	Timestamp  time.Time `db:"timestamp"`
	ReceivedAt time.Time `db:"received_at"`
	IsRead     bool      `db:"is_read"`
}

// MessageView
// @Description Decrypted message as shown on the dashboard.
type MessageView struct {
	ID         uuid.UUID `json:"id" example:"b4b03119-1290-44bc-b599-6a5e91d6611f"` // Message id
	Sender     string    `json:"sender" example:"+15551234567"`                     // Sender address
	Receiver   string    `json:"receiver,omitempty" example:"+15557654321"`         // Receiving line, empty when unknown
	Content    string    `json:"content" example:"Your code is 123456"`             // Message body
	Timestamp  time.Time `json:"timestamp"`                                         // Device timestamp
	ReceivedAt time.Time `json:"receivedAt"`                                        // Server ingestion time
	IsRead     bool      `json:"isRead"`                                            // Read flag
} // @Name MessageView

// IngestRequest
// @Description Payload sent by the forwarder. Timestamp accepts epoch millis (number or string) or RFC 3339.
type IngestRequest struct {
	Sender    string          `json:"sender" example:"+15551234567"`
	Content   string          `json:"content" example:"Your code is 123456"`
	Receiver  string          `json:"receiver,omitempty" example:"+15557654321"`
	Datetime  string          `json:"datetime,omitempty" example:"2026-01-02 15:04:05"`
	Timestamp json.RawMessage `json:"timestamp,omitempty" swaggertype:"integer" example:"1767366245000"`
} // @Name IngestRequest

// IngestResponse
// @Description Result of a successful ingestion.
type IngestResponse struct {
	Success bool      `json:"success" example:"true"`
	ID      uuid.UUID `json:"id" example:"b4b03119-1290-44bc-b599-6a5e91d6611f"`
} // @Name IngestResponse

// ErrorResponse
// @Description Error body of the ingestion and mark-as-read endpoints.
type ErrorResponse struct {
	Error   string `json:"error" example:"Unauthorized"`
	Message string `json:"message,omitempty"`
} // @Name ErrorResponse

type MessageIDPathParam struct {
	ID string `uri:"id" binding:"required"`
}

type ListQuery struct {
	Limit int    `form:"limit"`
	Query string `form:"q"`
	Group string `form:"group"`
}

// ReceiverGroup
// @Description Messages of one receiving line.
type ReceiverGroup struct {
	Receiver string        `json:"receiver"`
	Messages []MessageView `json:"messages"`
} // @Name ReceiverGroup

// IngestedEvent is published through the outbox. It never carries sender or content.
type IngestedEvent struct {
	ID         uuid.UUID `json:"id"`
	Receiver   string    `json:"receiver,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	ReceivedAt time.Time `json:"receivedAt"`
}
