package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	UnknownSender  = "Unknown Sender"
	UnknownAddress = "Unknown"
	DeviceOwner    = "Device Owner"
	TelURIPrefix   = "tel:"
	DatetimeLayout = "2006-01-02 15:04:05"
	SettingTarget  = "target_url"
	SettingAPIKey  = "api_key"
)

type Source string

const (
	SourceSMS          Source = "sms"
	SourceNotification Source = "notification"
)

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusSucceeded TaskStatus = "succeeded"
	StatusFailed    TaskStatus = "failed"
)

// Record is a normalized message handed from a source adapter to the delivery queue.
type Record struct {
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // epoch millis
	Source    Source `json:"source"`
}

// DeliveryTask is a row of delivery_tasks.
type DeliveryTask struct {
	ID            uuid.UUID
	Record        Record
	Status        TaskStatus
	Attempts      int
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastError     string
}

// Settings is the device configuration read by the worker on every attempt.
type Settings struct {
	TargetURL string `json:"targetUrl"`
	APIKey    string `json:"apiKey,omitempty"`
}

// DeliveryPayload is the JSON body posted to the collector.
type DeliveryPayload struct {
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Content   string `json:"content"`
	Datetime  string `json:"datetime"`
	Timestamp int64  `json:"timestamp"`
}
