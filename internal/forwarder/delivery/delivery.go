package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

const (
	APIKeyHeader       = "X-API-Key"
	contentType        = "application/json; charset=utf-8"
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBodyBytes  = 512
)

var (
	ErrMalformedRecord  = errors.New("record is missing sender or content")
	ErrTargetURLMissing = errors.New("target url is not configured")
)

// RetryableError is a failed attempt worth repeating later.
type RetryableError struct {
	StatusCode int
	Err        error
}

func (e *RetryableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("collector responded with status %d", e.StatusCode)
	}

	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsTerminal reports whether err must not be retried.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrMalformedRecord) || errors.Is(err, ErrTargetURLMissing)
}

type SettingsReader interface {
	GetSettings(ctx context.Context) (model.Settings, error)
}

// Client performs a single delivery attempt. It never retries on its own.
type Client struct {
	log      *zap.Logger
	settings SettingsReader
	http     *http.Client
	location *time.Location
}

type Option func(c *Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithLocation sets the zone the datetime field is rendered in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		c.location = loc
	}
}

func NewClient(log *zap.Logger, settings SettingsReader, opts ...Option) *Client {
	c := &Client{
		log:      log,
		settings: settings,
		http:     &http.Client{Timeout: defaultHTTPTimeout},
		location: time.Local,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Deliver posts one record to the configured target. Settings are read on every call.
func (c *Client) Deliver(ctx context.Context, record model.Record) error {
	if record.Sender == "" || record.Content == "" {
		return ErrMalformedRecord
	}

	settings, err := c.settings.GetSettings(ctx)
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("failed to read settings: %w", err)}
	}

	if settings.TargetURL == "" {
		return ErrTargetURLMissing
	}

	body, err := json.Marshal(c.payload(record))
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.TargetURL, bytes.NewReader(body))
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("failed to build request: %w", err)}
	}

	req.Header.Set("Content-Type", contentType)
	if settings.APIKey != "" {
		req.Header.Set(APIKeyHeader, settings.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Debug("Collector rejected message",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)

		return &RetryableError{StatusCode: resp.StatusCode}
	}

	return nil
}

func (c *Client) payload(record model.Record) model.DeliveryPayload {
	return model.DeliveryPayload{
		Sender:    record.Sender,
		Receiver:  record.Receiver,
		Content:   record.Content,
		Datetime:  time.UnixMilli(record.Timestamp).In(c.location).Format(model.DatetimeLayout),
		Timestamp: record.Timestamp,
	}
}
