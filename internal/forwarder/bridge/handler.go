package bridge

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/api/http/handler"
	"github.com/evijayan2/smsmonitor/internal/forwarder/metrics"
	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

type SMSSource interface {
	Handle(ctx context.Context, event model.SMSEvent) (int, error)
}

type NotificationSource interface {
	Handle(ctx context.Context, event model.NotificationEvent) (int, error)
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (model.Settings, error)
	PutSettings(ctx context.Context, settings model.Settings, now time.Time) error
}

type QueueStats interface {
	CountByStatus(ctx context.Context) (map[model.TaskStatus]int, error)
}

// SettingsRequest replaces the device configuration. An empty target pauses delivery.
type SettingsRequest struct {
	TargetURL string `json:"targetUrl" binding:"omitempty,http_url"`
	APIKey    string `json:"apiKey"`
}

// SettingsView never echoes the key back.
type SettingsView struct {
	TargetURL string `json:"targetUrl"`
	APIKeySet bool   `json:"apiKeySet"`
}

type MetricsView struct {
	Counters metrics.Snapshot `json:"counters"`
	Queue    map[string]int   `json:"queue"`
}

type Handler struct {
	log          *zap.Logger
	sms          SMSSource
	notification NotificationSource
	settings     SettingsStore
	stats        QueueStats
	metrics      *metrics.Metrics
}

func NewHandler(
	log *zap.Logger,
	sms SMSSource,
	notification NotificationSource,
	settings SettingsStore,
	stats QueueStats,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		log:          log,
		sms:          sms,
		notification: notification,
		settings:     settings,
		stats:        stats,
		metrics:      m,
	}
}

func (h *Handler) SMSEvent(c *gin.Context) {
	var event model.SMSEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		badRequest(c, "invalid sms event")
		return
	}

	accepted, err := h.sms.Handle(c.Request.Context(), event)
	h.respondAccepted(c, accepted, err)
}

func (h *Handler) NotificationEvent(c *gin.Context) {
	var event model.NotificationEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		badRequest(c, "invalid notification event")
		return
	}

	accepted, err := h.notification.Handle(c.Request.Context(), event)
	h.respondAccepted(c, accepted, err)
}

func (h *Handler) respondAccepted(c *gin.Context, accepted int, err error) {
	if err != nil {
		h.log.Error("Failed to enqueue event", zap.Int("accepted", accepted), zap.Error(err))
		c.JSON(http.StatusInternalServerError, handler.ResponseWithMessage{
			Status:  handler.StatusErr,
			Message: "failed to enqueue event",
		})

		return
	}

	c.JSON(http.StatusAccepted, handler.ResponseWithData{
		Status: handler.StatusSuccess,
		Data:   model.AcceptedResponse{Accepted: accepted},
	})
}

func (h *Handler) GetConfig(c *gin.Context) {
	settings, err := h.settings.GetSettings(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to read settings", zap.Error(err))
		internalError(c)

		return
	}

	c.JSON(http.StatusOK, handler.ResponseWithData{
		Status: handler.StatusOK,
		Data:   SettingsView{TargetURL: settings.TargetURL, APIKeySet: settings.APIKey != ""},
	})
}

func (h *Handler) PutConfig(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "targetUrl must be an http(s) url")
		return
	}

	settings := model.Settings{TargetURL: req.TargetURL, APIKey: req.APIKey}
	if err := h.settings.PutSettings(c.Request.Context(), settings, time.Now()); err != nil {
		h.log.Error("Failed to save settings", zap.Error(err))
		internalError(c)

		return
	}

	h.log.Info("Device settings updated", zap.String("target_url", req.TargetURL), zap.Bool("api_key_set", req.APIKey != ""))

	c.JSON(http.StatusOK, handler.ResponseWithData{
		Status: handler.StatusOK,
		Data:   SettingsView{TargetURL: settings.TargetURL, APIKeySet: settings.APIKey != ""},
	})
}

func (h *Handler) Metrics(c *gin.Context) {
	counts, err := h.stats.CountByStatus(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to count delivery tasks", zap.Error(err))
		internalError(c)

		return
	}

	queue := make(map[string]int, len(counts))
	for status, n := range counts {
		queue[string(status)] = n
	}

	c.JSON(http.StatusOK, handler.ResponseWithData{
		Status: handler.StatusOK,
		Data:   MetricsView{Counters: h.metrics.Snapshot(), Queue: queue},
	})
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, handler.ResponseWithMessage{
		Status:  handler.StatusSuccess,
		Message: "pong",
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, handler.ResponseWithMessage{
		Status:  handler.StatusErr,
		Message: message,
	})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, handler.ResponseWithMessage{
		Status:  handler.StatusErr,
		Message: "internal error",
	})
}
