package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/apperrors"
	"github.com/evijayan2/smsmonitor/internal/model"
)

type IngestService interface {
	Ingest(ctx context.Context, req model.IngestRequest) (uuid.UUID, error)
}

type SMSHandler struct {
	log          *zap.Logger
	svc          IngestService
	maxBodyBytes int64
}

func NewSMSHandler(log *zap.Logger, svc IngestService, maxBodyBytes int64) *SMSHandler {
	return &SMSHandler{
		log:          log,
		svc:          svc,
		maxBodyBytes: maxBodyBytes,
	}
}

// Ingest
// @Summary Store one captured message.
// @Description Called by the forwarder. Sender and content are encrypted before they reach the database.
// @Tags SMS
// @Accept json
// @Produce json
// @Security APIKey
// @Param payload body model.IngestRequest true "Captured message"
// @Success 201 {object} model.IngestResponse "Stored"
// @Failure 400 {object} model.ErrorResponse "Invalid JSON body or missing fields"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Failure 500 {object} model.ErrorResponse "Failed to store message"
// @Failure 503 {object} model.ErrorResponse "An identical message is still being stored, retry later"
// @Router /api/sms [post]
func (h *SMSHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	var req model.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, ErrTextInvalidJSON)
		return
	}

	id, err := h.svc.Ingest(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrMissingFields):
			errorJSON(c, http.StatusBadRequest, ErrTextMissingFields)
		case errors.Is(err, apperrors.ErrInvalidTimestamp):
			errorJSON(c, http.StatusBadRequest, ErrTextInvalidTimestamp)
		case errors.Is(err, apperrors.ErrDuplicateInFlight):
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
				Error:   ErrTextUnavailable,
				Message: ErrTextStoreFailed,
			})
		default:
			h.log.Error("Failed to store message", zap.Error(err))
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{
				Error:   ErrTextInternal,
				Message: ErrTextStoreFailed,
			})
		}

		return
	}

	c.JSON(http.StatusCreated, model.IngestResponse{
		Success: true,
		ID:      id,
	})
}
