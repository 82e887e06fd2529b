package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/service"
)

type HealthService interface {
	Check(ctx context.Context) (*service.HealthStatus, error)
}

type HealthHandler struct {
	BaseHandler

	log *zap.Logger
	svc HealthService
}

func NewHealthHandler(log *zap.Logger, svc HealthService) *HealthHandler {
	return &HealthHandler{
		BaseHandler: BaseHandler{},
		log:         log,
		svc:         svc,
	}
}

// Ping
// @Summary Liveness probe.
// @Description Returns "pong".
// @Tags Health
// @Produce json
// @Success 200 {object} ResponseWithMessage "Success"
// @Router /health/ping [get]
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "pong",
	})
}

// Health
// @Summary Readiness probe.
// @Description Pings the database and reports the unread count.
// @Tags Health
// @Produce json
// @Success 200 {object} ResponseWithData{data=service.HealthStatus} "Success"
// @Failure 503 {object} ResponseWithMessage "Database unavailable"
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	status, err := h.svc.Check(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ResponseWithMessage{
			Status:  StatusErr,
			Message: err.Error(),
		})

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusOK,
		Data:   status,
	})
}
