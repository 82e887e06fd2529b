package bridge

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/api/http/handler"
	"github.com/evijayan2/smsmonitor/internal/api/http/middleware"
)

const maxEventBytes = 256 << 10

// TokenHeader carries the bridge token on every call except the ping.
const TokenHeader = "X-Bridge-Token"

func NewRouter(log *zap.Logger, requestTimeout time.Duration, token string, h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestTimeout(requestTimeout))
	router.Use(limitBody(maxEventBytes))

	router.HandleMethodNotAllowed = true
	router.NoMethod(handler.NoMethod)
	router.NoRoute(handler.NoRoute)

	router.GET("/health/ping", h.Ping)

	protected := router.Group("", middleware.SharedSecretAuth(log, TokenHeader, token, ""))

	events := protected.Group("/events")
	{
		events.POST("/sms", h.SMSEvent)
		events.POST("/notification", h.NotificationEvent)
	}

	protected.GET("/config", h.GetConfig)
	protected.PUT("/config", h.PutConfig)
	protected.GET("/metrics", h.Metrics)

	return router
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
