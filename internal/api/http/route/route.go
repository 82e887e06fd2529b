package route

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/api/http/handler"
	"github.com/evijayan2/smsmonitor/internal/api/http/middleware"
	"github.com/evijayan2/smsmonitor/internal/config"
	"github.com/evijayan2/smsmonitor/internal/model"
)

const maxMultipartMemory = 1 << 20

func SetupRouter(
	log *zap.Logger,
	cfg *config.Config,
	authenticator middleware.Authenticator,
	healthHdl HealthHandler,
	authHdl AuthHandler,
	smsHdl SMSHandler,
	messageHdl MessageHandler,
	dashboardHdl DashboardHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = maxMultipartMemory

	// middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestTimeout(cfg.HTTPServer.Timeout.Request))
	router.Use(middleware.CORS(cfg.CORS))

	apiKeyMiddleware := middleware.APIKeyAuth(log, cfg.Ingest.APIKey, cfg.Ingest.APIKeyHash)
	sessionMiddleware := middleware.SessionAuth(authenticator)
	pageMiddleware := middleware.SessionPage(authenticator, model.NewPaths(cfg.BasePath).Login())

	router.HandleMethodNotAllowed = true
	router.NoMethod(handler.NoMethod)
	router.NoRoute(handler.NoRoute)

	basePath := router.Group(cfg.BasePath)

	RegisterDashboard(basePath, dashboardHdl, pageMiddleware)

	docsPath := basePath.Group("/docs")
	RegisterDock(docsPath)

	healthPath := basePath.Group("/health")
	RegisterHealth(healthPath, healthHdl)

	authPath := basePath.Group("/auth")
	RegisterAuth(authPath, authHdl)

	smsPath := basePath.Group("/api/sms")
	RegisterSMS(smsPath, smsHdl, messageHdl, apiKeyMiddleware, sessionMiddleware)

	return router
}
