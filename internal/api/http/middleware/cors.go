package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/evijayan2/smsmonitor/internal/config"
)

// CORS opens the API to browser origins. The dashboard is same-origin and does not need it;
// it exists for web-based forwarders that post with X-API-Key.
func CORS(cfg config.CORS) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	corsConfig := cors.DefaultConfig()

	if len(cfg.AllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowMethods
	}

	corsConfig.AddAllowHeaders(cfg.AllowHeaders...)
	corsConfig.AddAllowHeaders(APIKeyHeader)
	corsConfig.AddExposeHeaders(cfg.ExposeHeaders...)

	corsConfig.AllowCredentials = cfg.AllowCredentials
	corsConfig.AllowWebSockets = cfg.AllowWebSockets
	corsConfig.AllowFiles = cfg.AllowFiles

	if cfg.MaxAge > 0 {
		corsConfig.MaxAge = cfg.MaxAge
	}

	switch {
	case cfg.AllowAllOrigins && cfg.AllowCredentials:
		// "*" is not valid with credentials, so every origin is echoed back instead.
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	case cfg.AllowAllOrigins:
		corsConfig.AllowAllOrigins = true
	default:
		corsConfig.AllowOrigins = cfg.AllowOrigins
	}

	return cors.New(corsConfig)
}
