package route

import (
	"github.com/gin-gonic/gin"
)

type SMSHandler interface {
	Ingest(c *gin.Context)
}

type MessageHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	MarkAsRead(c *gin.Context)
	Stream(c *gin.Context)
}

// RegisterSMS splits /api/sms by caller: the device posts with an API key, the dashboard reads with a session.
func RegisterSMS(g *gin.RouterGroup, ingestHdl SMSHandler, messageHdl MessageHandler, apiKeyMiddleware, sessionMiddleware gin.HandlerFunc) {
	g.POST("", apiKeyMiddleware, ingestHdl.Ingest)

	protected := g.Group("", sessionMiddleware)
	protected.GET("", messageHdl.List)
	protected.GET("/ws", messageHdl.Stream)
	protected.GET("/:id", messageHdl.Get)
	protected.PATCH("/:id/read", messageHdl.MarkAsRead)
}
