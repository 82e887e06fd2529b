package route

import (
	"github.com/gin-gonic/gin"
)

type DashboardHandler interface {
	Index(c *gin.Context)
	Login(c *gin.Context)
}

func RegisterDashboard(g *gin.RouterGroup, h DashboardHandler, pageMiddleware gin.HandlerFunc) {
	g.GET("/login", h.Login)
	g.GET("/", pageMiddleware, h.Index)
}
