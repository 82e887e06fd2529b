package route

import (
	"github.com/gin-gonic/gin"
)

type AuthHandler interface {
	GoogleLogin(c *gin.Context)
	GoogleCallback(c *gin.Context)
	Logout(c *gin.Context)
}

func RegisterAuth(g *gin.RouterGroup, h AuthHandler) {
	g.GET("/google/login", h.GoogleLogin)
	g.GET("/google/callback", h.GoogleCallback)
	g.POST("/logout", h.Logout)
}
