package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/evijayan2/smsmonitor/internal/model"
)

type Authenticator interface {
	Authenticate(token string) (*model.Session, error)
}

// SessionAuth guards JSON endpoints: no valid session means 401.
func SessionAuth(auth Authenticator) gin.HandlerFunc {
	return sessionAuth(auth, func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Error: "Unauthorized"})
	})
}

// SessionPage guards HTML pages: no valid session means a redirect to loginURL.
func SessionPage(auth Authenticator, loginURL string) gin.HandlerFunc {
	return sessionAuth(auth, func(c *gin.Context) {
		c.Redirect(http.StatusFound, loginURL)
		c.Abort()
	})
}

func sessionAuth(auth Authenticator, reject gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		if cookie, err := c.Cookie(model.AccessCookie); err == nil {
			tokenStr = cookie
		}

		if tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if tokenStr == "" {
			reject(c)
			return
		}

		session, err := auth.Authenticate(tokenStr)
		if err != nil {
			reject(c)
			return
		}

		c.Set(model.UserEmailKey, session.Email)
		c.Set(model.UserNameKey, session.Name)

		c.Next()
	}
}
