package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/evijayan2/smsmonitor/internal/model"
)

const APIKeyHeader = "X-API-Key"

// APIKeyAuth checks the ingestion secret. With a bcrypt hash configured the plain key is ignored.
func APIKeyAuth(log *zap.Logger, apiKey, apiKeyHash string) gin.HandlerFunc {
	return SharedSecretAuth(log, APIKeyHeader, apiKey, apiKeyHash)
}

// SharedSecretAuth rejects requests whose header does not carry the secret.
// An empty secret with no hash rejects everything.
func SharedSecretAuth(log *zap.Logger, header, secret, secretHash string) gin.HandlerFunc {
	match := func(got string) bool {
		if secretHash != "" {
			return bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(got)) == nil
		}

		return secret != "" && subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1
	}

	return func(c *gin.Context) {
		got := c.GetHeader(header)

		if got == "" || !match(got) {
			log.Warn("Unauthorized request",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.Bool("secret_present", got != ""),
			)

			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Error: "Unauthorized"})

			return
		}

		c.Next()
	}
}
