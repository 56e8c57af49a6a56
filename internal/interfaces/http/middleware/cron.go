package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/interfaces/http/dto"
)

// CronSecretHeader carries the shared secret of the external cron caller
const CronSecretHeader = "X-Cron-Secret"

// CronSecret authenticates cron endpoints with a shared secret. An empty
// configured secret rejects every call.
func CronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(CronSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized,
				"Invalid cron secret",
				GetRequestID(c),
			))
			return
		}
		ctx := logger.WithActor(c.Request.Context(), logger.Actor{Kind: "system", ID: "cron"})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
