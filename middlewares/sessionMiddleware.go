package middlewares

import (
	"net/http"

	"bitbucket.org/mmdatafocus/scrub_backend/config"
	"bitbucket.org/mmdatafocus/scrub_backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware resolves an opaque "token" header against the
// Redis session store. Works alongside AuthMiddleware so clients can
// use either scheme.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
