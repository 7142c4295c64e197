package api

import (
	"net/http"
	"strings"

	"github.com/codearena/codearena/internal/auth"
	"github.com/codearena/codearena/internal/config"
	"github.com/codearena/codearena/internal/util"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware reflects origins from the configured allow-list. With no
// origins configured it stays out of the way entirely.
func CORSMiddleware(cfg config.CORS) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed := matchOrigin(cfg.AllowedOrigins, c.Request.Header.Get("Origin"))
		if allowed == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowed)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Content-Length, Accept, Accept-Encoding, Origin, Cache-Control, X-Requested-With, X-CSRF-Token")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func matchOrigin(allowList []string, origin string) string {
	for _, o := range allowList {
		if o == "*" {
			return "*"
		}
		if origin != "" && o == origin {
			return origin
		}
	}
	return ""
}

// AuthMiddleware validates the bearer token and stores the caller's user id
// in the gin context under "userID".
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			util.Error(c, http.StatusUnauthorized, "bearer token required")
			c.Abort()
			return
		}

		claims, err := auth.ValidateJWT(token, secret)
		if err != nil {
			util.Error(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}

		c.Set("userID", claims.Subject)
		c.Next()
	}
}
