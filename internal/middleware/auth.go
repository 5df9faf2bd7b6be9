package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fleettrack/internal/auth"
	"fleettrack/internal/domain"
)

const actorContextKey = "fleettrack.actor"

// AuthMiddleware returns middleware that verifies the bearer token and
// places the resolved actor in the request context. Requests without a
// valid token are rejected before any handler runs.
func AuthMiddleware(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing or malformed authorization header",
			})
			return
		}

		actor, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// GetActor returns the authenticated actor placed by AuthMiddleware.
// The zero Actor is returned on unauthenticated routes.
func GetActor(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}
