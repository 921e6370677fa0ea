package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/auth"
	"github.com/emilythestrangee/devflow/backend/internal/response"
)

const actorKey = "actor_id"

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

func bearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// caller's user id for ActorFromContext.
func AuthMiddleware(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			response.Error(c, apperr.Unauthorized())
			return
		}
		claims, err := tokens.Verify(token)
		if err != nil {
			response.Error(c, apperr.Unauthorized())
			return
		}
		c.Set(actorKey, claims.UserID)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearer(c); token != "" {
			if claims, err := tokens.Verify(token); err == nil {
				c.Set(actorKey, claims.UserID)
			}
		}
		c.Next()
	}
}

// ActorFromContext returns the authenticated user id, or 0 for anonymous
// callers.
func ActorFromContext(c *gin.Context) int {
	return c.GetInt(actorKey)
}
