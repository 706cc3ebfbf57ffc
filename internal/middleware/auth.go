// Package middleware provides gin middleware for sessions, request ids and access logs.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vitrine-craques/video-moderation-go/internal/models"
	"github.com/vitrine-craques/video-moderation-go/pkg/logger"
)

const (
	headerAuth   = "Authorization"
	bearerPrefix = "Bearer "
	actorKey     = "actor"
)

// TokenParser resolves a bearer token to the calling actor.
type TokenParser interface {
	Parse(token string) (models.Actor, error)
}

// RequireSession rejects requests without a valid bearer token with 401 and
// stores the resolved actor in the gin context.
func RequireSession(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader(headerAuth))
		if token == "" {
			abort(c, http.StatusUnauthorized, "Não autenticado.")
			return
		}

		actor, err := parser.Parse(token)
		if err != nil {
			logger.Log.Warn("Unauthorized request",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("requestId", RequestIDFrom(c)),
			)
			abort(c, http.StatusUnauthorized, "Não autenticado.")
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireAdmin rejects sessions whose role is not an admin role with 403.
// It must run after RequireSession.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Não autenticado.")
			return
		}
		if !actor.Role.IsAdmin() {
			logger.Log.Warn("Forbidden admin request",
				zap.String("userId", actor.UserID),
				zap.String("role", string(actor.Role)),
				zap.String("path", c.Request.URL.Path),
			)
			abort(c, http.StatusForbidden, "Acesso restrito a administradores.")
			return
		}
		c.Next()
	}
}

// ActorFrom returns the actor stored by RequireSession.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// SetActor stores actor in the gin context.
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(actorKey, actor)
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Timestamp: time.Now(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      c.Request.URL.Path,
	})
}
