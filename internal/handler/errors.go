package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitrine-craques/video-moderation-go/internal/middleware"
	"github.com/vitrine-craques/video-moderation-go/internal/models"
	"github.com/vitrine-craques/video-moderation-go/internal/moderation"
	"github.com/vitrine-craques/video-moderation-go/pkg/logger"
)

func handleError(c *gin.Context, err error) {
	var (
		notFound *moderation.NotFoundError
		invalid  *moderation.ValidationError
		conflict *moderation.ConflictError
	)

	switch {
	case errors.As(err, &notFound):
		respondError(c, http.StatusNotFound, notFound.Error(), func(r *models.ErrorResponse) {})
	case errors.As(err, &invalid):
		respondError(c, http.StatusBadRequest, invalid.Error(), func(r *models.ErrorResponse) {
			r.Field = invalid.Field
		})
	case errors.As(err, &conflict):
		respondError(c, http.StatusBadRequest, conflict.Message, func(r *models.ErrorResponse) {
			r.Code = conflict.Code
		})
	default:
		errorID := uuid.NewString()
		logger.Log.Error("Unexpected error",
			zap.Error(err),
			zap.String("errorId", errorID),
			zap.String("requestId", middleware.RequestIDFrom(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		respondError(c, http.StatusInternalServerError, "Ocorreu um erro inesperado.", func(r *models.ErrorResponse) {
			r.ErrorID = errorID
		})
	}
}

func badRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message, func(r *models.ErrorResponse) {})
}

func respondError(c *gin.Context, status int, message string, decorate func(*models.ErrorResponse)) {
	resp := models.ErrorResponse{
		Timestamp: time.Now(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      c.Request.URL.Path,
	}
	decorate(&resp)
	c.JSON(status, resp)
}

// actor returns the session actor, answering 401 when the route is not behind RequireSession.
func actor(c *gin.Context) (models.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Não autenticado.", func(r *models.ErrorResponse) {})
	}
	return a, ok
}
