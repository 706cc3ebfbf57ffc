package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitrine-craques/video-moderation-go/internal/models"
)

// AppealHandler serves the owner-facing video endpoints.
type AppealHandler struct {
	service ModerationService
}

// NewAppealHandler creates a new AppealHandler.
func NewAppealHandler(service ModerationService) *AppealHandler {
	return &AppealHandler{service: service}
}

// FileAppeal handles POST /api/v1/videos/:id/appeal.
func (h *AppealHandler) FileAppeal(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}

	var req models.AppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Corpo da requisição inválido.")
		return
	}

	video, err := h.service.FileAppeal(c.Request.Context(), c.Param("id"), caller, req.Message)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.VideoResponse{Video: video})
}

// Visibility handles GET /api/v1/videos/:id/visibility.
func (h *AppealHandler) Visibility(c *gin.Context) {
	videoID := c.Param("id")

	status, err := h.service.Visibility(c.Request.Context(), videoID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.VisibilityResponse{VideoID: videoID, VisibilityStatus: status})
}
