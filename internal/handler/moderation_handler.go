// Package handler provides HTTP request handlers for the application.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vitrine-craques/video-moderation-go/internal/models"
)

// ModerationService is the moderation workflow used by the handlers.
type ModerationService interface {
	Block(ctx context.Context, videoID string, admin models.Actor, reason string) (*models.Video, error)
	Unblock(ctx context.Context, videoID string, admin models.Actor) (*models.Video, error)
	FileAppeal(ctx context.Context, videoID string, caller models.Actor, message string) (*models.Video, error)
	ResolveAppeal(ctx context.Context, videoID string, admin models.Actor, decision models.Decision, response string) (*models.Video, error)
	ListVideos(ctx context.Context, filter models.VideoFilter) (*models.VideoPage, error)
	Summary(ctx context.Context) (*models.ModerationSummary, error)
	ListNotifications(ctx context.Context, userID string, limit, offset int) (*models.NotificationPage, error)
	Visibility(ctx context.Context, videoID string) (models.VisibilityStatus, error)
}

// ModerationHandler serves the admin moderation endpoints.
type ModerationHandler struct {
	service ModerationService
}

// NewModerationHandler creates a new ModerationHandler.
func NewModerationHandler(service ModerationService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// Block handles POST /api/v1/admin/videos/:videoId/block.
func (h *ModerationHandler) Block(c *gin.Context) {
	admin, ok := actor(c)
	if !ok {
		return
	}

	var req models.BlockVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Corpo da requisição inválido.")
		return
	}

	video, err := h.service.Block(c.Request.Context(), c.Param("videoId"), admin, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.VideoResponse{Video: video})
}

// Unblock handles DELETE /api/v1/admin/videos/:videoId/block.
func (h *ModerationHandler) Unblock(c *gin.Context) {
	admin, ok := actor(c)
	if !ok {
		return
	}

	video, err := h.service.Unblock(c.Request.Context(), c.Param("videoId"), admin)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.VideoResponse{Video: video})
}

// ResolveAppeal handles PATCH /api/v1/admin/videos/:videoId/appeal-response.
func (h *ModerationHandler) ResolveAppeal(c *gin.Context) {
	admin, ok := actor(c)
	if !ok {
		return
	}

	var req models.AppealDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Corpo da requisição inválido.")
		return
	}

	video, err := h.service.ResolveAppeal(c.Request.Context(), c.Param("videoId"), admin, req.Decision, req.Response)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.VideoResponse{Video: video})
}

// ListVideos handles GET /api/v1/admin/videos?status=&search=&page=&limit=.
func (h *ModerationHandler) ListVideos(c *gin.Context) {
	filter := models.VideoFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}

	var err error
	if filter.Page, err = intQuery(c, "page"); err != nil {
		badRequest(c, "page: must be a number")
		return
	}
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		badRequest(c, "limit: must be a number")
		return
	}

	page, err := h.service.ListVideos(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Summary handles GET /api/v1/admin/summary.
func (h *ModerationHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// intQuery parses an optional integer query parameter; absent means 0.
func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
