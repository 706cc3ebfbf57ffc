package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NotificationHandler serves the caller's notification feed.
type NotificationHandler struct {
	service ModerationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service ModerationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List handles GET /api/v1/notifications?limit=&offset=.
func (h *NotificationHandler) List(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}

	limit, err := intQuery(c, "limit")
	if err != nil {
		badRequest(c, "limit: must be a number")
		return
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		badRequest(c, "offset: must be a number")
		return
	}

	page, err := h.service.ListNotifications(c.Request.Context(), caller.UserID, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
