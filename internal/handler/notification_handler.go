package handler

import (
	"github.com/gin-gonic/gin"

	"cardmarket/internal/middleware"
	"cardmarket/internal/service/notification"
	"cardmarket/pkg/utils"
)

// NotificationHandler notification feed handler
type NotificationHandler struct {
	notificationService notification.NotificationService
}

// NewNotificationHandler creates a notification handler
func NewNotificationHandler(notificationService notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// Feed lists recent notifications visible to the user
func (h *NotificationHandler) Feed(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	feed, err := h.notificationService.FeedFor(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, feed)
}
