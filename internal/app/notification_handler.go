package app

import (
	"errors"
	"net/http"
	"strconv"

	"socialfeed/internal/repository"
	"socialfeed/internal/service"
	"socialfeed/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GetNotifications lists the caller's notifications, newest first
// GET /api/v1/notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	limit := parseLimit(c, 20)
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	notifications, err := h.notificationService.GetNotifications(userID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Notifications retrieved successfully", gin.H{
		"notifications": notifications,
		"limit":         limit,
		"offset":        offset,
	})
}

// GetUnreadCount returns the caller's unread notification count
// GET /api/v1/notifications/unread/count
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	count, err := h.notificationService.GetUnreadCount(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Unread count retrieved successfully", gin.H{"count": count})
}

// MarkAsRead marks one notification as read
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkAsRead(notificationID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			util.NotFound(c, "Notification not found")
			return
		}
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Notification marked as read", nil)
}

// MarkAllAsRead marks every unread notification as read
// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	if err := h.notificationService.MarkAllAsRead(userID); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "All notifications marked as read", nil)
}

// DeleteNotification removes one notification
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.DeleteNotification(notificationID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			util.NotFound(c, "Notification not found")
			return
		}
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Notification deleted successfully", nil)
}
