package handlers

import (
	"strconv"

	"SafeCircle/internal/models"
	"SafeCircle/pkg/notification"
	"SafeCircle/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) registerNotificationRoutes(r *gin.RouterGroup) {
	notificationGroup := r.Group("notification")
	{
		notificationGroup.GET("unread-count", models.AuthRequired, h.handleUnReadNotificationCount)

		notificationGroup.GET("", models.AuthRequired, h.handleListNotifications)

		notificationGroup.POST("readAll", models.AuthRequired, h.handleReadAllNotifications)

		notificationGroup.PUT("/read/:id", models.AuthRequired, h.handleMarkNotificationAsRead)

		notificationGroup.DELETE("/:id", models.AuthRequired, h.handleDeleteNotification)
	}
}

func (h *Handlers) handleUnReadNotificationCount(c *gin.Context) {
	user := models.CurrentUser(c)
	count, err := notification.UnreadCount(c, h.db, user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"count": count})
}

func (h *Handlers) handleListNotifications(c *gin.Context) {
	user := models.CurrentUser(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	items, err := notification.ListInbox(c, h.db, user.ID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"notifications": items})
}

func (h *Handlers) handleReadAllNotifications(c *gin.Context) {
	user := models.CurrentUser(c)
	if err := notification.MarkAllRead(c, h.db, user.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "all marked read", nil)
}

func (h *Handlers) handleMarkNotificationAsRead(c *gin.Context) {
	user := models.CurrentUser(c)
	if err := notification.MarkRead(c, h.db, user.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "marked read", nil)
}

func (h *Handlers) handleDeleteNotification(c *gin.Context) {
	user := models.CurrentUser(c)
	if err := notification.Remove(c, h.db, user.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "removed", nil)
}

func (h *Handlers) registerStreamRoutes(r *gin.RouterGroup) {
	r.GET("/stream", models.AuthRequired, h.handleSSE)
}

func (h *Handlers) handleSSE(c *gin.Context) {
	user := models.CurrentUser(c)
	h.sseHub.Serve(c, user.ID)
}
