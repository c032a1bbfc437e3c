package handlers

import (
	"strconv"

	"SafeCircle/internal/models"
	"SafeCircle/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) handleStatus(c *gin.Context) {
	user := models.CurrentUser(c)
	snapshot, err := h.coordinator.StatusFor(user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"status": snapshot})
}

func (h *Handlers) handleListEvents(c *gin.Context) {
	user := models.CurrentUser(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	events, total, err := h.events.ListByUser(user.ID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"events": events, "total": total})
}
