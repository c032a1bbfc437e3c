package handlers

import (
	"SafeCircle/internal/models"
	"SafeCircle/pkg/errors"
	"SafeCircle/pkg/response"

	"github.com/gin-gonic/gin"
)

type intervalRequest struct {
	IntervalSeconds int64 `json:"interval_seconds" binding:"required"`
}

type remindersRequest struct {
	OffsetsSeconds []int64 `json:"offsets_seconds"`
}

func (h *Handlers) handleCheckIn(c *gin.Context) {
	user := models.CurrentUser(c)
	updated, err := h.safety.CheckIn(user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "checked in", gin.H{
		"last_check_in": updated.LastCheckIn,
		"expires_at":    updated.ExpiresAt(),
	})
}

func (h *Handlers) handleSetInterval(c *gin.Context) {
	var req intervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.InvalidArgument("invalid request: %v", err))
		return
	}
	user := models.CurrentUser(c)
	if err := h.safety.SetInterval(user.ID, req.IntervalSeconds); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "interval updated", gin.H{"interval_seconds": req.IntervalSeconds})
}

func (h *Handlers) handleSetReminders(c *gin.Context) {
	var req remindersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.InvalidArgument("invalid request: %v", err))
		return
	}
	user := models.CurrentUser(c)
	if err := h.safety.SetReminderOffsets(user.ID, req.OffsetsSeconds); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "reminders updated", gin.H{"offsets_seconds": req.OffsetsSeconds})
}
