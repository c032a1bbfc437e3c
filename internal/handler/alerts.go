package handlers

import (
	"SafeCircle/internal/models"
	"SafeCircle/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) handleAlertState(c *gin.Context) {
	user := models.CurrentUser(c)
	state, err := h.alerts.Get(user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{
		"active":       state.Active,
		"activated_at": state.ActivatedAt,
		"arm_progress": h.machine.Progress(user.ID),
	})
}

func (h *Handlers) handleAlertArm(c *gin.Context) {
	user := models.CurrentUser(c)
	progress, activated, err := h.machine.Arm(user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "armed", gin.H{
		"progress":  progress,
		"activated": activated,
	})
}

func (h *Handlers) handleDisarmStart(c *gin.Context) {
	user := models.CurrentUser(c)
	if err := h.machine.BeginDisarm(user.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "hold started", nil)
}

func (h *Handlers) handleDisarmConfirm(c *gin.Context) {
	user := models.CurrentUser(c)
	if err := h.machine.ConfirmDisarm(user.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "alert deactivated", nil)
}

func (h *Handlers) handleDisarmCancel(c *gin.Context) {
	user := models.CurrentUser(c)
	h.machine.CancelDisarm(user.ID)
	response.Success(c, "hold cancelled", nil)
}
