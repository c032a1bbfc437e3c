package handlers

import (
	"SafeCircle/internal/models"
	"SafeCircle/pkg/errors"
	"SafeCircle/pkg/response"

	"github.com/gin-gonic/gin"
)

type contactRequest struct {
	ContactID   string `json:"contact_id" binding:"required"`
	IsResponder bool   `json:"is_responder"`
	IsDependent bool   `json:"is_dependent"`
}

type rolesRequest struct {
	IsResponder bool `json:"is_responder"`
	IsDependent bool `json:"is_dependent"`
}

func (h *Handlers) handleListContacts(c *gin.Context) {
	user := models.CurrentUser(c)
	snapshot, err := h.coordinator.StatusFor(user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"contacts": snapshot.Contacts})
}

func (h *Handlers) handleAddContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.InvalidArgument("invalid request: %v", err))
		return
	}
	user := models.CurrentUser(c)
	if err := h.safety.AddContact(user.ID, req.ContactID, req.IsResponder, req.IsDependent); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "contact added", nil)
}

func (h *Handlers) handleUpdateRoles(c *gin.Context) {
	var req rolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.InvalidArgument("invalid request: %v", err))
		return
	}
	user := models.CurrentUser(c)
	if err := h.safety.UpdateContactRoles(user.ID, c.Param("id"), req.IsResponder, req.IsDependent); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "roles updated", nil)
}

func (h *Handlers) handleRemoveContact(c *gin.Context) {
	user := models.CurrentUser(c)
	if err := h.safety.RemoveContact(user.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "contact removed", nil)
}

func (h *Handlers) handlePing(c *gin.Context) {
	user := models.CurrentUser(c)
	if err := h.safety.Ping(user.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ping sent", nil)
}

// handleRespondToPing 响应由 :id 发来的呼叫
func (h *Handlers) handleRespondToPing(c *gin.Context) {
	user := models.CurrentUser(c)
	if err := h.safety.RespondToPing(user.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ping responded", nil)
}

func (h *Handlers) handleClearPing(c *gin.Context) {
	user := models.CurrentUser(c)
	if err := h.safety.ClearPing(user.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ping cleared", nil)
}
