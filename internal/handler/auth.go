package handlers

import (
	"SafeCircle/internal/models"
	"SafeCircle/pkg/config"
	"SafeCircle/pkg/errors"
	"SafeCircle/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type signupRequest struct {
	Email           string `json:"email" binding:"required,email"`
	DisplayName     string `json:"display_name" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	Phone           string `json:"phone"`
	Language        string `json:"language"`
	IntervalSeconds int64  `json:"interval_seconds"`
}

type signinRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) handleUserSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.InvalidArgument("invalid request: %v", err))
		return
	}
	interval := req.IntervalSeconds
	if interval == 0 {
		interval = config.GlobalConfig.DefaultInterval
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		response.Error(c, errors.Unavailable("hash password: %v", err))
		return
	}
	user := &models.User{
		Email:           req.Email,
		DisplayName:     req.DisplayName,
		Phone:           req.Phone,
		Language:        req.Language,
		Secret:          string(hashed),
		Enabled:         true,
		CheckInInterval: interval,
	}
	if err := h.users.Create(user); err != nil {
		response.Error(c, err)
		return
	}
	if err := models.Login(c, user); err != nil {
		response.Error(c, errors.Unavailable("save session: %v", err))
		return
	}
	response.Success(c, "registered", gin.H{"user": user})
}

func (h *Handlers) handleUserSignin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.InvalidArgument("invalid request: %v", err))
		return
	}
	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		response.Error(c, errors.PermissionDenied("invalid email or password"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Secret), []byte(req.Password)) != nil {
		response.Error(c, errors.PermissionDenied("invalid email or password"))
		return
	}
	if !user.Enabled {
		response.Error(c, errors.PermissionDenied("account disabled"))
		return
	}
	if err := models.Login(c, user); err != nil {
		response.Error(c, errors.Unavailable("save session: %v", err))
		return
	}
	response.Success(c, "signed in", gin.H{"user": user})
}

func (h *Handlers) handleUserLogout(c *gin.Context) {
	if err := models.Logout(c); err != nil {
		response.Error(c, errors.Unavailable("clear session: %v", err))
		return
	}
	response.Success(c, "signed out", nil)
}

func (h *Handlers) handleUserInfo(c *gin.Context) {
	user := models.CurrentUser(c)
	response.Success(c, "success", gin.H{
		"user":       user,
		"expires_at": user.ExpiresAt(),
	})
}
