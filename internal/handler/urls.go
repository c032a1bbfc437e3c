package handlers

import (
	"SafeCircle/internal/models"
	"SafeCircle/internal/repository"
	"SafeCircle/internal/service"
	"SafeCircle/pkg/config"
	"SafeCircle/pkg/middleware"
	"SafeCircle/pkg/search"
	"SafeCircle/pkg/sse"
	"SafeCircle/pkg/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handlers struct {
	db          *gorm.DB
	users       *repository.UserRepository
	alerts      *repository.AlertRepository
	events      *repository.EventRepository
	safety      *service.SafetyService
	machine     *service.AlertMachine
	coordinator *service.Coordinator
	sseHub      *sse.Hub
	wsHub       *websocket.Hub
	search      search.Engine
}

func NewHandlers(db *gorm.DB, users *repository.UserRepository, alerts *repository.AlertRepository,
	events *repository.EventRepository, safety *service.SafetyService, machine *service.AlertMachine,
	coordinator *service.Coordinator, sseHub *sse.Hub, wsHub *websocket.Hub, engine search.Engine) *Handlers {
	return &Handlers{
		db:          db,
		users:       users,
		alerts:      alerts,
		events:      events,
		safety:      safety,
		machine:     machine,
		coordinator: coordinator,
		sseHub:      sseHub,
		wsHub:       wsHub,
		search:      engine,
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(config.GlobalConfig.APIPrefix)

	// Register Global Singleton DB
	r.Use(middleware.InjectDB(h.db))
	// Register System Module Routes
	h.registerSystemRoutes(r)

	// Register Business Module Routes
	h.registerAuthRoutes(r)
	h.registerCheckInRoutes(r)
	h.registerContactRoutes(r)
	h.registerAlertRoutes(r)
	h.registerStatusRoutes(r)
	h.registerEventRoutes(r)
	h.registerNotificationRoutes(r)
	h.registerStreamRoutes(r)

	if h.search != nil {
		search.NewSearchHandlers(h.search).RegisterSearchRoutes(r)
	}
}

// User Module
func (h *Handlers) registerAuthRoutes(r *gin.RouterGroup) {
	auth := r.Group(config.GlobalConfig.AuthPrefix)
	{
		auth.POST("/register", h.handleUserSignup)

		auth.POST("/login", h.handleUserSignin)

		auth.GET("/logout", models.AuthRequired, h.handleUserLogout)

		auth.GET("/info", models.AuthRequired, h.handleUserInfo)
	}
}

// Check-in Module
func (h *Handlers) registerCheckInRoutes(r *gin.RouterGroup) {
	checkin := r.Group("/checkin", models.AuthRequired)
	{
		checkin.POST("", h.handleCheckIn)

		checkin.PUT("/interval", h.handleSetInterval)

		checkin.PUT("/reminders", h.handleSetReminders)
	}
}

// Contact & Ping Module
func (h *Handlers) registerContactRoutes(r *gin.RouterGroup) {
	contacts := r.Group("/contacts", models.AuthRequired)
	// 防止客户端重发造成重复建立关系
	idem := middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{})
	{
		contacts.GET("", h.handleListContacts)

		contacts.POST("", idem, h.handleAddContact)

		contacts.PUT("/:id/roles", h.handleUpdateRoles)

		contacts.DELETE("/:id", h.handleRemoveContact)

		// pings ride on the relationship
		contacts.POST("/:id/ping", h.handlePing)

		contacts.DELETE("/:id/ping", h.handleClearPing)

		contacts.POST("/:id/ping/respond", h.handleRespondToPing)
	}
}

// Alert Module
func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	alert := r.Group("/alert", models.AuthRequired)
	{
		alert.GET("", h.handleAlertState)

		alert.POST("/arm", h.handleAlertArm)

		alert.POST("/disarm/start", h.handleDisarmStart)

		alert.POST("/disarm/confirm", h.handleDisarmConfirm)

		alert.POST("/disarm/cancel", h.handleDisarmCancel)
	}
}

func (h *Handlers) registerStatusRoutes(r *gin.RouterGroup) {
	r.GET("/status", models.AuthRequired, h.handleStatus)
}

func (h *Handlers) registerEventRoutes(r *gin.RouterGroup) {
	r.GET("/events", models.AuthRequired, h.handleListEvents)
}
