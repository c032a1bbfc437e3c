package handlers

import (
	"SafeCircle/pkg/config"
	"SafeCircle/pkg/middleware"
	"SafeCircle/pkg/registry"
	"SafeCircle/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		// 管理操作要求请求签名
		if config.GlobalConfig.APISecretKey != "" {
			system.POST("/rate-limiter/config", middleware.SignVerifyMiddleware(), h.UpdateRateLimiterConfig)
		} else {
			system.POST("/rate-limiter/config", h.UpdateRateLimiterConfig)
		}

		system.GET("/health", h.HealthCheck)

		system.GET("/components", h.ComponentStatus)
	}
}

// ComponentStatus 报告可选组件的装配情况
func (h *Handlers) ComponentStatus(c *gin.Context) {
	components := gin.H{}
	// 固定列出可选项，再叠加实际登记的组件，便于发现缺失装配
	for _, name := range []string{"cache", "search", "websocket", "sse"} {
		_, ok := registry.Get(name)
		components[name] = ok
	}
	for _, name := range registry.Names() {
		components[name] = true
	}
	response.Success(c, "success", gin.H{"components": components})
}

// UpdateRateLimiterConfig 更新限流配置
func (h *Handlers) UpdateRateLimiterConfig(c *gin.Context) {
	var config middleware.RateLimiterConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}

	// 更新限流配置
	middleware.SetRateLimiterConfig(config)
	response.Success(c, "rate limiter config updated", nil)
}

// HealthCheck 健康检查接口
func (h *Handlers) HealthCheck(c *gin.Context) {
	// 检查数据库连接
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database connection failed"})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database ping failed"})
		return
	}

	// 返回健康状态
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
