package middleware

import (
	"SafeCircle/pkg/config"
	constants "SafeCircle/pkg/constant"
	"SafeCircle/pkg/logger"
	"net"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OperationLogMiddleware 记录操作日志。请求完成后落库，失败只记日志不影响响应。
func OperationLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		db, ok := c.MustGet(constants.DbField).(*gorm.DB)
		if !ok {
			return
		}
		userID := c.GetString(constants.SessionUserID)
		if userID == "" {
			return
		}
		username := c.GetString("username")

		ua := user_agent.New(c.GetHeader("User-Agent"))
		device := ua.Platform()
		browser, version := ua.Browser()
		os := ua.OS()
		ipAddress := c.ClientIP()

		err := CreateOperationLog(db, userID, username,
			c.Request.Method, c.Request.URL.Path, "User action recorded",
			ipAddress, c.GetHeader("User-Agent"), c.GetHeader("Referer"),
			device, browser+version, os, getGeoLocation(ipAddress), c.Request.Method)
		if err != nil {
			logger.Warn("record operation log failed", zap.Error(err))
		}
	}
}

// OperationLog 记录用户操作日志
type OperationLog struct {
	ID              int64     `gorm:"primaryKey;autoIncrement;not null" json:"id"`
	UserID          string    `gorm:"size:36;not null;index" json:"user_id"` // 操作的用户 ID
	Username        string    `gorm:"not null" json:"username"`              // 操作的用户名
	Action          string    `gorm:"not null" json:"action"`                // 操作类型（如：创建、删除、更新等）
	Target          string    `gorm:"not null" json:"target"`                // 操作目标（如：打卡、呼叫等）
	Details         string    `gorm:"not null" json:"details"`               // 操作详细描述
	IPAddress       string    `gorm:"not null" json:"ip_address"`            // 用户 IP 地址
	UserAgent       string    `gorm:"not null" json:"user_agent"`            // 用户的浏览器信息
	Referer         string    `gorm:"not null" json:"referer"`               // 请求来源页面
	Device          string    `gorm:"not null" json:"device"`                // 用户设备（手机、桌面等）
	Browser         string    `gorm:"not null" json:"browser"`               // 浏览器信息（如 Chrome, Firefox 等）
	OperatingSystem string    `gorm:"not null" json:"operating_system"`      // 操作系统（如 Windows, MacOS 等）
	Location        string    `gorm:"not null" json:"location"`              // 用户的地理位置
	RequestMethod   string    `gorm:"not null" json:"request_method"`        // HTTP 请求方法（GET、POST等）
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`      // 操作时间
}

// CreateOperationLog 创建操作日志
func CreateOperationLog(db *gorm.DB, userID, username, action, target, details, ipAddress, userAgent, referer, device, browser, operatingSystem, location, requestMethod string) error {
	log := OperationLog{
		UserID:          userID,
		Username:        username,
		Action:          action,
		Target:          target,
		Details:         details,
		IPAddress:       ipAddress,
		UserAgent:       userAgent,
		Referer:         referer,
		Device:          device,
		Browser:         browser,
		OperatingSystem: operatingSystem,
		Location:        location,
		RequestMethod:   requestMethod,
		CreatedAt:       time.Now(),
	}

	// 保存操作日志到数据库
	if err := db.Create(&log).Error; err != nil {
		return err
	}
	return nil
}

func getGeoLocation(address string) string {
	path := config.GlobalConfig.GeoIPDBPath
	if path == "" {
		return ""
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return ""
	}
	defer reader.Close()

	record, err := reader.City(net.ParseIP(address))
	if err != nil {
		return ""
	}
	return record.City.Names["en"] // 返回城市名
}
