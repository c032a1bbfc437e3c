package models

import (
	"SafeCircle/pkg/constant"
	"SafeCircle/pkg/errors"
	"SafeCircle/pkg/response"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CurrentUser 从请求上下文取当前登录用户，未登录返回 nil。
// 首次访问会查库并缓存到 gin.Context。
func CurrentUser(c *gin.Context) *User {
	if cached, exists := c.Get(constant.UserField); exists {
		if u, ok := cached.(*User); ok {
			return u
		}
		return nil
	}

	session := sessions.Default(c)
	userID, ok := session.Get(constant.SessionUserID).(string)
	if !ok || userID == "" {
		c.Set(constant.UserField, nil)
		return nil
	}

	db := c.MustGet(constant.DbField).(*gorm.DB)
	var user User
	if err := db.Where("id = ? AND enabled = ?", userID, true).First(&user).Error; err != nil {
		c.Set(constant.UserField, nil)
		return nil
	}
	c.Set(constant.UserField, &user)
	return &user
}

// AuthRequired 登录保护中间件
func AuthRequired(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		response.Error(c, errors.PermissionDenied("login required"))
		c.Abort()
		return
	}
	c.Set(constant.SessionUserID, user.ID)
	c.Set("username", user.DisplayName)
	c.Next()
}

// Login 将用户写入会话
func Login(c *gin.Context, user *User) error {
	session := sessions.Default(c)
	session.Set(constant.SessionUserID, user.ID)
	return session.Save()
}

// Logout 清空会话
func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}
