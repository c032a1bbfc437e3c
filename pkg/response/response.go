package response

import (
	"net/http"

	"SafeCircle/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Success 统一成功响应
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// Fail 统一失败响应
func Fail(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   message,
		"data":    data,
	})
}

// Error 按业务错误码返回对应的 HTTP 状态
func Error(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), gin.H{
		"success": false,
		"code":    errors.GetCode(err),
		"error":   errors.GetMessage(err),
	})
}
