package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// MonitorMiddleware 监控中间件, 记录HTTP指标并挂接链路追踪
func MonitorMiddleware(monitor *Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// 用注册路由做标签, 避免路径参数撑爆指标维度
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx, span := monitor.StartSpan(c.Request.Context(), c.HandlerName(),
			WithTags(map[string]string{
				"method": c.Request.Method,
				"path":   route,
				"ip":     c.ClientIP(),
			}),
		)
		c.Request = c.Request.WithContext(ctx)

		if span != nil {
			span.AddEvent("request_started", map[string]interface{}{
				"user_agent": c.Request.UserAgent(),
				"referer":    c.Request.Referer(),
			})
		}

		c.Next()

		duration := time.Since(start)

		status := c.Writer.Status()
		requestSize := c.Request.ContentLength
		if requestSize < 0 {
			requestSize = 0
		}
		responseSize := int64(c.Writer.Size())
		if responseSize < 0 {
			responseSize = 0
		}

		monitor.RecordHTTPRequest(
			c.Request.Method,
			route,
			strconv.Itoa(status),
			c.HandlerName(),
			duration,
			requestSize,
			responseSize,
		)

		var err error
		if status >= 400 {
			err = fmt.Errorf("HTTP %d", status)
		}
		monitor.EndSpan(span, err)

		if span != nil {
			span.AddEvent("request_completed", map[string]interface{}{
				"status_code": status,
				"duration_ms": duration.Milliseconds(),
			})
		}
	}
}
